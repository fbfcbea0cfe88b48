package commands_test

import (
	"errors"
	"testing"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCreateDeliveryCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()
	cmd, _ := commands.NewCreateDeliveryCommand(id, "12 Harbour Rd")
	destination, _ := kernel.NewGeoPoint(42.8860, -79.2493)

	geocoder := new(MockGeocoder)
	geocoder.On("Geocode", mock.Anything, "12 Harbour Rd").Return(destination, nil).Once()

	repo := new(MockDeliveryRepository)
	uow := new(MockDeliveryUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("DeliveryRepository").Return(repo).Once(),
		repo.On("Add", mock.Anything, mock.AnythingOfType("*delivery.Delivery")).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockDeliveryUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateDeliveryCommandHandler(factory, geocoder)
	err := h.Handle(ctx, cmd)
	require.NoError(t, err)
	geocoder.AssertExpectations(t)
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
	factory.AssertExpectations(t)
}

func TestCreateDeliveryCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	cmd := commands.CreateDeliveryCommand{} // not constructed properly
	factory := new(MockDeliveryUoWFactory)
	geocoder := new(MockGeocoder)
	h := commands.NewCreateDeliveryCommandHandler(factory, geocoder)
	err := h.Handle(ctx, cmd)
	require.Error(t, err)
}

func TestCreateDeliveryCommandHandler_Handle_GeocodeError(t *testing.T) {
	ctx := t.Context()
	cmd, _ := commands.NewCreateDeliveryCommand(kernel.NewUUID(), "nowhere")

	geocoder := new(MockGeocoder)
	geocoder.On("Geocode", mock.Anything, "nowhere").
		Return(kernel.GeoPoint{}, errors.New("geocode error")).Once()

	factory := new(MockDeliveryUoWFactory)
	h := commands.NewCreateDeliveryCommandHandler(factory, geocoder)
	err := h.Handle(ctx, cmd)
	require.Error(t, err)
	factory.AssertNotCalled(t, "Create")
}

func TestCreateDeliveryCommandHandler_Handle_AddError(t *testing.T) {
	ctx := t.Context()
	cmd, _ := commands.NewCreateDeliveryCommand(kernel.NewUUID(), "12 Harbour Rd")
	destination, _ := kernel.NewGeoPoint(42.8860, -79.2493)

	geocoder := new(MockGeocoder)
	geocoder.On("Geocode", mock.Anything, "12 Harbour Rd").Return(destination, nil).Once()

	repo := new(MockDeliveryRepository)
	uow := new(MockDeliveryUoW)
	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.On("DeliveryRepository").Return(repo).Once(),
		repo.On("Add", mock.Anything, mock.AnythingOfType("*delivery.Delivery")).
			Return(errors.New("add error")).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	factory := new(MockDeliveryUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateDeliveryCommandHandler(factory, geocoder)
	err := h.Handle(ctx, cmd)
	require.Error(t, err)
	repo.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestCreateDeliveryCommandHandler_Handle_KnownCoordinatesSkipGeocoder(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()
	destination, _ := kernel.NewGeoPoint(42.8860, -79.2493)
	cmd, err := commands.NewCreateDeliveryCommandWithDestination(id, "12 Harbour Rd", destination)
	require.NoError(t, err)

	geocoder := new(MockGeocoder)

	var persisted *delivery.Delivery
	repo := new(MockDeliveryRepository)
	repo.On("Add", mock.Anything, mock.AnythingOfType("*delivery.Delivery")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*delivery.Delivery)
		}).Return(nil).Once()

	uow := new(MockDeliveryUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("DeliveryRepository").Return(repo).Once()
	uow.On("Commit", ctx).Return(nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockDeliveryUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateDeliveryCommandHandler(factory, geocoder)
	require.NoError(t, h.Handle(ctx, cmd))

	geocoder.AssertNotCalled(t, "Geocode", mock.Anything, mock.Anything)
	require.NotNil(t, persisted)
	require.True(t, destination.IsEqual(persisted.Destination()))
}

func TestCreateDeliveryCommandHandler_CreatesPendingDelivery(t *testing.T) {
	ctx := t.Context()
	id := kernel.NewUUID()
	cmd, _ := commands.NewCreateDeliveryCommand(id, "12 Harbour Rd")
	destination, _ := kernel.NewGeoPoint(42.8860, -79.2493)

	geocoder := new(MockGeocoder)
	geocoder.On("Geocode", mock.Anything, "12 Harbour Rd").Return(destination, nil).Once()

	var persisted *delivery.Delivery
	repo := new(MockDeliveryRepository)
	repo.On("Add", mock.Anything, mock.AnythingOfType("*delivery.Delivery")).
		Run(func(args mock.Arguments) {
			persisted = args.Get(1).(*delivery.Delivery)
		}).Return(nil).Once()

	uow := new(MockDeliveryUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("DeliveryRepository").Return(repo).Once()
	uow.On("Commit", ctx).Return(nil).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	factory := new(MockDeliveryUoWFactory)
	factory.On("Create").Return(uow).Once()

	h := commands.NewCreateDeliveryCommandHandler(factory, geocoder)
	require.NoError(t, h.Handle(ctx, cmd))

	require.NotNil(t, persisted)
	require.True(t, persisted.ID().IsEqual(id))
	require.Equal(t, delivery.Pending, persisted.Status())
	require.True(t, destination.IsEqual(persisted.Destination()))
}
