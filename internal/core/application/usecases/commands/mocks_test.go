package commands_test

import (
	"context"
	"time"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Add(ctx context.Context, d *delivery.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Update(ctx context.Context, d *delivery.Delivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetAllPending(ctx context.Context) ([]*delivery.Delivery, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*delivery.Delivery), args.Error(1)
}

type MockUnitRepository struct{ mock.Mock }

func (m *MockUnitRepository) Add(ctx context.Context, u *unit.Unit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUnitRepository) Update(ctx context.Context, u *unit.Unit) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUnitRepository) Get(ctx context.Context, id string) (*unit.Unit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*unit.Unit), args.Error(1)
}

func (m *MockUnitRepository) GetAllAvailable(ctx context.Context) ([]*unit.Unit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*unit.Unit), args.Error(1)
}

func (m *MockUnitRepository) GetAllSilentSince(ctx context.Context, cutoff time.Time) ([]*unit.Unit, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*unit.Unit), args.Error(1)
}

type MockUoW struct{ mock.Mock }

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUoW) DeliveryRepository() ports.DeliveryRepository {
	args := m.Called()
	return args.Get(0).(ports.DeliveryRepository)
}

func (m *MockUoW) UnitRepository() ports.UnitRepository {
	args := m.Called()
	return args.Get(0).(ports.UnitRepository)
}

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockDeliveryUoW struct{ mock.Mock }

func (m *MockDeliveryUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDeliveryUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDeliveryUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDeliveryUoW) DeliveryRepository() ports.DeliveryRepository {
	args := m.Called()
	return args.Get(0).(ports.DeliveryRepository)
}

type MockDeliveryUoWFactory struct{ mock.Mock }

func (m *MockDeliveryUoWFactory) Create() commands.DeliveryUoW {
	args := m.Called()
	return args.Get(0).(commands.DeliveryUoW)
}

type MockGeocoder struct{ mock.Mock }

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (kernel.GeoPoint, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(kernel.GeoPoint), args.Error(1)
}

type MockAssignmentSender struct{ mock.Mock }

func (m *MockAssignmentSender) SendAssignment(ctx context.Context, dlv *delivery.Delivery, u *unit.Unit) error {
	args := m.Called(ctx, dlv, u)
	return args.Error(0)
}

type MockCompletionNotifier struct{ mock.Mock }

func (m *MockCompletionNotifier) SendTaskComplete(ctx context.Context, deliveryID kernel.UUID, destination string) error {
	args := m.Called(ctx, deliveryID, destination)
	return args.Error(0)
}
