package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"
)

// CreateDeliveryCommandHandler handles the business logic for delivery
// registration. Resolves the destination address through the geocoder and
// creates the delivery in pending status.
type CreateDeliveryCommandHandler struct {
	uowFactory DeliveryUoWFactory
	geocoder   ports.Geocoder
}

// NewCreateDeliveryCommandHandler creates a handler for delivery registration.
// Requires a DeliveryUoWFactory for transactional persistence and a Geocoder
// for address resolution.
func NewCreateDeliveryCommandHandler(uowFactory DeliveryUoWFactory, geocoder ports.Geocoder) CreateDeliveryCommandHandler {
	return CreateDeliveryCommandHandler{
		uowFactory: uowFactory,
		geocoder:   geocoder,
	}
}

// Handle processes the delivery registration command.
// Geocoding happens before the transaction opens so a slow upstream never
// holds a database connection.
func (h *CreateDeliveryCommandHandler) Handle(ctx context.Context, cmd CreateDeliveryCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	destination, err := h.resolveDestination(ctx, cmd)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	newDelivery, err := delivery.NewDelivery(cmd.DeliveryID(), cmd.Address(), destination, time.Now().UTC())
	if err != nil {
		return err
	}

	if err = uow.DeliveryRepository().Add(ctx, newDelivery); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func (h *CreateDeliveryCommandHandler) resolveDestination(
	ctx context.Context,
	cmd CreateDeliveryCommand,
) (kernel.GeoPoint, error) {
	if cmd.Destination() != nil {
		return *cmd.Destination(), nil
	}
	return h.geocoder.Geocode(ctx, cmd.Address())
}
