package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/core/domain/services"
)

// AssignmentSender delivers an assignment command to the unit over the radio
// with acknowledgement tracking. Implemented by the reliable messenger.
type AssignmentSender interface {
	// SendAssignment records the command durably, transmits it, and arms the
	// retry timer. A transmit failure is resolved by the sender itself (the
	// delivery fails and the unit errors); the returned error is informational.
	SendAssignment(ctx context.Context, dlv *delivery.Delivery, u *unit.Unit) error
}

// AssignDeliveryCommandHandler handles delivery assignment. It applies the
// coupled transition to both aggregates in one transaction and then hands the
// assignment command to the reliable messenger.
type AssignDeliveryCommandHandler struct {
	uowFactory UoWFactory
	dispatcher services.UnitDispatcher
	sender     AssignmentSender
}

// NewAssignDeliveryCommandHandler creates a handler for delivery assignment.
func NewAssignDeliveryCommandHandler(
	uowFactory UoWFactory,
	dispatcher services.UnitDispatcher,
	sender AssignmentSender,
) AssignDeliveryCommandHandler {
	return AssignDeliveryCommandHandler{
		uowFactory: uowFactory,
		dispatcher: dispatcher,
		sender:     sender,
	}
}

// Handle processes the assignment command.
//
// Both aggregates are committed before the radio send: if the process dies
// between commit and transmit, the delivery is visibly assigned and the
// operator can re-assign, whereas an untracked in-flight command could never
// be retried.
func (h *AssignDeliveryCommandHandler) Handle(ctx context.Context, cmd AssignDeliveryCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	dlv, err := uow.DeliveryRepository().Get(ctx, cmd.DeliveryID())
	if err != nil {
		return err
	}

	assigned, err := h.pickUnit(ctx, uow, cmd, dlv)
	if err != nil {
		return err
	}

	if err = uow.DeliveryRepository().Update(ctx, dlv); err != nil {
		return err
	}
	if err = uow.UnitRepository().Update(ctx, assigned); err != nil {
		return err
	}
	if err = uow.Commit(ctx); err != nil {
		return err
	}

	return h.sender.SendAssignment(ctx, dlv, assigned)
}

func (h *AssignDeliveryCommandHandler) pickUnit(
	ctx context.Context,
	uow UoW,
	cmd AssignDeliveryCommand,
	dlv *delivery.Delivery,
) (*unit.Unit, error) {
	now := time.Now().UTC()

	if cmd.UnitID() != "" {
		requested, err := uow.UnitRepository().Get(ctx, cmd.UnitID())
		if err != nil {
			return nil, err
		}
		if err = dlv.AssignTo(requested.ID(), now); err != nil {
			return nil, err
		}
		if err = requested.AssignTo(dlv.ID(), now); err != nil {
			return nil, err
		}
		return requested, nil
	}

	available, err := uow.UnitRepository().GetAllAvailable(ctx)
	if err != nil {
		return nil, err
	}

	return h.dispatcher.Dispatch(dlv, available, now)
}
