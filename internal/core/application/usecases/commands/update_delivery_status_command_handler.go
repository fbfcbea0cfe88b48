package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var ErrManualAssignNotAllowed = errors.New("use the assign operation to assign a delivery")

// CompletionNotifier tells a unit over the radio that its current task is
// done and it may head back. The frame is untracked; a lost notification is
// harmless because the unit reports its own return leg.
type CompletionNotifier interface {
	SendTaskComplete(ctx context.Context, deliveryID kernel.UUID, destination string) error
}

// UpdateDeliveryStatusCommandHandler applies operator-driven delivery status
// changes and cascades them to the assigned unit in the same transaction.
type UpdateDeliveryStatusCommandHandler struct {
	uowFactory UoWFactory
	notifier   CompletionNotifier
	logger     *slog.Logger
}

// NewUpdateDeliveryStatusCommandHandler creates a handler for delivery status changes.
func NewUpdateDeliveryStatusCommandHandler(
	uowFactory UoWFactory,
	notifier CompletionNotifier,
	logger *slog.Logger,
) UpdateDeliveryStatusCommandHandler {
	return UpdateDeliveryStatusCommandHandler{
		uowFactory: uowFactory,
		notifier:   notifier,
		logger:     logger.With("component", "delivery_status"),
	}
}

// Handle processes the status change command.
//
// Moving a delivery out of the active band (to completed, failed, or back to
// pending) releases the assigned unit's reference to it; the unit keeps its
// own reported status.
func (h *UpdateDeliveryStatusCommandHandler) Handle(ctx context.Context, cmd UpdateDeliveryStatusCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	// Assignment couples two aggregates and needs the radio path.
	if cmd.Target() == delivery.Assigned {
		return ErrManualAssignNotAllowed
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

	previousUnitID := dlv.AssignedUnitID()
	now := time.Now().UTC()

	if err = h.applyTransition(dlv, cmd, now); err != nil {
		return err
	}

	if err = uow.DeliveryRepository().Update(ctx, dlv); err != nil {
		return err
	}

	var releasedDestination string
	if previousUnitID != nil && dlv.AssignedUnitID() == nil {
		releasedDestination, err = h.releaseUnit(ctx, uow, *previousUnitID, dlv, now)
		if err != nil {
			return err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	// Completing on the operator's side tells the unit to head back.
	if cmd.Target() == delivery.Completed && releasedDestination != "" {
		if err = h.notifier.SendTaskComplete(ctx, dlv.ID(), releasedDestination); err != nil {
			h.logger.Warn("task complete notification failed",
				"delivery_id", dlv.ID().String(), "destination", releasedDestination, "error", err)
		}
	}

	return nil
}

func (h *UpdateDeliveryStatusCommandHandler) applyTransition(
	dlv *delivery.Delivery,
	cmd UpdateDeliveryStatusCommand,
	now time.Time,
) error {
	switch cmd.Target() {
	case delivery.EnRoute:
		return dlv.MarkEnRoute(now)
	case delivery.Arrived:
		return dlv.MarkArrived(now)
	case delivery.Completed:
		return dlv.Complete(now)
	case delivery.Failed:
		return dlv.Fail(cmd.Reason(), now)
	case delivery.Pending:
		return dlv.Reopen(now)
	default:
		return errs.NewValueIsInvalidError("target status " + cmd.Target().String())
	}
}

// releaseUnit drops the unit's reference to the delivery and returns the
// unit's transport destination for a follow-up notification.
func (h *UpdateDeliveryStatusCommandHandler) releaseUnit(
	ctx context.Context,
	uow UoW,
	unitID string,
	dlv *delivery.Delivery,
	now time.Time,
) (string, error) {
	u, err := uow.UnitRepository().Get(ctx, unitID)
	if err != nil {
		// The unit row may have been removed; the delivery side is already consistent.
		if errors.Is(err, errs.ErrObjectNotFound) {
			return "", nil
		}
		return "", err
	}

	if u.AssignedDeliveryID() == nil || !u.AssignedDeliveryID().IsEqual(dlv.ID()) {
		return "", nil
	}

	u.ReleaseAssignment(now)
	if err := uow.UnitRepository().Update(ctx, u); err != nil {
		return "", err
	}
	return u.Destination(), nil
}
