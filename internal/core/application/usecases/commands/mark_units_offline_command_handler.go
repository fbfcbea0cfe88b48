package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// MarkUnitsOfflineCommandHandler runs the liveness sweep. Units that stayed
// silent past the window go offline, and any delivery such a unit was working
// on fails so it can be re-opened and re-assigned.
type MarkUnitsOfflineCommandHandler struct {
	uowFactory UoWFactory
	logger     *slog.Logger
}

// NewMarkUnitsOfflineCommandHandler creates a handler for the liveness sweep.
func NewMarkUnitsOfflineCommandHandler(uowFactory UoWFactory, logger *slog.Logger) MarkUnitsOfflineCommandHandler {
	return MarkUnitsOfflineCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "liveness_sweep"),
	}
}

// Handle processes one sweep. Each unit is swept in its own transaction so a
// conflict on one row (a report racing the sweep) never blocks the rest.
func (h *MarkUnitsOfflineCommandHandler) Handle(ctx context.Context, cmd MarkUnitsOfflineCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	cutoff := now.Add(-cmd.SilenceWindow())

	silentIDs, err := h.collectSilentUnitIDs(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, unitID := range silentIDs {
		if err := h.sweepUnit(ctx, unitID, now); err != nil {
			// A lost race means the unit just reported; it is alive.
			if errors.Is(err, errs.ErrConflict) {
				h.logger.Info("unit reported during sweep, skipping", "unit_id", unitID)
				continue
			}
			return err
		}
	}

	return nil
}

func (h *MarkUnitsOfflineCommandHandler) collectSilentUnitIDs(ctx context.Context, cutoff time.Time) ([]string, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	silent, err := uow.UnitRepository().GetAllSilentSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(silent))
	for _, u := range silent {
		ids = append(ids, u.ID())
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

func (h *MarkUnitsOfflineCommandHandler) sweepUnit(ctx context.Context, unitID string, now time.Time) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	u, err := uow.UnitRepository().Get(ctx, unitID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil
		}
		return err
	}

	workingOn := u.AssignedDeliveryID()
	u.MarkOffline(now)

	if err = uow.UnitRepository().Update(ctx, u); err != nil {
		return err
	}

	if workingOn != nil {
		if err = h.failAbandonedDelivery(ctx, uow, *workingOn, unitID, now); err != nil {
			return err
		}
	}

	h.logger.Warn("unit went offline", "unit_id", unitID, "had_delivery", workingOn != nil)
	return uow.Commit(ctx)
}

func (h *MarkUnitsOfflineCommandHandler) failAbandonedDelivery(
	ctx context.Context,
	uow UoW,
	deliveryID kernel.UUID,
	unitID string,
	now time.Time,
) error {
	dlv, err := uow.DeliveryRepository().Get(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			return nil
		}
		return err
	}

	if err = dlv.Fail("unit "+unitID+" went offline", now); err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			return nil
		}
		return err
	}

	return uow.DeliveryRepository().Update(ctx, dlv)
}
