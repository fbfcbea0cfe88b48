package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"dispatch/internal/core/domain/model/delivery"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/unit"
	"dispatch/internal/pkg/errs"
)

// RecordUnitReportCommandHandler processes inbound radio reports from units.
//
// Reports drive both state machines: the unit mirrors what it said, and when
// the unit is working on a delivery, progress reports cascade to the delivery
// in the same transaction. Units that report for the first time are registered
// automatically, and a report from an offline or errored unit revives it.
type RecordUnitReportCommandHandler struct {
	uowFactory UoWFactory
	logger     *slog.Logger
}

// NewRecordUnitReportCommandHandler creates a handler for inbound unit reports.
func NewRecordUnitReportCommandHandler(uowFactory UoWFactory, logger *slog.Logger) RecordUnitReportCommandHandler {
	return RecordUnitReportCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "unit_report"),
	}
}

// Handle processes one report.
//
// Reports the radio may replay are tolerated: a duplicate status is a no-op
// transition, and a stale progress report that no longer fits the delivery's
// state machine is logged and dropped rather than failing the whole report.
func (h *RecordUnitReportCommandHandler) Handle(ctx context.Context, cmd RecordUnitReportCommand) error {
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

	now := time.Now().UTC()

	u, registered, err := h.getOrRegisterUnit(ctx, uow, cmd.UnitID(), now)
	if err != nil {
		return err
	}

	u.Touch(now)
	u.ClearStaleError(now)

	if cmd.Position() != nil {
		if err = u.RecordPosition(*cmd.Position(), now); err != nil {
			return err
		}
	}

	// The reference is cleared when a unit stops working, so capture it first.
	workingOn := u.AssignedDeliveryID()

	if cmd.ReportedStatus() != nil {
		if err = h.applyStatusReport(ctx, uow, u, workingOn, *cmd.ReportedStatus(), now); err != nil {
			return err
		}
	}

	if cmd.TaskComplete() {
		if err = h.completeTask(ctx, uow, u, workingOn, now); err != nil {
			return err
		}
	}

	if registered {
		err = uow.UnitRepository().Add(ctx, u)
	} else {
		err = uow.UnitRepository().Update(ctx, u)
	}
	if err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func (h *RecordUnitReportCommandHandler) getOrRegisterUnit(
	ctx context.Context,
	uow UoW,
	unitID string,
	now time.Time,
) (*unit.Unit, bool, error) {
	existing, err := uow.UnitRepository().Get(ctx, unitID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, errs.ErrObjectNotFound) {
		return nil, false, err
	}

	registered, err := unit.NewUnit(unitID, nil, now)
	if err != nil {
		return nil, false, err
	}

	h.logger.Info("registered new unit from first report", "unit_id", unitID)
	return registered, true, nil
}

func (h *RecordUnitReportCommandHandler) applyStatusReport(
	ctx context.Context,
	uow UoW,
	u *unit.Unit,
	workingOn *kernel.UUID,
	reported unit.Status,
	now time.Time,
) error {
	if err := u.ChangeStatus(reported, now); err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			h.logger.Warn("dropping impossible status report",
				"unit_id", u.ID(), "current", u.Status().String(), "reported", reported.String())
			return nil
		}
		return err
	}

	if workingOn == nil {
		return nil
	}

	switch reported {
	case unit.EnRoute:
		return h.progressDelivery(ctx, uow, *workingOn, delivery.EnRoute, "", now)
	case unit.ArrivedDest:
		return h.progressDelivery(ctx, uow, *workingOn, delivery.Arrived, "", now)
	case unit.Error:
		return h.progressDelivery(ctx, uow, *workingOn, delivery.Failed, "unit reported error", now)
	default:
		return nil
	}
}

func (h *RecordUnitReportCommandHandler) completeTask(
	ctx context.Context,
	uow UoW,
	u *unit.Unit,
	workingOn *kernel.UUID,
	now time.Time,
) error {
	if workingOn == nil {
		h.logger.Warn("task completion from a unit with no assignment", "unit_id", u.ID())
		return nil
	}

	u.ReleaseAssignment(now)
	return h.progressDelivery(ctx, uow, *workingOn, delivery.Completed, "", now)
}

func (h *RecordUnitReportCommandHandler) progressDelivery(
	ctx context.Context,
	uow UoW,
	deliveryID kernel.UUID,
	target delivery.Status,
	reason string,
	now time.Time,
) error {
	dlv, err := uow.DeliveryRepository().Get(ctx, deliveryID)
	if err != nil {
		if errors.Is(err, errs.ErrObjectNotFound) {
			h.logger.Warn("unit references a missing delivery", "delivery_id", deliveryID.String())
			return nil
		}
		return err
	}

	switch target {
	case delivery.EnRoute:
		err = dlv.MarkEnRoute(now)
	case delivery.Arrived:
		err = dlv.MarkArrived(now)
	case delivery.Completed:
		err = dlv.Complete(now)
	case delivery.Failed:
		err = dlv.Fail(reason, now)
	}
	if err != nil {
		if errors.Is(err, errs.ErrInvalidTransition) {
			h.logger.Warn("dropping stale progress report",
				"delivery_id", deliveryID.String(), "current", dlv.Status().String(), "target", target.String())
			return nil
		}
		return err
	}

	return uow.DeliveryRepository().Update(ctx, dlv)
}
