package jobs

import (
	"context"
	"errors"
	"log/slog"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

// AutoAssignJob matches pending deliveries with idle units.
// Runs every second so a delivery never waits longer than it has to.
type AutoAssignJob struct {
	uowFactory commands.DeliveryUoWFactory
	handler    commands.AssignDeliveryCommandHandler
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewAutoAssignJob creates a job that dispatches pending deliveries.
// Uses AssignDeliveryCommandHandler with automatic unit selection.
func NewAutoAssignJob(
	uowFactory commands.DeliveryUoWFactory,
	handler commands.AssignDeliveryCommandHandler,
	logger *slog.Logger,
) *AutoAssignJob {
	return &AutoAssignJob{
		uowFactory: uowFactory,
		handler:    handler,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "auto_assign_job"),
	}
}

// Start begins the auto assignment job to run every second.
func (j *AutoAssignJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		ctx := context.Background()
		if err := j.assignPending(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Auto assignment job failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Auto assignment job started (running every second)")
	return nil
}

// Stop stops the auto assignment job.
func (j *AutoAssignJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Auto assignment job stopped")
}

func (j *AutoAssignJob) assignPending(ctx context.Context) error {
	pending, err := j.collectPendingIDs(ctx)
	if err != nil {
		return err
	}

	for _, deliveryID := range pending {
		cmd, err := commands.NewAssignDeliveryCommand(deliveryID, "")
		if err != nil {
			return err
		}

		if err := j.handler.Handle(ctx, cmd); err != nil {
			// No idle unit means the rest of the queue cannot be placed either.
			if errors.Is(err, services.ErrUnitNotFound) {
				return nil
			}
			// A lost race means an operator assigned it first.
			if errors.Is(err, errs.ErrConflict) || errors.Is(err, errs.ErrInvalidTransition) {
				continue
			}
			j.logger.ErrorContext(ctx, "Delivery assignment failed",
				"delivery_id", deliveryID.String(), "error", err)
		}
	}

	return nil
}

func (j *AutoAssignJob) collectPendingIDs(ctx context.Context) ([]kernel.UUID, error) {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	pending, err := uow.DeliveryRepository().GetAllPending(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]kernel.UUID, 0, len(pending))
	for _, dlv := range pending {
		ids = append(ids, dlv.ID())
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}
