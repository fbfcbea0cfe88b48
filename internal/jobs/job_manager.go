package jobs

import (
	"fmt"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	autoAssignJob   *AutoAssignJob
	offlineSweepJob *OfflineSweepJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	deliveryUoWFactory commands.DeliveryUoWFactory,
	assignHandler commands.AssignDeliveryCommandHandler,
	sweepHandler commands.MarkUnitsOfflineCommandHandler,
	silenceWindow time.Duration,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		autoAssignJob:   NewAutoAssignJob(deliveryUoWFactory, assignHandler, logger),
		offlineSweepJob: NewOfflineSweepJob(sweepHandler, silenceWindow, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.autoAssignJob.Start(); err != nil {
		return fmt.Errorf("failed to start auto assignment job: %w", err)
	}

	if err := jm.offlineSweepJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.autoAssignJob.Stop()
		return fmt.Errorf("failed to start offline sweep job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.offlineSweepJob.Stop()
	jm.autoAssignJob.Stop()
}
