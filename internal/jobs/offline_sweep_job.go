package jobs

import (
	"context"
	"log/slog"
	"time"

	"dispatch/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// OfflineSweepJob runs the fleet liveness sweep. Units silent past the
// configured window are marked offline and their deliveries re-opened.
type OfflineSweepJob struct {
	handler       commands.MarkUnitsOfflineCommandHandler
	silenceWindow time.Duration
	cron          *cron.Cron
	logger        *slog.Logger
}

// NewOfflineSweepJob creates a job that sweeps silent units every ten seconds.
// The silence window decides how long a unit may stay quiet before it is
// considered unreachable.
func NewOfflineSweepJob(
	handler commands.MarkUnitsOfflineCommandHandler,
	silenceWindow time.Duration,
	logger *slog.Logger,
) *OfflineSweepJob {
	return &OfflineSweepJob{
		handler:       handler,
		silenceWindow: silenceWindow,
		cron:          cron.New(cron.WithSeconds()),
		logger:        logger.With("component", "offline_sweep_job"),
	}
}

// Start begins the sweep job to run every ten seconds.
func (j *OfflineSweepJob) Start() error {
	_, err := j.cron.AddFunc("*/10 * * * * *", func() {
		ctx := context.Background()
		cmd, err := commands.NewMarkUnitsOfflineCommand(j.silenceWindow)
		if err != nil {
			j.logger.ErrorContext(ctx, "Offline sweep command invalid", "error", err)
			return
		}

		if err := j.handler.Handle(ctx, cmd); err != nil {
			j.logger.ErrorContext(ctx, "Offline sweep job failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Offline sweep job started (running every ten seconds)",
		"silence_window", j.silenceWindow.String())
	return nil
}

// Stop stops the sweep job.
func (j *OfflineSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Offline sweep job stopped")
}
