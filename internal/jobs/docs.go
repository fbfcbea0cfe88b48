// Package jobs provides scheduled background tasks for the dispatch system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required for the dispatch service.
//
// # Available Jobs
//
// 1. AutoAssignJob - Runs every second to match pending deliveries with idle units
// 2. OfflineSweepJob - Runs every ten seconds to mark silent units offline and re-open their deliveries
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required handlers
//	jobManager := jobs.NewJobManager(uowFactory, assignHandler, sweepHandler, silenceWindow, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
// - Assignment job ignores the no-idle-unit case, it is an expected business scenario
// - Sweep job logs all errors as they indicate system issues
// - Failed job starts will stop any already running jobs
package jobs
