// Package jobs provides scheduled background tasks for the factory system.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required by the order-fulfillment pipeline.
//
// # Available Jobs
//
// 1. OutboxDrainJob - Runs every second to deliver pending outbox records and
// complete the SENDING to SENT transition of communication messages
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required stages
//	jobManager := jobs.NewJobManager(sendStage, drainBatchSize, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Scheduling
//
// The drain job uses the cron expression "* * * * * *" which means it runs every
// second. A crash between the outbox write and the delivery is recovered on the
// next tick, which preserves at-least-once delivery.
//
// # Error Handling
//
// Drain failures are logged and retried on the next tick; they never stop the
// scheduler.
package jobs
