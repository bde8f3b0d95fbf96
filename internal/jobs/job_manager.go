package jobs

import (
	"fmt"
	"log/slog"

	"mfps/internal/core/application/pipeline"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	outboxDrainJob *OutboxDrainJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(sendStage *pipeline.SendStage, drainBatchSize int, logger *slog.Logger) *JobManager {
	return &JobManager{
		outboxDrainJob: NewOutboxDrainJob(sendStage, drainBatchSize, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.outboxDrainJob.Start(); err != nil {
		return fmt.Errorf("failed to start outbox drain job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.outboxDrainJob.Stop()
}
