package jobs

import (
	"context"
	"log/slog"

	"mfps/internal/core/application/pipeline"

	"github.com/robfig/cron/v3"
)

// OutboxDrainJob periodically delivers pending outbox records, completing
// the SENDING to SENT transition of staged messages.
type OutboxDrainJob struct {
	sendStage *pipeline.SendStage
	batchSize int
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewOutboxDrainJob creates a new drain job over the send stage.
// batchSize caps the records delivered per tick.
func NewOutboxDrainJob(sendStage *pipeline.SendStage, batchSize int, logger *slog.Logger) *OutboxDrainJob {
	return &OutboxDrainJob{
		sendStage: sendStage,
		batchSize: batchSize,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger.With("component", "outbox_drain_job"),
	}
}

// Start begins the drain job to run every second.
func (j *OutboxDrainJob) Start() error {
	_, err := j.cron.AddFunc("* * * * * *", func() {
		ctx := context.Background()

		delivered, err := j.sendStage.DrainOutbox(ctx, j.batchSize)
		if err != nil {
			j.logger.ErrorContext(ctx, "Outbox drain job failed", "error", err)
			return
		}
		if delivered > 0 {
			j.logger.InfoContext(ctx, "Outbox records delivered", "count", delivered)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Outbox drain job started (running every second)")
	return nil
}

// Stop stops the drain job.
func (j *OutboxDrainJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Outbox drain job stopped")
}
