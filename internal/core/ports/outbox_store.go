package ports

import (
	"context"
	"time"
)

// OutboxRecord is one message staged for reliable dispatch. The send stage
// persists a record when a message enters SENDING, and the outbox drain later
// performs the delivery, completes the SENDING to SENT transition and marks
// the record dispatched. Payload holds the full serialized communication
// message so the drain can republish it without another lookup.
type OutboxRecord struct {
	MessageID    string
	Payload      string
	Headers      map[string]string
	CreatedAt    time.Time
	DispatchedAt *time.Time
}

// OutboxStore defines the persistence contract for the dispatch outbox.
type OutboxStore interface {
	// Save stages a record for dispatch. Saving the same MessageID twice is
	// a no-op that keeps the first record, which makes the send stage safe
	// to replay.
	Save(ctx context.Context, record OutboxRecord) error

	// MarkDispatched sets the record's DispatchedAt exactly once. Returns
	// errs.ErrObjectNotFound when no record exists for the id.
	MarkDispatched(ctx context.Context, messageID string) error

	// FindPending returns up to limit undispatched records ordered by
	// CreatedAt ascending, oldest first.
	FindPending(ctx context.Context, limit int) ([]OutboxRecord, error)
}
