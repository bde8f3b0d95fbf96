// Package memstore provides in-memory implementations of the OutboxStore and
// MetricsSink ports. They back the default wiring and the unit tests; the
// postgres adapters provide the durable equivalents.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"mfps/internal/core/ports"
	"mfps/internal/pkg/errs"
)

// OutboxStore keeps outbox records in a map guarded by a mutex.
type OutboxStore struct {
	mu      sync.Mutex
	records map[string]ports.OutboxRecord
}

// NewOutboxStore creates an empty store.
func NewOutboxStore() *OutboxStore {
	return &OutboxStore{records: make(map[string]ports.OutboxRecord)}
}

// Save stores the record unless one already exists for its message id.
func (s *OutboxStore) Save(_ context.Context, record ports.OutboxRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.MessageID]; exists {
		return nil
	}
	s.records[record.MessageID] = record
	return nil
}

// MarkDispatched stamps the record's dispatch time exactly once.
func (s *OutboxStore) MarkDispatched(_ context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[messageID]
	if !exists {
		return errs.NewObjectNotFoundError("outbox record", messageID)
	}
	if record.DispatchedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	record.DispatchedAt = &now
	s.records[messageID] = record
	return nil
}

// FindPending returns up to limit undispatched records, oldest first.
func (s *OutboxStore) FindPending(_ context.Context, limit int) ([]ports.OutboxRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make([]ports.OutboxRecord, 0, len(s.records))
	for _, record := range s.records {
		if record.DispatchedAt == nil {
			pending = append(pending, record)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}
