package memstore

import (
	"context"
	"sync"
	"time"

	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/pkg/errs"
)

// StateTransition is one raw workflow transition kept for inspection.
type StateTransition struct {
	OrderID string
	State   string
	At      time.Time
}

// QueueEvent is one admission-queue event kept for inspection.
type QueueEvent struct {
	Event string
	Depth int
	At    time.Time
}

// MetricsSink keeps order metrics in memory.
type MetricsSink struct {
	mu          sync.Mutex
	metrics     map[string]*assembly.OrderMetrics
	transitions []StateTransition
	queueEvents []QueueEvent
}

// NewMetricsSink creates an empty sink.
func NewMetricsSink() *MetricsSink {
	return &MetricsSink{metrics: make(map[string]*assembly.OrderMetrics)}
}

func (s *MetricsSink) row(orderID string) *assembly.OrderMetrics {
	m, ok := s.metrics[orderID]
	if !ok {
		m = &assembly.OrderMetrics{OrderID: orderID}
		s.metrics[orderID] = m
	}
	return m
}

// MarkOrderSent records the sent timestamp, creating the row when needed.
func (s *MetricsSink) MarkOrderSent(_ context.Context, orderID string, sentAt time.Time, testRunID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.row(orderID)
	m.SentAt = &sentAt
	m.TestRunID = testRunID
	return nil
}

// MarkOrderConfirmed records the confirmation timestamp and latency.
func (s *MetricsSink) MarkOrderConfirmed(_ context.Context, orderID string, confirmedAt time.Time, latencyMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.row(orderID)
	m.ConfirmationAt = &confirmedAt
	m.ConfirmationLatencyMs = &latencyMs
	return nil
}

// MarkOrderAccepted records the acceptance timestamp.
func (s *MetricsSink) MarkOrderAccepted(_ context.Context, orderID string, acceptedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.row(orderID).AcceptedAt = &acceptedAt
	return nil
}

// MarkAssemblingStarted records the assembly start and the accepted-to-
// assembling duration when known.
func (s *MetricsSink) MarkAssemblingStarted(_ context.Context, orderID string, startedAt time.Time, acceptedToAssemblingMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.row(orderID)
	m.AssemblingStartedAt = &startedAt
	if acceptedToAssemblingMs >= 0 {
		m.AcceptedToAssemblingMs = &acceptedToAssemblingMs
	}
	return nil
}

// MarkTransportFulfilled records the transport arrival timestamp.
func (s *MetricsSink) MarkTransportFulfilled(_ context.Context, orderID string, fulfilledAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.row(orderID).TransportFulfilledAt = &fulfilledAt
	return nil
}

// MarkAssemblyCompleted records the assembly completion timestamp.
func (s *MetricsSink) MarkAssemblyCompleted(_ context.Context, orderID string, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.row(orderID).AssemblyCompletedAt = &completedAt
	return nil
}

// RecordFinalState stores the terminal reported state of the order.
func (s *MetricsSink) RecordFinalState(_ context.Context, order *assembly.Order, state assembly.ReportedState) error {
	if err := order.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.row(order.ID()).FinalState = state.String()
	return nil
}

// RecordStateTransition appends one raw workflow transition.
func (s *MetricsSink) RecordStateTransition(_ context.Context, orderID, state string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transitions = append(s.transitions, StateTransition{OrderID: orderID, State: state, At: at})
	return nil
}

// RecordQueueEvent appends one admission-queue event.
func (s *MetricsSink) RecordQueueEvent(_ context.Context, event string, depth int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queueEvents = append(s.queueEvents, QueueEvent{Event: event, Depth: depth, At: at})
	return nil
}

// Get returns a copy of the metrics collected for an order.
func (s *MetricsSink) Get(_ context.Context, orderID string) (assembly.OrderMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.metrics[orderID]
	if !ok {
		return assembly.OrderMetrics{}, errs.NewObjectNotFoundError("order metrics", orderID)
	}
	return *m, nil
}

// Transitions returns a copy of the recorded workflow transitions.
func (s *MetricsSink) Transitions() []StateTransition {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]StateTransition, len(s.transitions))
	copy(out, s.transitions)
	return out
}

// QueueEvents returns a copy of the recorded queue events.
func (s *MetricsSink) QueueEvents() []QueueEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]QueueEvent, len(s.queueEvents))
	copy(out, s.queueEvents)
	return out
}
