package ports

import (
	"context"
	"time"

	"mfps/internal/core/domain/model/assembly"
)

// MetricsSink defines the persistence contract for order latency metrics.
// Sink failures are never allowed to fail the workflow: callers log and
// continue when a mark call returns an error.
type MetricsSink interface {
	// MarkOrderSent records the moment the transport order left the assembly
	// subsystem. Creates the metrics row when it does not exist yet.
	MarkOrderSent(ctx context.Context, orderID string, sentAt time.Time, testRunID string) error

	// MarkOrderConfirmed records the confirmation moment and the latency
	// since the order was sent.
	MarkOrderConfirmed(ctx context.Context, orderID string, confirmedAt time.Time, latencyMs int64) error

	// MarkOrderAccepted records the moment the acceptance was evaluated.
	MarkOrderAccepted(ctx context.Context, orderID string, acceptedAt time.Time) error

	// MarkAssemblingStarted records the moment assembly began and the time
	// spent between acceptance and assembly. A negative duration means the
	// acceptance moment is unknown and only the timestamp is stored.
	MarkAssemblingStarted(ctx context.Context, orderID string, startedAt time.Time, acceptedToAssemblingMs int64) error

	// MarkTransportFulfilled records the moment the transport subsystem
	// reported arrival at the assembly line.
	MarkTransportFulfilled(ctx context.Context, orderID string, fulfilledAt time.Time) error

	// MarkAssemblyCompleted records the moment assembly and validation
	// finished successfully.
	MarkAssemblyCompleted(ctx context.Context, orderID string, completedAt time.Time) error

	// RecordFinalState stores the terminal reported state of the order.
	RecordFinalState(ctx context.Context, order *assembly.Order, state assembly.ReportedState) error

	// RecordStateTransition stores one raw workflow state transition.
	RecordStateTransition(ctx context.Context, orderID, state string, at time.Time) error

	// RecordQueueEvent stores one admission-queue event (enqueued, drained,
	// rejected) together with the queue depth at that moment.
	RecordQueueEvent(ctx context.Context, event string, depth int, at time.Time) error

	// Get returns the metrics collected for an order. Returns
	// errs.ErrObjectNotFound when the order was never recorded.
	Get(ctx context.Context, orderID string) (assembly.OrderMetrics, error)
}
