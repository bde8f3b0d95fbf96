package assemblyflow

import (
	"context"
	"time"

	"mfps/internal/core/domain/model/assembly"
)

// Ports bundles every side effect a workflow run performs. The orchestrator
// builds one Ports value per order; tests substitute individual functions.
//
// The three Await functions return the channels the workflow races against
// its timeouts. Each channel carries at most one signal per order.
type Ports struct {
	// SendOrder publishes the TRANSPORT_ORDER message for the order,
	// correlated by order id.
	SendOrder func(ctx context.Context, order *assembly.Order) error

	// AwaitConfirmation yields the transport confirmation verdict.
	AwaitConfirmation func() <-chan bool

	// AwaitArrival yields the transport arrival signal.
	AwaitArrival func() <-chan struct{}

	// AwaitValidation yields the post-assembly validation outcome.
	AwaitValidation func() <-chan assembly.ValidationOutcome

	// NotifyStatus reports an externally visible order state.
	NotifyStatus func(ctx context.Context, orderID string, state assembly.ReportedState)

	// AcquirePermit blocks until the line's assembly slot is free or the
	// context ends. ReleasePermit frees the slot again; the workflow calls
	// it on every exit path after a successful acquire.
	AcquirePermit func(ctx context.Context, line assembly.Location) error
	ReleasePermit func(line assembly.Location)

	// Emit publishes one event to the live stream. Never blocks.
	Emit func(event assembly.Event)

	// Milestone recorders, fire-and-forget: implementations log failures
	// and never propagate them.
	MarkSent       func(ctx context.Context, orderID string, at time.Time)
	MarkConfirmed  func(ctx context.Context, orderID string, at time.Time, latencyMs int64)
	MarkAccepted   func(ctx context.Context, orderID string, at time.Time)
	MarkAssembling func(ctx context.Context, orderID string, at time.Time, acceptedToAssemblingMs int64)
	MarkCompleted  func(ctx context.Context, orderID string, at time.Time)
	RecordFinal    func(ctx context.Context, order *assembly.Order, state assembly.ReportedState)
}
