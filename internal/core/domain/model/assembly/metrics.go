package assembly

import "time"

// OrderMetrics collects the latency milestones of a single order. Fields are
// pointers because most of them are only known once the corresponding
// milestone has been reached.
type OrderMetrics struct {
	OrderID                string
	SentAt                 *time.Time
	ConfirmationAt         *time.Time
	ConfirmationLatencyMs  *int64
	AcceptedAt             *time.Time
	AssemblingStartedAt    *time.Time
	AcceptedToAssemblingMs *int64
	TransportFulfilledAt   *time.Time
	AssemblyCompletedAt    *time.Time
	FinalState             string
	TestRunID              string
}

// Result is the terminal outcome of one assembly workflow run: the order it
// processed, the workflow state it ended in and the state reported outside.
type Result struct {
	Order         *Order
	FinalState    WorkflowState
	ReportedState ReportedState
}
