package transport

// WorkflowState is the internal state of the transport workflow while it
// handles a single order: receive, confirm, acquire a vehicle, fulfill.
type WorkflowState int

const (
	// StateWorkflowUnknown represents an invalid or undefined workflow state.
	StateWorkflowUnknown WorkflowState = iota

	StateIdle
	StateReceivingOrder
	StateReceivedOrder
	StateAwaitingConfirmation
	StateEvaluatingConfirmation
	StateCheckingAvailability
	StateOrderAccepted
	StateAcquiringVehicle
	StateVehicleAcquired
	StateFulfillingOrder
	StateOrderFulfilled
	StateOrderCompleted
	StateOrderDenied
	StateOrderTimedOut
	StateVehicleUnavailable
)

func getWorkflowStateStrings() map[WorkflowState]string {
	return map[WorkflowState]string{
		StateWorkflowUnknown:        "UNKNOWN",
		StateIdle:                   "IDLE",
		StateReceivingOrder:         "RECEIVING_ORDER",
		StateReceivedOrder:          "RECEIVED_ORDER",
		StateAwaitingConfirmation:   "AWAITING_CONFIRMATION",
		StateEvaluatingConfirmation: "EVALUATING_CONFIRMATION",
		StateCheckingAvailability:   "CHECKING_AVAILABILITY",
		StateOrderAccepted:          "ORDER_ACCEPTED",
		StateAcquiringVehicle:       "ACQUIRING_AGV",
		StateVehicleAcquired:        "AGV_ACQUIRED",
		StateFulfillingOrder:        "FULFILLING_ORDER",
		StateOrderFulfilled:         "ORDER_FULFILLED",
		StateOrderCompleted:         "ORDER_COMPLETED",
		StateOrderDenied:            "ORDER_DENIED",
		StateOrderTimedOut:          "ORDER_TIMED_OUT",
		StateVehicleUnavailable:     "AGV_UNAVAILABLE",
	}
}

// String returns the wire representation of the workflow state.
func (s WorkflowState) String() string {
	if str, ok := getWorkflowStateStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}
