package assembly

import (
	"fmt"

	"mfps/internal/pkg/errs"
)

// WorkflowState is the internal state of the assembly workflow while it
// drives a single order from blueprint to completed assembly.
//
// Happy path:
//
//	IDLE -> CREATING_ORDER -> ORDER_CREATED -> SENDING_ORDER
//	     -> RECEIVING_CONFIRMATION -> EVALUATING_CONFIRMATION -> ORDER_ACCEPTED
//	     -> WAITING_FOR_TRANSPORT -> ASSEMBLING -> ASSEMBLY_COMPLETED
//	     -> NOTIFYING_STATUS -> IDLE
//
// Any wait can instead end in ORDER_DENIED, ORDER_TIMED_OUT or
// ASSEMBLY_TIMED_OUT before the workflow notifies and returns to IDLE.
type WorkflowState int

const (
	// StateWorkflowUnknown represents an invalid or undefined workflow state.
	StateWorkflowUnknown WorkflowState = iota

	StateIdle
	StateCreatingOrder
	StateOrderCreated
	StateSendingOrder
	StateReceivingConfirmation
	StateEvaluatingConfirmation
	StateOrderAccepted
	StateOrderDenied
	StateOrderTimedOut
	StateWaitingForTransport
	StateAssembling
	StateAssemblyTimedOut
	StateAssemblyCompleted
	StateNotifyingStatus
)

func getWorkflowStateStrings() map[WorkflowState]string {
	return map[WorkflowState]string{
		StateWorkflowUnknown:        "UNKNOWN",
		StateIdle:                   "IDLE",
		StateCreatingOrder:          "CREATING_ORDER",
		StateOrderCreated:           "ORDER_CREATED",
		StateSendingOrder:           "SENDING_ORDER",
		StateReceivingConfirmation:  "RECEIVING_CONFIRMATION",
		StateEvaluatingConfirmation: "EVALUATING_CONFIRMATION",
		StateOrderAccepted:          "ORDER_ACCEPTED",
		StateOrderDenied:            "ORDER_DENIED",
		StateOrderTimedOut:          "ORDER_TIMED_OUT",
		StateWaitingForTransport:    "WAITING_FOR_TRANSPORT",
		StateAssembling:             "ASSEMBLING",
		StateAssemblyTimedOut:       "ASSEMBLY_TIMED_OUT",
		StateAssemblyCompleted:      "ASSEMBLY_COMPLETED",
		StateNotifyingStatus:        "NOTIFYING_STATUS",
	}
}

// String returns the wire representation of the workflow state, matching the
// values published on the event stream.
func (s WorkflowState) String() string {
	if str, ok := getWorkflowStateStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// ReportedState is the order outcome reported to the outside world. It is a
// coarser view than WorkflowState: external consumers only ever see whether
// the order is accepted, denied, in progress or completed.
type ReportedState int

const (
	ReportedUnknown ReportedState = iota
	ReportedAccepted
	ReportedDenied
	ReportedInProgress
	ReportedCompleted
)

func getReportedStateStrings() map[ReportedState]string {
	return map[ReportedState]string{
		ReportedUnknown:    "UNKNOWN",
		ReportedAccepted:   "ACCEPTED",
		ReportedDenied:     "DENIED",
		ReportedInProgress: "IN_PROGRESS",
		ReportedCompleted:  "COMPLETED",
	}
}

func getValidReportedStateStrings() map[ReportedState]string {
	//nolint:exhaustive // ReportedUnknown is intentionally excluded as it's invalid
	return map[ReportedState]string{
		ReportedAccepted:   "ACCEPTED",
		ReportedDenied:     "DENIED",
		ReportedInProgress: "IN_PROGRESS",
		ReportedCompleted:  "COMPLETED",
	}
}

// Validate checks if the ReportedState value is valid.
func (s ReportedState) Validate() error {
	if _, ok := getValidReportedStateStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("reported state is invalid",
			fmt.Errorf("%d is not a valid reported state", s))
	}
	return nil
}

// String returns the wire representation of the reported state.
func (s ReportedState) String() string {
	if str, ok := getReportedStateStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// ReportedStateFromString parses a wire value into a ReportedState.
func ReportedStateFromString(raw string) (ReportedState, error) {
	for state, str := range getValidReportedStateStrings() {
		if str == raw {
			return state, nil
		}
	}
	return ReportedUnknown, errs.NewValueIsInvalidErrorWithCause("reported state is invalid",
		fmt.Errorf("%q is not a valid reported state", raw))
}

// ValidationOutcome is the result of the post-assembly quality check.
type ValidationOutcome int

const (
	OutcomeUnknown ValidationOutcome = iota
	OutcomeValid
	OutcomeInvalid
)

// String returns the wire representation of the validation outcome.
func (o ValidationOutcome) String() string {
	switch o {
	case OutcomeValid:
		return "VALID"
	case OutcomeInvalid:
		return "INVALID"
	default:
		return "UNKNOWN"
	}
}
