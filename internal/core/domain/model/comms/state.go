package comms

import (
	"encoding/json"
	"fmt"

	"mfps/internal/pkg/errs"
)

// State represents the lifecycle state of a communication message.
// It implements a state machine with defined transitions to ensure
// messages follow the correct pipeline workflow.
//
// State transitions:
//
//	Received ──> Connected ──> Sending ──> Sent ──> Notified
//	    │            │            │          │
//	    └────────────┴────────────┴──────────┴────> Failed
//
// StateNotified and StateFailed are terminal. State is a value object that validates
// state transitions and provides string representations for the wire format.
type State int

const (
	// StateUnknown represents an invalid or undefined state.
	// This value (0) helps catch uninitialized State values.
	StateUnknown State = iota

	// StateReceived is the initial state after a message enters the pipeline.
	StateReceived

	// StateConnected indicates the message has been enriched with metadata.
	StateConnected

	// StateSending indicates delivery has started and an outbox record exists.
	StateSending

	// StateSent indicates the external delivery has been performed.
	StateSent

	// StateNotified indicates a consumer subsystem observed the delivery.
	// Terminal success state.
	StateNotified

	// StateFailed indicates the message left the pipeline with an error.
	// Terminal failure state.
	StateFailed
)

// getStateStrings returns a map of State values to their wire representations.
func getStateStrings() map[State]string {
	return map[State]string{
		StateUnknown:   "UNKNOWN",
		StateReceived:  "RECEIVED",
		StateConnected: "CONNECTED",
		StateSending:   "SENDING",
		StateSent:      "SENT",
		StateNotified:  "NOTIFIED",
		StateFailed:    "FAILED",
	}
}

// getValidStateStrings returns a map of only valid State values.
func getValidStateStrings() map[State]string {
	//nolint:exhaustive // StateUnknown is intentionally excluded as it's invalid
	return map[State]string{
		StateReceived:  "RECEIVED",
		StateConnected: "CONNECTED",
		StateSending:   "SENDING",
		StateSent:      "SENT",
		StateNotified:  "NOTIFIED",
		StateFailed:    "FAILED",
	}
}

// Validate checks if the State value is valid.
func (s State) Validate() error {
	if _, ok := getValidStateStrings()[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("state is invalid", fmt.Errorf("%d is not a valid state", s))
	}
	return nil
}

// String returns the wire representation of the state.
func (s State) String() string {
	if str, ok := getStateStrings()[s]; ok {
		return str
	}
	return getStateStrings()[StateUnknown]
}

// IsTerminal reports whether no further transition is allowed from s.
func (s State) IsTerminal() bool {
	return s == StateNotified || s == StateFailed
}

// StateFromString parses a wire representation back into a State.
func StateFromString(raw string) (State, error) {
	for state, str := range getValidStateStrings() {
		if str == raw {
			return state, nil
		}
	}
	return StateUnknown, errs.NewValueIsInvalidErrorWithCause("state", fmt.Errorf("%q is not a valid state", raw))
}

// MarshalJSON encodes the state as its wire string.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the state from its wire string.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	state, err := StateFromString(raw)
	if err != nil {
		return err
	}
	*s = state
	return nil
}

// FailureReason tags the cause carried by a StateFailed message.
type FailureReason string

const (
	// FailureEnrichmentFailed marks messages whose enrichment step failed.
	FailureEnrichmentFailed FailureReason = "enrichment_failed"
	// FailureDeliveryFailed marks messages whose simulated delivery failed.
	FailureDeliveryFailed FailureReason = "delivery_failed"
)

// String returns the reason tag.
func (r FailureReason) String() string {
	return string(r)
}
