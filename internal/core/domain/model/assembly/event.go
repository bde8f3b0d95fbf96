package assembly

import "time"

// EventKind discriminates the arms of the Event union.
type EventKind string

const (
	EventState  EventKind = "state"
	EventStatus EventKind = "status"
	EventLog    EventKind = "log"
)

// Event is a single entry on the assembly live stream. Exactly one arm is
// populated depending on Kind: State for "state" events, Status for "status"
// events and Message for "log" events.
type Event struct {
	Kind      EventKind     `json:"kind"`
	OrderID   string        `json:"orderId,omitempty"`
	State     WorkflowState `json:"-"`
	StateName string        `json:"state,omitempty"`
	Status    ReportedState `json:"-"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"ts"`
}

// NewStateEvent records an internal workflow state transition.
func NewStateEvent(orderID string, state WorkflowState) Event {
	return Event{
		Kind:      EventState,
		OrderID:   orderID,
		State:     state,
		StateName: state.String(),
		Timestamp: time.Now().UTC(),
	}
}

// NewStatusEvent records the externally reported order state.
func NewStatusEvent(orderID string, status ReportedState) Event {
	return Event{
		Kind:      EventStatus,
		OrderID:   orderID,
		Status:    status,
		Message:   status.String(),
		Timestamp: time.Now().UTC(),
	}
}

// NewLogEvent records a free-form progress message.
func NewLogEvent(orderID, message string) Event {
	return Event{
		Kind:      EventLog,
		OrderID:   orderID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}
