package comms

import (
	"fmt"
	"time"
)

// EventType discriminates the three observability event kinds emitted per
// transition.
type EventType string

const (
	// EventState carries the new pipeline state of a message.
	EventState EventType = "state"
	// EventStatus carries the milestone reached by a message.
	EventStatus EventType = "status"
	// EventLog carries free-text progress information.
	EventLog EventType = "log"
)

// EventEnvelope is the observability record produced to the notifications
// channel and fanned out to external observers. It is write-only from the
// pipeline's perspective; nothing in the core reads envelopes back.
type EventEnvelope struct {
	ID            string         `json:"id"`
	EventType     EventType      `json:"eventType"`
	Timestamp     time.Time      `json:"timestamp"`
	MessageID     string         `json:"messageId"`
	CorrelationID string         `json:"correlationId,omitempty"`
	Data          map[string]any `json:"data"`
}

// newEnvelope builds an envelope for one transition of msg. The ID is a
// composite of message id, event type and state so replays of the same
// transition produce the same envelope id.
func newEnvelope(msg Message, eventType EventType, now time.Time, data map[string]any) EventEnvelope {
	return EventEnvelope{
		ID:            fmt.Sprintf("%s:%s:%s", msg.MessageID, eventType, msg.State),
		EventType:     eventType,
		Timestamp:     now,
		MessageID:     msg.MessageID,
		CorrelationID: msg.CorrelationID,
		Data:          data,
	}
}
