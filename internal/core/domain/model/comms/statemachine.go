package comms

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"mfps/internal/core/domain/model/kernel"
	"mfps/internal/pkg/errs"
)

// ErrIllegalTransition is the base error for stage operations invoked from the
// wrong source state. These indicate a wiring bug, not a runtime condition,
// and therefore fail loudly instead of being coerced.
var ErrIllegalTransition = errors.New("illegal state transition")

// IllegalTransitionError reports an attempt to run a transition from a state
// other than the one it requires.
type IllegalTransitionError struct {
	Operation string
	From      State
	Required  State
}

// Error formats the error message.
func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("%s: %s requires state %s, message is in %s",
		ErrIllegalTransition, e.Operation, e.Required, e.From)
}

// Unwrap returns the sentinel ErrIllegalTransition for errors.Is support.
func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// TransitionResult is the output of one state machine operation: the updated
// message plus the three observability events describing the transition.
type TransitionResult struct {
	Updated     Message
	StateEvent  EventEnvelope
	StatusEvent EventEnvelope
	LogEvent    EventEnvelope
}

// Events returns the three envelopes in emission order.
func (r TransitionResult) Events() []EventEnvelope {
	return []EventEnvelope{r.StateEvent, r.StatusEvent, r.LogEvent}
}

// OnReceive admits a raw request into the pipeline. It normalizes the
// subsystem names (trimmed, lower-cased) and the type (trimmed, upper-cased),
// validates that all required fields are non-blank, mints a fresh message id
// and produces a message in state Received.
func OnReceive(rawFrom, rawTo, rawType, rawPayload, rawCorrelationID string) (TransitionResult, error) {
	from := strings.ToLower(strings.TrimSpace(rawFrom))
	to := strings.ToLower(strings.TrimSpace(rawTo))
	msgType := strings.ToUpper(strings.TrimSpace(rawType))
	payload := strings.TrimSpace(rawPayload)

	if from == "" {
		return TransitionResult{}, errs.NewValueIsRequiredError("fromSubsystem")
	}
	if to == "" {
		return TransitionResult{}, errs.NewValueIsRequiredError("toSubsystem")
	}
	if msgType == "" {
		return TransitionResult{}, errs.NewValueIsRequiredError("type")
	}
	if payload == "" {
		return TransitionResult{}, errs.NewValueIsRequiredError("payload")
	}

	msg := Message{
		MessageID:     kernel.NewUUID().String(),
		FromSubsystem: from,
		ToSubsystem:   to,
		Type:          msgType,
		Payload:       payload,
		CorrelationID: strings.TrimSpace(rawCorrelationID),
		State:         StateReceived,
	}
	return buildTransition(msg, "Message received"), nil
}

// Connect merges the enrichment into the message metadata and moves it from
// Received to Connected.
func Connect(msg Message, enrichment map[string]string) (TransitionResult, error) {
	if msg.State != StateReceived {
		return TransitionResult{}, &IllegalTransitionError{Operation: "connect", From: msg.State, Required: StateReceived}
	}
	updated := msg.withMetadata(enrichment).withState(StateConnected)
	return buildTransition(updated, "Message connected/enriched"), nil
}

// Sending moves a Connected message to Sending. The caller is expected to
// write the outbox record for the updated message before publishing it.
func Sending(msg Message) (TransitionResult, error) {
	if msg.State != StateConnected {
		return TransitionResult{}, &IllegalTransitionError{Operation: "sending", From: msg.State, Required: StateConnected}
	}
	return buildTransition(msg.withState(StateSending), "Delivery started"), nil
}

// Sent moves a Sending message to Sent once the external delivery happened.
func Sent(msg Message) (TransitionResult, error) {
	if msg.State != StateSending {
		return TransitionResult{}, &IllegalTransitionError{Operation: "sent", From: msg.State, Required: StateSending}
	}
	return buildTransition(msg.withState(StateSent), "Delivery succeeded"), nil
}

// Notified moves a Sent message to its terminal success state once a consumer
// subsystem observed the delivery.
func Notified(msg Message) (TransitionResult, error) {
	if msg.State != StateSent {
		return TransitionResult{}, &IllegalTransitionError{Operation: "notified", From: msg.State, Required: StateSent}
	}
	return buildTransition(msg.withState(StateNotified), "Consumer notified"), nil
}

// Failed moves a message to its terminal failure state. It is callable from
// any non-terminal state and records the failure reason on the message.
func Failed(msg Message, reason FailureReason) TransitionResult {
	updated := msg.withState(StateFailed)
	updated.LastError = reason.String()
	return buildTransition(updated, "Failure: "+reason.String())
}

// buildTransition produces the state/status/log event triple for the updated
// message. The milestone mirrors the state name; the two enums diverged only
// nominally in the source system.
func buildTransition(msg Message, logLine string) TransitionResult {
	now := time.Now().UTC()
	return TransitionResult{
		Updated: msg,
		StateEvent: newEnvelope(msg, EventState, now, map[string]any{
			"state":    msg.State.String(),
			"attempts": msg.Attempts,
		}),
		StatusEvent: newEnvelope(msg, EventStatus, now, map[string]any{
			"milestone": msg.State.String(),
		}),
		LogEvent: newEnvelope(msg, EventLog, now, map[string]any{
			"message": logLine,
		}),
	}
}
