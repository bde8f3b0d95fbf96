package comms

// Well-known subsystem names used as message endpoints.
const (
	SubsystemAssembly  = "assembly"
	SubsystemTransport = "transport"
)

// Message types exchanged between the assembly and transport subsystems.
const (
	TypeTransportOrder    = "TRANSPORT_ORDER"
	TypeOrderConfirmed    = "ORDER_CONFIRMED"
	TypeTransportArrived  = "TRANSPORT_ARRIVED"
	TypeAssemblyValidated = "ASSEMBLY_VALIDATED"
)

// Message is the canonical representation of a communication message flowing
// through the pipeline. All bus channels carry JSON-serialized instances keyed
// by MessageID.
//
// Message is treated as immutable per transition: every state change produces
// a new value derived from the previous one (copy-on-transition), never a
// mutation in place. This keeps the state machine pure and replay-safe.
type Message struct {
	MessageID     string            `json:"messageId"`
	FromSubsystem string            `json:"fromSubsystem"`
	ToSubsystem   string            `json:"toSubsystem"`
	Type          string            `json:"type"`
	Payload       string            `json:"payload"`
	CorrelationID string            `json:"correlationId,omitempty"`
	State         State             `json:"state"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Attempts      int               `json:"attempts"`
	LastError     string            `json:"lastError,omitempty"`
}

// withState returns a copy of the message in the given state.
// Metadata is cloned so the previous value stays untouched.
func (m Message) withState(state State) Message {
	next := m
	next.State = state
	next.Metadata = cloneMetadata(m.Metadata)
	return next
}

// withMetadata returns a copy with the enrichment merged into metadata.
func (m Message) withMetadata(enrichment map[string]string) Message {
	next := m
	merged := cloneMetadata(m.Metadata)
	if merged == nil && len(enrichment) > 0 {
		merged = make(map[string]string, len(enrichment))
	}
	for k, v := range enrichment {
		merged[k] = v
	}
	next.Metadata = merged
	return next
}

func cloneMetadata(metadata map[string]string) map[string]string {
	if metadata == nil {
		return nil
	}
	clone := make(map[string]string, len(metadata))
	for k, v := range metadata {
		clone[k] = v
	}
	return clone
}
