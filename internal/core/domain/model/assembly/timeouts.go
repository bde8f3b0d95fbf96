package assembly

import "time"

// Timeouts bound the three waits of the assembly workflow. A zero value is
// never used directly; DefaultTimeouts provides the production settings.
type Timeouts struct {
	// Confirmation bounds the wait for the transport ORDER_CONFIRMED reply.
	Confirmation time.Duration

	// Delivery bounds the wait for the TRANSPORT_ARRIVED signal.
	Delivery time.Duration

	// Validation bounds the assembly-and-validate step itself.
	Validation time.Duration
}

// DefaultTimeouts returns the production timeout settings.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Confirmation: 10 * time.Second,
		Delivery:     300 * time.Second,
		Validation:   40 * time.Second,
	}
}
