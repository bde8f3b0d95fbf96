package assembly

import (
	"errors"
	"fmt"
	"strings"

	"mfps/internal/core/domain/model/kernel"
	"mfps/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created
	// through the NewOrder or RestoreOrder factory methods.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder or RestoreOrder constructor")
)

// Order is the assembly-transport order aggregate: a request for the
// transport subsystem to deliver a set of components to an assembly line.
//
// Order follows these invariants:
//   - Must have a non-empty identifier with the "order-" prefix
//   - Must carry at least one component
//   - Must be routed to a valid assembly line
//   - Can only be created through NewOrder or RestoreOrder
type Order struct {
	id               string
	components       []Component
	deliveryLocation Location

	guard kernel.ConstructorGuard
}

// NewOrderID generates a fresh order identifier.
func NewOrderID() string {
	return fmt.Sprintf("order-%s", kernel.NewUUID())
}

// NewOrder creates an order from a validated blueprint, routed to the given
// assembly line. The order gets a freshly generated identifier and its own
// copy of the blueprint's component list.
func NewOrder(blueprint Blueprint, deliveryLocation Location) (*Order, error) {
	if err := blueprint.Validate(); err != nil {
		return nil, err
	}
	if err := deliveryLocation.Validate(); err != nil {
		return nil, err
	}

	components := make([]Component, len(blueprint.Components))
	copy(components, blueprint.Components)

	return &Order{
		id:               NewOrderID(),
		components:       components,
		deliveryLocation: deliveryLocation,
		guard:            kernel.NewConstructorGuard(),
	}, nil
}

// RestoreOrder reconstructs an order from previously serialized data, for
// example when decoding a TRANSPORT_ORDER payload on the receiving side.
func RestoreOrder(id string, components []Component, deliveryLocation Location) (*Order, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errs.NewValueIsRequiredError("order.id")
	}
	if len(components) == 0 {
		return nil, errs.NewValueIsRequiredError("order.components")
	}
	if err := deliveryLocation.Validate(); err != nil {
		return nil, err
	}

	restored := make([]Component, len(components))
	copy(restored, components)

	return &Order{
		id:               id,
		components:       restored,
		deliveryLocation: deliveryLocation,
		guard:            kernel.NewConstructorGuard(),
	}, nil
}

// Validate ensures the Order instance was properly constructed through one of
// the factory methods.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by their identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id == other.id
}

// ID returns the order's identifier.
func (o *Order) ID() string {
	return o.id
}

// Components returns a copy of the order's component list.
func (o *Order) Components() []Component {
	components := make([]Component, len(o.components))
	copy(components, o.components)
	return components
}

// DeliveryLocation returns the assembly line the order is routed to.
func (o *Order) DeliveryLocation() Location {
	return o.deliveryLocation
}
