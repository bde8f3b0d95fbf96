package transport

import "mfps/internal/core/domain/model/assembly"

// VehicleState is the availability state of an automated guided vehicle.
type VehicleState int

const (
	VehicleUnknown VehicleState = iota

	// VehicleAvailable means the vehicle is idle at the warehouse and can be
	// acquired for an order.
	VehicleAvailable

	// VehicleUnavailable means the vehicle is acquired and working an order.
	VehicleUnavailable

	// VehicleFaulty means the vehicle is out of service and must not be
	// acquired until it returns to the available fleet.
	VehicleFaulty
)

func getVehicleStateStrings() map[VehicleState]string {
	return map[VehicleState]string{
		VehicleUnknown:     "UNKNOWN",
		VehicleAvailable:   "AVAILABLE",
		VehicleUnavailable: "UNAVAILABLE",
		VehicleFaulty:      "FAULTY",
	}
}

// String returns the wire representation of the vehicle state.
func (s VehicleState) String() string {
	if str, ok := getVehicleStateStrings()[s]; ok {
		return str
	}
	return "UNKNOWN"
}

// Vehicle is a single AGV. All fields are private: the pool in this package
// is the only code allowed to mutate a vehicle, which keeps concurrent
// acquire/release races impossible by construction.
type Vehicle struct {
	id          string
	state       VehicleState
	pickupPlace assembly.Location
	isWorking   bool
}

// ID returns the vehicle's identifier.
func (v *Vehicle) ID() string {
	return v.id
}

// State returns the vehicle's current availability state. The value is a
// snapshot: the pool may change the state concurrently after this returns.
func (v *Vehicle) State() VehicleState {
	return v.state
}

// PickupPlace returns the assembly line the vehicle is currently serving, or
// the empty location when the vehicle is idle.
func (v *Vehicle) PickupPlace() assembly.Location {
	return v.pickupPlace
}

// IsWorking reports whether the vehicle is actively fulfilling an order.
func (v *Vehicle) IsWorking() bool {
	return v.isWorking
}

// VehicleInfo is a read-only copy of a vehicle's state, safe to hand to
// callers outside the pool's lock.
type VehicleInfo struct {
	ID          string            `json:"id"`
	State       string            `json:"state"`
	PickupPlace assembly.Location `json:"pickupPlace,omitempty"`
	IsWorking   bool              `json:"isWorking"`
}
