package transport

import (
	"fmt"
	"sync"

	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/pkg/errs"
)

// DefaultFleetSize is the number of AGVs the factory operates.
const DefaultFleetSize = 3

// VehiclePool owns the AGV fleet. Every mutation of a vehicle goes through
// the pool's lock: Acquire atomically picks an available vehicle and marks it
// unavailable, so two concurrent workflows can never be handed the same AGV.
type VehiclePool struct {
	mu       sync.Mutex
	vehicles []*Vehicle
}

// NewVehiclePool creates a pool of size available vehicles named AGV-1..AGV-n.
func NewVehiclePool(size int) (*VehiclePool, error) {
	if size <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("size", size, 1, 64)
	}

	vehicles := make([]*Vehicle, 0, size)
	for i := 1; i <= size; i++ {
		vehicles = append(vehicles, &Vehicle{
			id:    fmt.Sprintf("AGV-%d", i),
			state: VehicleAvailable,
		})
	}
	return &VehiclePool{vehicles: vehicles}, nil
}

// Acquire picks the first available vehicle, marks it unavailable and working
// towards the given assembly line, and returns it. The second return value is
// false when the whole fleet is busy or faulty.
func (p *VehiclePool) Acquire(pickup assembly.Location) (*Vehicle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range p.vehicles {
		if v.state == VehicleAvailable {
			v.state = VehicleUnavailable
			v.isWorking = true
			v.pickupPlace = pickup
			return v, true
		}
	}
	return nil, false
}

// Release returns a vehicle to the available fleet. Releasing a vehicle that
// is already available is a no-op.
func (p *VehiclePool) Release(vehicle *Vehicle) {
	if vehicle == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	vehicle.state = VehicleAvailable
	vehicle.isWorking = false
	vehicle.pickupPlace = ""
}

// CheckAvailability returns a read-only snapshot of the currently available
// vehicles. The snapshot is advisory: a vehicle listed here may already be
// gone by the time the caller tries to acquire it.
func (p *VehiclePool) CheckAvailability() []VehicleInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	available := make([]VehicleInfo, 0, len(p.vehicles))
	for _, v := range p.vehicles {
		if v.state == VehicleAvailable {
			available = append(available, infoOf(v))
		}
	}
	return available
}

// Snapshot returns a read-only copy of the whole fleet, available or not.
func (p *VehiclePool) Snapshot() []VehicleInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	fleet := make([]VehicleInfo, 0, len(p.vehicles))
	for _, v := range p.vehicles {
		fleet = append(fleet, infoOf(v))
	}
	return fleet
}

// MakeAllUnavailable marks the whole fleet unavailable. Used to simulate
// fleet exhaustion.
func (p *VehiclePool) MakeAllUnavailable() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range p.vehicles {
		v.state = VehicleUnavailable
	}
}

// ReleaseAll returns every non-faulty vehicle to the available fleet.
func (p *VehiclePool) ReleaseAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range p.vehicles {
		if v.state == VehicleFaulty {
			continue
		}
		v.state = VehicleAvailable
		v.isWorking = false
		v.pickupPlace = ""
	}
}

// MarkFaulty takes a vehicle out of service by id.
func (p *VehiclePool) MarkFaulty(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, v := range p.vehicles {
		if v.id == id {
			v.state = VehicleFaulty
			v.isWorking = false
			v.pickupPlace = ""
			return nil
		}
	}
	return errs.NewObjectNotFoundError("vehicle", id)
}

func infoOf(v *Vehicle) VehicleInfo {
	return VehicleInfo{
		ID:          v.id,
		State:       v.state.String(),
		PickupPlace: v.pickupPlace,
		IsWorking:   v.isWorking,
	}
}
