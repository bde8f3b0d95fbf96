// Package transport contains the domain model of the transport subsystem:
// the automated guided vehicles (AGVs) that carry parts from the warehouse to
// the assembly lines, the vehicle pool that owns them and the workflow state
// enum of the transport order lifecycle.
//
// Vehicles are only ever mutated through the pool. Code outside this package
// receives vehicle handles and read-only snapshots; acquiring, releasing and
// dispatching all go through VehiclePool so that concurrent workflows cannot
// race on a vehicle's state.
package transport
