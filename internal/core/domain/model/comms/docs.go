// Package comms contains the domain model of the communication pipeline:
// the message that travels between the assembly and transport subsystems,
// its state machine, and the observability events each transition emits.
//
// The state machine is pure and deterministic. It performs no I/O; every
// transition returns a new message value derived from the previous one plus
// the events describing the transition. Persisting, publishing and routing
// are the responsibility of the pipeline stages in
// internal/core/application/pipeline.
package comms
