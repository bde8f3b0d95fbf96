// Package assembly contains the domain model of the assembly subsystem:
// assembly lines, blueprints and their component catalog, the
// assembly-transport order aggregate, the workflow state enums and the wire
// payloads exchanged with the transport subsystem.
package assembly
