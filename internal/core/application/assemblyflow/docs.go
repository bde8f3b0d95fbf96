// Package assemblyflow drives orders through the assembly subsystem.
//
// Workflow runs one order from blueprint to its terminal outcome: it sends
// the transport order through the message pipeline, races each external
// signal (confirmation, arrival, validation) against its timeout, and
// occupies a per-line permit while assembling. Service is the orchestrator
// around it: a bounded admission queue, least-pending line routing, the
// per-line permits, the signal registries keyed by order id and the live
// event stream.
package assemblyflow
