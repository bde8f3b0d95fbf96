// Package transportflow runs the transport side of an order: it reacts to an
// inbound transport order, confirms or denies it against the vehicle fleet
// and replies to the assembly subsystem through the message pipeline.
package transportflow
