// Package pipeline contains the four message-pipeline stages (Receive,
// Connect, Send, Notify) and the duplication gate they share.
//
// Each stage consumes one bus channel, invokes the matching pure transition
// in the comms package and publishes the updated message together with its
// observability events as one atomic batch. The send stage additionally
// stages every message in the outbox before it is considered dispatched; the
// periodic drain completes the SENDING to SENT transition, so a crash between
// those two states can never lose a delivery.
package pipeline
