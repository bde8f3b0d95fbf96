package ports

import "context"

// Channel identifies one of the named message channels the pipeline stages
// read from and write to.
type Channel string

const (
	// ChannelInbound carries freshly accepted messages in state RECEIVED.
	ChannelInbound Channel = "inbound"

	// ChannelConnected carries enriched messages in state CONNECTED.
	ChannelConnected Channel = "connected"

	// ChannelOutbound carries messages in states SENDING and SENT. Consumers
	// filter on the state they care about: subsystem listeners and the notify
	// stage only act on SENT.
	ChannelOutbound Channel = "outbound"

	// ChannelNotifications carries serialized observability event envelopes.
	ChannelNotifications Channel = "notifications"

	// ChannelDeadLetter carries messages in state FAILED.
	ChannelDeadLetter Channel = "dead_letter"
)

// Publication is one value to put on a channel. Key carries the message id
// (or event id) and is the unit of per-key ordering; Value is the serialized
// JSON of a communication message or an event envelope.
type Publication struct {
	Channel Channel
	Key     string
	Value   string
}

// MessageHandler consumes one value from a subscribed channel.
type MessageHandler func(ctx context.Context, key, value string)

// MessageBus defines the messaging contract between pipeline stages and
// subsystem adapters. Delivery is at-least-once; consumers are expected to
// guard their effects with the duplication gate and idempotent writes.
//
// Publish delivers all given publications as one atomic batch: subscribers
// never observe a partial batch. This is the transactional multi-send every
// stage relies on to commit its state write and its event emissions together.
type MessageBus interface {
	// Publish delivers the publications to every subscriber of their
	// channels. Publications within one call are delivered in order.
	Publish(ctx context.Context, publications ...Publication) error

	// Subscribe registers a handler for every future value on the channel.
	// Handlers must be registered before the bus starts delivering.
	Subscribe(channel Channel, handler MessageHandler)
}
