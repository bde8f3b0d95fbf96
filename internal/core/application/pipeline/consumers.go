package pipeline

import (
	"context"
	"log/slog"

	"mfps/internal/core/domain/model/comms"
	"mfps/internal/core/ports"
)

// Consumers subscribes the connect, send and notify stages to their bus
// channels. A value that fails to decode or process is logged and dropped so
// one bad message never stalls a channel.
type Consumers struct {
	connect *ConnectStage
	send    *SendStage
	notify  *NotifyStage
	logger  *slog.Logger
}

// NewConsumers creates the consumer wiring.
func NewConsumers(connect *ConnectStage, send *SendStage, notify *NotifyStage, logger *slog.Logger) *Consumers {
	return &Consumers{
		connect: connect,
		send:    send,
		notify:  notify,
		logger:  logger.With("component", "pipeline_consumers"),
	}
}

// Register subscribes the stages. Must be called before the bus starts
// delivering.
func (c *Consumers) Register(bus ports.MessageBus) {
	bus.Subscribe(ports.ChannelInbound, func(ctx context.Context, key, value string) {
		msg, err := DecodeMessage(value)
		if err != nil {
			c.logger.Error("inbound consume failed", "key", key, "error", err)
			return
		}
		if err := c.connect.Process(ctx, msg); err != nil {
			c.logger.Error("connect stage failed", "messageId", msg.MessageID, "error", err)
		}
	})

	bus.Subscribe(ports.ChannelConnected, func(ctx context.Context, key, value string) {
		msg, err := DecodeMessage(value)
		if err != nil {
			c.logger.Error("connected consume failed", "key", key, "error", err)
			return
		}
		if err := c.send.Begin(ctx, msg); err != nil {
			c.logger.Error("send stage failed", "messageId", msg.MessageID, "error", err)
		}
	})

	bus.Subscribe(ports.ChannelOutbound, func(ctx context.Context, key, value string) {
		msg, err := DecodeMessage(value)
		if err != nil {
			c.logger.Error("outbound consume failed", "key", key, "error", err)
			return
		}
		// SENDING messages also pass through outbound; only SENT ones are
		// ready for the terminal transition.
		if msg.State != comms.StateSent {
			return
		}
		if err := c.notify.Notify(ctx, msg); err != nil {
			c.logger.Error("notify stage failed", "messageId", msg.MessageID, "error", err)
		}
	})
}
