// Package bus wires the message pipeline's outbound channel to the assembly
// and transport services: delivered (SENT) messages become workflow signals
// on one side and new transport runs on the other.
package bus

import (
	"context"
	"log/slog"
	"strings"

	"mfps/internal/core/application/pipeline"
	"mfps/internal/core/application/transportflow"
	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/core/domain/model/comms"
	"mfps/internal/core/ports"
)

// AssemblySignals is the slice of the assembly orchestrator the reply
// listener drives.
type AssemblySignals interface {
	Confirm(orderID string, accepted bool) error
	SignalArrival(orderID string) error
	Validate(orderID string, valid bool) error
}

// OrderHandler is the slice of the transport service the order listener
// drives.
type OrderHandler interface {
	HandleOrder(ctx context.Context, order *assembly.Order) (transportflow.Result, error)
}

// AssemblyReplyListener resolves an in-flight assembly workflow's waits from
// delivered transport replies.
type AssemblyReplyListener struct {
	signals AssemblySignals
	logger  *slog.Logger
}

func NewAssemblyReplyListener(signals AssemblySignals, logger *slog.Logger) *AssemblyReplyListener {
	return &AssemblyReplyListener{
		signals: signals,
		logger:  logger.With("component", "assembly_reply_listener"),
	}
}

// Register subscribes the listener to the outbound channel. Handling errors
// are logged, never propagated: the bus redelivers nothing and a stray reply
// for a finished order is expected.
func (l *AssemblyReplyListener) Register(bus ports.MessageBus) {
	bus.Subscribe(ports.ChannelOutbound, func(_ context.Context, _, value string) {
		msg, err := pipeline.DecodeMessage(value)
		if err != nil {
			l.logger.Error("failed to decode outbound message", "error", err)
			return
		}
		if msg.ToSubsystem != comms.SubsystemAssembly || msg.State != comms.StateSent {
			return
		}
		l.handle(msg)
	})
}

func (l *AssemblyReplyListener) handle(msg comms.Message) {
	switch strings.ToUpper(msg.Type) {
	case comms.TypeOrderConfirmed:
		orderID, accepted, err := assembly.DecodeConfirmation(msg.Payload)
		if err != nil {
			l.logger.Error("invalid confirmation payload", "messageId", msg.MessageID, "error", err)
			return
		}
		if err := l.signals.Confirm(orderID, accepted); err != nil {
			l.logger.Warn("confirmation had no waiting order", "orderId", orderID, "error", err)
			return
		}
		l.logger.Info("order confirmed", "orderId", orderID, "accepted", accepted)

	case comms.TypeTransportArrived:
		orderID, err := assembly.DecodeArrival(msg.Payload)
		if err != nil {
			l.logger.Error("invalid arrival payload", "messageId", msg.MessageID, "error", err)
			return
		}
		if err := l.signals.SignalArrival(orderID); err != nil {
			l.logger.Warn("arrival had no waiting order", "orderId", orderID, "error", err)
			return
		}
		l.logger.Info("transport arrived", "orderId", orderID)

	case comms.TypeAssemblyValidated:
		orderID, valid, err := assembly.DecodeValidation(msg.Payload)
		if err != nil {
			l.logger.Error("invalid validation payload", "messageId", msg.MessageID, "error", err)
			return
		}
		if err := l.signals.Validate(orderID, valid); err != nil {
			l.logger.Warn("validation had no waiting order", "orderId", orderID, "error", err)
			return
		}
		l.logger.Info("assembly validated", "orderId", orderID, "valid", valid)

	default:
		l.logger.Debug("ignoring unsupported reply type", "type", msg.Type)
	}
}

// TransportOrderListener starts a transport workflow for every delivered
// TRANSPORT_ORDER message.
type TransportOrderListener struct {
	handler OrderHandler
	logger  *slog.Logger
}

func NewTransportOrderListener(handler OrderHandler, logger *slog.Logger) *TransportOrderListener {
	return &TransportOrderListener{
		handler: handler,
		logger:  logger.With("component", "transport_order_listener"),
	}
}

// Register subscribes the listener to the outbound channel. Each order runs
// on its own goroutine so one fulfillment never delays the dispatch loop.
func (l *TransportOrderListener) Register(ctx context.Context, bus ports.MessageBus) {
	bus.Subscribe(ports.ChannelOutbound, func(_ context.Context, _, value string) {
		msg, err := pipeline.DecodeMessage(value)
		if err != nil {
			l.logger.Error("failed to decode outbound message", "error", err)
			return
		}
		if msg.ToSubsystem != comms.SubsystemTransport || msg.State != comms.StateSent {
			return
		}
		if !strings.EqualFold(msg.Type, comms.TypeTransportOrder) {
			l.logger.Debug("ignoring unsupported order type", "type", msg.Type)
			return
		}

		order, err := assembly.DecodeOrder(msg.Payload)
		if err != nil {
			l.logger.Error("invalid order payload", "messageId", msg.MessageID, "error", err)
			return
		}

		go func() {
			if _, err := l.handler.HandleOrder(ctx, order); err != nil {
				l.logger.Error("transport run failed", "orderId", order.ID(), "error", err)
			}
		}()
	})
}
