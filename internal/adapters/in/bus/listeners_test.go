package bus

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfps/internal/core/application/pipeline"
	"mfps/internal/core/application/transportflow"
	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/core/domain/model/comms"
	"mfps/internal/core/ports"
)

// syncBus delivers publications to subscribers synchronously, in order.
type syncBus struct {
	handlers map[ports.Channel][]ports.MessageHandler
}

func newSyncBus() *syncBus {
	return &syncBus{handlers: make(map[ports.Channel][]ports.MessageHandler)}
}

func (b *syncBus) Publish(ctx context.Context, pubs ...ports.Publication) error {
	for _, pub := range pubs {
		for _, handler := range b.handlers[pub.Channel] {
			handler(ctx, pub.Key, pub.Value)
		}
	}
	return nil
}

func (b *syncBus) Subscribe(channel ports.Channel, handler ports.MessageHandler) {
	b.handlers[channel] = append(b.handlers[channel], handler)
}

type signalRecorder struct {
	mu            sync.Mutex
	confirmations map[string]bool
	arrivals      []string
	validations   map[string]bool
}

func newSignalRecorder() *signalRecorder {
	return &signalRecorder{
		confirmations: make(map[string]bool),
		validations:   make(map[string]bool),
	}
}

func (r *signalRecorder) Confirm(orderID string, accepted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.confirmations[orderID] = accepted
	return nil
}

func (r *signalRecorder) SignalArrival(orderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arrivals = append(r.arrivals, orderID)
	return nil
}

func (r *signalRecorder) Validate(orderID string, valid bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validations[orderID] = valid
	return nil
}

type handlerRecorder struct {
	mu     sync.Mutex
	orders []*assembly.Order
}

func (h *handlerRecorder) HandleOrder(_ context.Context, order *assembly.Order) (transportflow.Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.orders = append(h.orders, order)
	return transportflow.Result{Order: order}, nil
}

func (h *handlerRecorder) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.orders)
}

func publishMessage(t *testing.T, bus ports.MessageBus, msg comms.Message) {
	t.Helper()

	value, err := pipeline.EncodeMessage(msg)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(context.Background(), ports.Publication{
		Channel: ports.ChannelOutbound,
		Key:     msg.MessageID,
		Value:   value,
	}))
}

func sentMessage(to, msgType, payload string) comms.Message {
	return comms.Message{
		MessageID:     "msg-1",
		FromSubsystem: comms.SubsystemTransport,
		ToSubsystem:   to,
		Type:          msgType,
		Payload:       payload,
		CorrelationID: "order-1",
		State:         comms.StateSent,
	}
}

func Test_AssemblyReplyListener(t *testing.T) {
	logger := slog.Default()

	t.Run("routes confirmation, arrival and validation replies", func(t *testing.T) {
		recorder := newSignalRecorder()
		bus := newSyncBus()
		NewAssemblyReplyListener(recorder, logger).Register(bus)

		confirmation, err := assembly.EncodeConfirmation("order-1", true)
		require.NoError(t, err)
		arrival, err := assembly.EncodeArrival("order-1")
		require.NoError(t, err)
		validation, err := assembly.EncodeValidation("order-1", false)
		require.NoError(t, err)

		publishMessage(t, bus, sentMessage(comms.SubsystemAssembly, comms.TypeOrderConfirmed, confirmation))
		publishMessage(t, bus, sentMessage(comms.SubsystemAssembly, comms.TypeTransportArrived, arrival))
		publishMessage(t, bus, sentMessage(comms.SubsystemAssembly, comms.TypeAssemblyValidated, validation))

		accepted, ok := recorder.confirmations["order-1"]
		require.True(t, ok)
		assert.True(t, accepted)
		assert.Equal(t, []string{"order-1"}, recorder.arrivals)
		valid, ok := recorder.validations["order-1"]
		require.True(t, ok)
		assert.False(t, valid)
	})

	t.Run("ignores messages for other subsystems and undelivered states", func(t *testing.T) {
		recorder := newSignalRecorder()
		bus := newSyncBus()
		NewAssemblyReplyListener(recorder, logger).Register(bus)

		confirmation, err := assembly.EncodeConfirmation("order-1", true)
		require.NoError(t, err)

		other := sentMessage(comms.SubsystemTransport, comms.TypeOrderConfirmed, confirmation)
		publishMessage(t, bus, other)

		pending := sentMessage(comms.SubsystemAssembly, comms.TypeOrderConfirmed, confirmation)
		pending.State = comms.StateSending
		publishMessage(t, bus, pending)

		assert.Empty(t, recorder.confirmations)
	})

	t.Run("malformed payload is dropped", func(t *testing.T) {
		recorder := newSignalRecorder()
		bus := newSyncBus()
		NewAssemblyReplyListener(recorder, logger).Register(bus)

		publishMessage(t, bus, sentMessage(comms.SubsystemAssembly, comms.TypeOrderConfirmed, "not json"))

		assert.Empty(t, recorder.confirmations)
	})
}

func Test_TransportOrderListener(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("starts a run for a delivered transport order", func(t *testing.T) {
		handler := &handlerRecorder{}
		bus := newSyncBus()
		NewTransportOrderListener(handler, logger).Register(ctx, bus)

		order, err := assembly.NewOrder(assembly.Blueprint{
			ID:         "bp-sofa",
			Name:       "Sofa",
			Components: assembly.Catalog()[4:],
		}, assembly.LineB)
		require.NoError(t, err)

		payload, err := assembly.EncodeOrder(order)
		require.NoError(t, err)

		publishMessage(t, bus, sentMessage(comms.SubsystemTransport, comms.TypeTransportOrder, payload))

		require.Eventually(t, func() bool { return handler.count() == 1 }, time.Second, 5*time.Millisecond)
		handler.mu.Lock()
		defer handler.mu.Unlock()
		assert.Equal(t, order.ID(), handler.orders[0].ID())
		assert.Equal(t, assembly.LineB, handler.orders[0].DeliveryLocation())
	})

	t.Run("skips replies addressed to assembly", func(t *testing.T) {
		handler := &handlerRecorder{}
		bus := newSyncBus()
		NewTransportOrderListener(handler, logger).Register(ctx, bus)

		arrival, err := assembly.EncodeArrival("order-1")
		require.NoError(t, err)

		publishMessage(t, bus, sentMessage(comms.SubsystemAssembly, comms.TypeTransportArrived, arrival))

		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, handler.count())
	})
}
