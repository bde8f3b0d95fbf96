package membus

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfps/internal/core/ports"
)

func newTestBus() *Bus {
	return NewBus(slog.Default())
}

func Test_Bus_PublishSubscribe(t *testing.T) {
	t.Run("should deliver values to the subscribed channel only", func(t *testing.T) {
		bus := newTestBus()
		defer bus.Stop()

		var mu sync.Mutex
		var inbound, connected []string
		bus.Subscribe(ports.ChannelInbound, func(_ context.Context, key, _ string) {
			mu.Lock()
			inbound = append(inbound, key)
			mu.Unlock()
		})
		bus.Subscribe(ports.ChannelConnected, func(_ context.Context, key, _ string) {
			mu.Lock()
			connected = append(connected, key)
			mu.Unlock()
		})
		bus.Start(context.Background())

		require.NoError(t, bus.Publish(context.Background(),
			ports.Publication{Channel: ports.ChannelInbound, Key: "m1", Value: "{}"}))

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(inbound) == 1
		}, time.Second, 5*time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"m1"}, inbound)
		assert.Empty(t, connected)
	})

	t.Run("should deliver a batch in order without interleaving", func(t *testing.T) {
		bus := newTestBus()
		defer bus.Stop()

		var mu sync.Mutex
		var seen []string
		bus.Subscribe(ports.ChannelNotifications, func(_ context.Context, key, _ string) {
			mu.Lock()
			seen = append(seen, key)
			mu.Unlock()
		})
		bus.Start(context.Background())

		require.NoError(t, bus.Publish(context.Background(),
			ports.Publication{Channel: ports.ChannelNotifications, Key: "a1"},
			ports.Publication{Channel: ports.ChannelNotifications, Key: "a2"},
			ports.Publication{Channel: ports.ChannelNotifications, Key: "a3"},
		))

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(seen) == 3
		}, time.Second, 5*time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, []string{"a1", "a2", "a3"}, seen)
	})

	t.Run("should allow a handler to publish from within delivery", func(t *testing.T) {
		bus := newTestBus()
		defer bus.Stop()

		done := make(chan string, 1)
		bus.Subscribe(ports.ChannelInbound, func(ctx context.Context, key, _ string) {
			_ = bus.Publish(ctx, ports.Publication{Channel: ports.ChannelConnected, Key: key})
		})
		bus.Subscribe(ports.ChannelConnected, func(_ context.Context, key, _ string) {
			done <- key
		})
		bus.Start(context.Background())

		require.NoError(t, bus.Publish(context.Background(),
			ports.Publication{Channel: ports.ChannelInbound, Key: "m7"}))

		select {
		case key := <-done:
			assert.Equal(t, "m7", key)
		case <-time.After(time.Second):
			t.Fatal("chained publication was not delivered")
		}
	})

	t.Run("should reject publications after stop", func(t *testing.T) {
		bus := newTestBus()
		bus.Start(context.Background())
		bus.Stop()

		err := bus.Publish(context.Background(),
			ports.Publication{Channel: ports.ChannelInbound, Key: "late"})

		assert.ErrorIs(t, err, ErrBusClosed)
		assert.NotPanics(t, bus.Stop)
	})
}
