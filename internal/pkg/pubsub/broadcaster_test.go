package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Broadcaster(t *testing.T) {
	t.Run("should deliver to every subscriber", func(t *testing.T) {
		b := NewBroadcaster[int](4)
		first, cancelFirst := b.Subscribe()
		second, cancelSecond := b.Subscribe()
		defer cancelFirst()
		defer cancelSecond()

		b.Publish(42)

		assert.Equal(t, 42, <-first)
		assert.Equal(t, 42, <-second)
	})

	t.Run("should drop oldest values for a slow subscriber", func(t *testing.T) {
		b := NewBroadcaster[int](2)
		sub, cancel := b.Subscribe()
		defer cancel()

		b.Publish(1)
		b.Publish(2)
		b.Publish(3)

		assert.Equal(t, 2, <-sub)
		assert.Equal(t, 3, <-sub)
	})

	t.Run("should stop delivering after cancel", func(t *testing.T) {
		b := NewBroadcaster[int](2)
		sub, cancel := b.Subscribe()
		require.Equal(t, 1, b.SubscriberCount())

		cancel()

		assert.Equal(t, 0, b.SubscriberCount())
		_, open := <-sub
		assert.False(t, open)
		assert.NotPanics(t, func() { b.Publish(1) })
		assert.NotPanics(t, cancel)
	})

	t.Run("should close subscriber channels on shutdown", func(t *testing.T) {
		b := NewBroadcaster[string](2)
		sub, cancel := b.Subscribe()
		defer cancel()

		b.Close()

		_, open := <-sub
		assert.False(t, open)

		late, lateCancel := b.Subscribe()
		defer lateCancel()
		_, open = <-late
		assert.False(t, open)
	})
}
