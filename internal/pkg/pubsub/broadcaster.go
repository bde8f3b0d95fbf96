// Package pubsub provides a small in-process broadcaster with per-subscriber
// buffering. Slow subscribers never block publishers: when a subscriber's
// buffer is full the oldest buffered item is dropped to make room.
package pubsub

import "sync"

// Broadcaster fans values out to any number of subscribers. The zero value is
// not usable; create instances with NewBroadcaster.
type Broadcaster[T any] struct {
	mu       sync.Mutex
	capacity int
	closed   bool
	subs     map[int]chan T
	nextID   int
}

// NewBroadcaster creates a broadcaster whose subscribers each buffer up to
// capacity values. Capacity must be at least 1.
func NewBroadcaster[T any](capacity int) *Broadcaster[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Broadcaster[T]{
		capacity: capacity,
		subs:     make(map[int]chan T),
	}
}

// Subscribe registers a new subscriber and returns its receive channel along
// with a cancel function. The channel is closed when cancel is called or the
// broadcaster shuts down.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan T)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan T, b.capacity)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the value to every subscriber. When a subscriber's buffer
// is full its oldest value is dropped so the newest one always fits.
func (b *Broadcaster[T]) Publish(value T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		for {
			select {
			case ch <- value:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (b *Broadcaster[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close shuts the broadcaster down and closes every subscriber channel.
// Publish and Subscribe become no-ops afterwards.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
