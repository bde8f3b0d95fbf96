// Package membus provides the in-process MessageBus implementation: five
// named channels with ordered, asynchronous delivery and atomic batch
// publication. It stands in for a real broker; the pipeline only relies on
// the contract, not on this implementation.
package membus

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"mfps/internal/core/ports"
)

// ErrBusClosed is returned by Publish after the bus has been stopped.
var ErrBusClosed = errors.New("message bus is closed")

// Bus delivers publications to subscribers through a single dispatch loop,
// which gives per-key (in fact global) ordering for free. Publish appends a
// whole batch under one lock, so subscribers never observe a partial batch.
type Bus struct {
	mu       sync.Mutex
	cond     *sync.Cond
	handlers map[ports.Channel][]ports.MessageHandler
	queue    []ports.Publication
	started  bool
	closed   bool
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewBus creates a stopped bus. Call Subscribe for every consumer, then
// Start.
func NewBus(logger *slog.Logger) *Bus {
	b := &Bus{
		handlers: make(map[ports.Channel][]ports.MessageHandler),
		logger:   logger.With("component", "membus"),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Subscribe registers a handler for a channel. Subscriptions made after
// Start only see values published after they were added.
func (b *Bus) Subscribe(channel ports.Channel, handler ports.MessageHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[channel] = append(b.handlers[channel], handler)
}

// Publish enqueues the batch for delivery. The call returns once the batch
// is accepted; delivery happens asynchronously on the dispatch loop.
func (b *Bus) Publish(_ context.Context, publications ...ports.Publication) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	b.queue = append(b.queue, publications...)
	b.cond.Signal()
	return nil
}

// Start launches the dispatch loop. The given context is passed to every
// handler invocation.
func (b *Bus) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started || b.closed {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	b.wg.Add(1)
	go b.dispatch(ctx)
}

// Stop drains the remaining queue and shuts the dispatch loop down. Publish
// calls made after Stop return ErrBusClosed.
func (b *Bus) Stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	started := b.started
	b.cond.Broadcast()
	b.mu.Unlock()

	if started {
		b.wg.Wait()
	}
	b.logger.Info("bus stopped")
}

func (b *Bus) dispatch(ctx context.Context) {
	defer b.wg.Done()

	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 && b.closed {
			b.mu.Unlock()
			return
		}
		pub := b.queue[0]
		b.queue = b.queue[1:]
		handlers := make([]ports.MessageHandler, len(b.handlers[pub.Channel]))
		copy(handlers, b.handlers[pub.Channel])
		b.mu.Unlock()

		for _, handler := range handlers {
			handler(ctx, pub.Key, pub.Value)
		}
	}
}
