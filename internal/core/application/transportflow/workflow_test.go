package transportflow

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/core/domain/model/transport"
)

type transportHarness struct {
	mu sync.Mutex

	pool         *transport.VehiclePool
	confirmation chan bool

	accepted  []string
	denied    []string
	arrived   []string
	performed []string
	fulfilled []string
	states    []transport.WorkflowState
	released  int
}

func newTransportHarness(t *testing.T) *transportHarness {
	t.Helper()

	pool, err := transport.NewVehiclePool(transport.DefaultFleetSize)
	require.NoError(t, err)

	return &transportHarness{
		pool:         pool,
		confirmation: make(chan bool, 1),
	}
}

func (h *transportHarness) ports() Ports {
	return Ports{
		AwaitConfirmation: func() <-chan bool { return h.confirmation },
		AcquireVehicle:    func() (*transport.Vehicle, bool) { return h.pool.Acquire(assembly.LineA) },
		ReleaseVehicle: func(vehicle *transport.Vehicle) {
			h.mu.Lock()
			h.released++
			h.mu.Unlock()
			h.pool.Release(vehicle)
		},
		AcceptOrder: func(_ context.Context, orderID string) error {
			h.append(&h.accepted, orderID)
			return nil
		},
		DenyOrder: func(_ context.Context, orderID string) error {
			h.append(&h.denied, orderID)
			return nil
		},
		NotifyArrival: func(_ context.Context, orderID string) error {
			h.append(&h.arrived, orderID)
			return nil
		},
		PerformTransport: func(_ context.Context, vehicle *transport.Vehicle, _ assembly.Location) error {
			h.append(&h.performed, vehicle.ID())
			return nil
		},
		MarkFulfilled: func(_ context.Context, orderID string, _ time.Time) {
			h.append(&h.fulfilled, orderID)
		},
		OnTransition: func(_ string, state transport.WorkflowState) {
			h.mu.Lock()
			h.states = append(h.states, state)
			h.mu.Unlock()
		},
	}
}

func (h *transportHarness) append(target *[]string, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	*target = append(*target, value)
}

func fastTimeouts() Timeouts {
	return Timeouts{
		Confirmation: 50 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
		PollHorizon:  50 * time.Millisecond,
	}
}

func testOrder(t *testing.T) *assembly.Order {
	t.Helper()

	blueprint := assembly.Blueprint{
		ID:         "bp-chair",
		Name:       "Office Chair",
		Components: assembly.Catalog()[2:4],
	}
	order, err := assembly.NewOrder(blueprint, assembly.LineA)
	require.NoError(t, err)
	return order
}

func Test_TransportWorkflow_Run(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("confirmed order is accepted, fulfilled and reported arrived", func(t *testing.T) {
		harness := newTransportHarness(t)
		harness.confirmation <- true

		workflow := NewWorkflow(harness.ports(), fastTimeouts(), logger)
		order := testOrder(t)

		result, err := workflow.Run(ctx, order)

		require.NoError(t, err)
		assert.Equal(t, transport.StateOrderCompleted, result.FinalState)
		assert.Equal(t, assembly.ReportedCompleted, result.ReportedState)
		assert.Equal(t, []string{order.ID()}, harness.accepted)
		assert.Equal(t, []string{order.ID()}, harness.arrived)
		assert.Equal(t, []string{order.ID()}, harness.fulfilled)
		assert.Empty(t, harness.denied)
		assert.Equal(t, 1, harness.released)
		assert.Len(t, harness.pool.CheckAvailability(), transport.DefaultFleetSize)
	})

	t.Run("missing confirmation denies with a timeout", func(t *testing.T) {
		harness := newTransportHarness(t)

		workflow := NewWorkflow(harness.ports(), fastTimeouts(), logger)
		order := testOrder(t)

		result, err := workflow.Run(ctx, order)

		require.NoError(t, err)
		assert.Equal(t, transport.StateOrderTimedOut, result.FinalState)
		assert.Equal(t, assembly.ReportedDenied, result.ReportedState)
		assert.Equal(t, []string{order.ID()}, harness.denied)
		assert.Empty(t, harness.accepted)
		assert.Equal(t, 0, harness.released, "no vehicle was ever acquired")
	})

	t.Run("rejected confirmation denies the order", func(t *testing.T) {
		harness := newTransportHarness(t)
		harness.confirmation <- false

		workflow := NewWorkflow(harness.ports(), fastTimeouts(), logger)

		result, err := workflow.Run(ctx, testOrder(t))

		require.NoError(t, err)
		assert.Equal(t, transport.StateOrderDenied, result.FinalState)
		assert.Equal(t, assembly.ReportedDenied, result.ReportedState)
	})

	t.Run("all vehicles unavailable ends in denial within the horizon", func(t *testing.T) {
		harness := newTransportHarness(t)
		harness.confirmation <- true
		harness.pool.MakeAllUnavailable()

		workflow := NewWorkflow(harness.ports(), fastTimeouts(), logger)
		order := testOrder(t)

		started := time.Now()
		result, err := workflow.Run(ctx, order)

		require.NoError(t, err)
		assert.Equal(t, transport.StateVehicleUnavailable, result.FinalState)
		assert.Equal(t, assembly.ReportedDenied, result.ReportedState)
		assert.Equal(t, []string{order.ID()}, harness.denied)
		assert.Less(t, time.Since(started), time.Second)
		assert.Contains(t, harness.states, transport.StateVehicleUnavailable)
	})

	t.Run("vehicle freed mid-poll is picked up", func(t *testing.T) {
		harness := newTransportHarness(t)
		harness.confirmation <- true
		harness.pool.MakeAllUnavailable()

		timeouts := fastTimeouts()
		timeouts.PollHorizon = time.Second

		workflow := NewWorkflow(harness.ports(), timeouts, logger)

		go func() {
			time.Sleep(20 * time.Millisecond)
			harness.pool.ReleaseAll()
		}()

		result, err := workflow.Run(ctx, testOrder(t))

		require.NoError(t, err)
		assert.Equal(t, transport.StateOrderCompleted, result.FinalState)
	})

	t.Run("cancelled context aborts the confirmation wait", func(t *testing.T) {
		harness := newTransportHarness(t)

		cancelCtx, cancel := context.WithCancel(ctx)
		cancel()

		workflow := NewWorkflow(harness.ports(), DefaultTimeouts(), logger)

		_, err := workflow.Run(cancelCtx, testOrder(t))

		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
