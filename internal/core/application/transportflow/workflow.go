package transportflow

import (
	"context"
	"log/slog"
	"time"

	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/core/domain/model/transport"
)

// Ports bundles the side effects a transport workflow run needs. The service
// wires them per order; tests substitute their own.
type Ports struct {
	// AwaitConfirmation returns the channel carrying the internal
	// confirmation verdict for this order.
	AwaitConfirmation func() <-chan bool

	// AcquireVehicle tries to take a vehicle from the pool. The second
	// return is false when none is available right now.
	AcquireVehicle func() (*transport.Vehicle, bool)

	// ReleaseVehicle hands the vehicle back to the pool.
	ReleaseVehicle func(vehicle *transport.Vehicle)

	// AcceptOrder and DenyOrder publish the ORDER_CONFIRMED reply to the
	// assembly subsystem, correlated by order id.
	AcceptOrder func(ctx context.Context, orderID string) error
	DenyOrder   func(ctx context.Context, orderID string) error

	// NotifyArrival publishes the TRANSPORT_ARRIVED reply.
	NotifyArrival func(ctx context.Context, orderID string) error

	// PerformTransport simulates the pickup, transit and return phases.
	PerformTransport func(ctx context.Context, vehicle *transport.Vehicle, location assembly.Location) error

	// MarkFulfilled records the fulfillment milestone. Fire and forget.
	MarkFulfilled func(ctx context.Context, orderID string, at time.Time)

	// OnTransition observes every workflow state change.
	OnTransition func(orderID string, state transport.WorkflowState)
}

// Timeouts bound the two waits of a transport run.
type Timeouts struct {
	// Confirmation bounds the internal confirmation wait.
	Confirmation time.Duration

	// PollInterval is the sleep between vehicle acquisition attempts.
	PollInterval time.Duration

	// PollHorizon bounds the whole acquisition retry loop. Exceeding it
	// denies the order with AGV_UNAVAILABLE.
	PollHorizon time.Duration
}

// DefaultTimeouts returns the production bounds.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Confirmation: 10 * time.Second,
		PollInterval: 200 * time.Millisecond,
		PollHorizon:  10 * time.Second,
	}
}

// Result is what a finished transport run reports.
type Result struct {
	Order         *assembly.Order
	FinalState    transport.WorkflowState
	ReportedState assembly.ReportedState
}

// Workflow drives one order from receipt to completion or denial. The
// acquired vehicle is held for the whole fulfillment window and released on
// every exit path.
type Workflow struct {
	ports    Ports
	timeouts Timeouts
	logger   *slog.Logger
}

func NewWorkflow(ports Ports, timeouts Timeouts, logger *slog.Logger) *Workflow {
	return &Workflow{
		ports:    ports,
		timeouts: timeouts,
		logger:   logger.With("component", "transport_workflow"),
	}
}

// Run processes the order. A missing confirmation or an exhausted vehicle
// poll is a terminal business outcome, not an error; errors are reserved for
// context cancellation and reply publishing failures.
func (w *Workflow) Run(ctx context.Context, order *assembly.Order) (Result, error) {
	orderID := order.ID()

	w.transition(orderID, transport.StateReceivingOrder)
	w.logger.Info("received transport order", "orderId", orderID)
	w.transition(orderID, transport.StateReceivedOrder)

	w.transition(orderID, transport.StateAwaitingConfirmation)
	confirmed, received, err := w.awaitConfirmation(ctx)
	if err != nil {
		return Result{}, err
	}

	w.transition(orderID, transport.StateEvaluatingConfirmation)
	if !received {
		w.logger.Info("confirmation timed out", "orderId", orderID)
		if err := w.ports.DenyOrder(ctx, orderID); err != nil {
			return Result{}, err
		}
		return w.finish(order, transport.StateOrderTimedOut, assembly.ReportedDenied), nil
	}
	if !confirmed {
		if err := w.ports.DenyOrder(ctx, orderID); err != nil {
			return Result{}, err
		}
		return w.finish(order, transport.StateOrderDenied, assembly.ReportedDenied), nil
	}

	w.transition(orderID, transport.StateCheckingAvailability)
	w.transition(orderID, transport.StateAcquiringVehicle)
	vehicle, err := w.acquireWithRetry(ctx)
	if err != nil {
		return Result{}, err
	}
	if vehicle == nil {
		w.logger.Info("no vehicle available", "orderId", orderID)
		if err := w.ports.DenyOrder(ctx, orderID); err != nil {
			return Result{}, err
		}
		return w.finish(order, transport.StateVehicleUnavailable, assembly.ReportedDenied), nil
	}
	defer w.ports.ReleaseVehicle(vehicle)

	w.transition(orderID, transport.StateVehicleAcquired)
	w.logger.Info("vehicle acquired", "orderId", orderID, "vehicleId", vehicle.ID())

	w.transition(orderID, transport.StateOrderAccepted)
	if err := w.ports.AcceptOrder(ctx, orderID); err != nil {
		return Result{}, err
	}

	w.transition(orderID, transport.StateFulfillingOrder)
	if err := w.ports.PerformTransport(ctx, vehicle, order.DeliveryLocation()); err != nil {
		return Result{}, err
	}
	w.ports.MarkFulfilled(ctx, orderID, time.Now().UTC())

	w.transition(orderID, transport.StateOrderFulfilled)
	if err := w.ports.NotifyArrival(ctx, orderID); err != nil {
		return Result{}, err
	}

	w.logger.Info("order fulfilled", "orderId", orderID)
	return w.finish(order, transport.StateOrderCompleted, assembly.ReportedCompleted), nil
}

func (w *Workflow) awaitConfirmation(ctx context.Context) (confirmed, received bool, err error) {
	timer := time.NewTimer(w.timeouts.Confirmation)
	defer timer.Stop()

	select {
	case confirmed = <-w.ports.AwaitConfirmation():
		return confirmed, true, nil
	case <-timer.C:
		return false, false, nil
	case <-ctx.Done():
		return false, false, ctx.Err()
	}
}

// acquireWithRetry polls the pool at the configured interval until a vehicle
// is available or the horizon passes. A nil vehicle with a nil error means
// the horizon was exhausted.
func (w *Workflow) acquireWithRetry(ctx context.Context) (*transport.Vehicle, error) {
	deadline := time.Now().Add(w.timeouts.PollHorizon)
	for {
		if vehicle, ok := w.ports.AcquireVehicle(); ok {
			return vehicle, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}

		timer := time.NewTimer(w.timeouts.PollInterval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}

func (w *Workflow) finish(order *assembly.Order, terminal transport.WorkflowState, reported assembly.ReportedState) Result {
	w.transition(order.ID(), terminal)
	w.transition(order.ID(), transport.StateIdle)
	return Result{Order: order, FinalState: terminal, ReportedState: reported}
}

func (w *Workflow) transition(orderID string, state transport.WorkflowState) {
	w.logger.Debug("state transition", "orderId", orderID, "state", state.String())
	if w.ports.OnTransition != nil {
		w.ports.OnTransition(orderID, state)
	}
}
