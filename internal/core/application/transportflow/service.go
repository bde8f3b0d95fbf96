package transportflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/core/domain/model/comms"
	"mfps/internal/core/domain/model/transport"
	"mfps/internal/core/ports"
	"mfps/internal/pkg/errs"
)

// MessageAcceptor admits a reply message into the pipeline. Implemented by
// pipeline.ReceiveStage.
type MessageAcceptor interface {
	Accept(ctx context.Context, from, to, msgType, payload, correlationID string) (string, error)
}

// Config holds the transport side settings.
type Config struct {
	Timeouts Timeouts

	// AutoConfirm drives the internal confirmation automatically after the
	// configured delay, as the demo topology has no dispatcher answering.
	AutoConfirm      bool
	AutoConfirmAfter time.Duration

	// PickupTime and ReturnTime pad the fulfillment phase on both ends.
	// TransitPerMinute scales a location's estimated transit minutes down
	// to simulation time.
	PickupTime       time.Duration
	ReturnTime       time.Duration
	TransitPerMinute time.Duration
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		Timeouts:         DefaultTimeouts(),
		AutoConfirm:      true,
		AutoConfirmAfter: time.Second,
		PickupTime:       500 * time.Millisecond,
		ReturnTime:       500 * time.Millisecond,
		TransitPerMinute: 60 * time.Millisecond,
	}
}

// Service runs one transport workflow per inbound order against the shared
// vehicle fleet and replies to assembly through the pipeline.
type Service struct {
	acceptor MessageAcceptor
	pool     *transport.VehiclePool
	metrics  ports.MetricsSink
	cfg      Config
	logger   *slog.Logger

	mu            sync.Mutex
	confirmations map[string]chan bool
	states        map[string]transport.WorkflowState
}

// NewService creates the transport service over the given fleet.
func NewService(acceptor MessageAcceptor, pool *transport.VehiclePool, metrics ports.MetricsSink, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		acceptor:      acceptor,
		pool:          pool,
		metrics:       metrics,
		cfg:           cfg,
		logger:        logger.With("component", "transport_service"),
		confirmations: make(map[string]chan bool),
		states:        make(map[string]transport.WorkflowState),
	}
}

// HandleOrder runs the workflow for one inbound order to completion. The bus
// listener calls it on its own goroutine per order.
func (s *Service) HandleOrder(ctx context.Context, order *assembly.Order) (Result, error) {
	orderID := order.ID()

	confirmation := make(chan bool, 1)
	s.mu.Lock()
	s.confirmations[orderID] = confirmation
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.confirmations, orderID)
		delete(s.states, orderID)
		s.mu.Unlock()
	}()

	if s.cfg.AutoConfirm {
		go s.autoConfirm(ctx, confirmation)
	}

	workflow := NewWorkflow(s.portsFor(confirmation, order.DeliveryLocation()), s.cfg.Timeouts, s.logger)
	result, err := workflow.Run(ctx, order)
	if err != nil {
		s.logger.Error("transport workflow failed", "orderId", orderID, "error", err)
		return Result{}, err
	}

	s.logger.Info("transport workflow finished",
		"orderId", orderID, "finalState", result.FinalState.String())
	return result, nil
}

// Confirm resolves the confirmation wait of an in-flight order, overriding
// the autopilot when it arrives first.
func (s *Service) Confirm(orderID string, accepted bool) error {
	s.mu.Lock()
	confirmation, ok := s.confirmations[orderID]
	s.mu.Unlock()
	if !ok {
		return errs.NewObjectNotFoundError("order", orderID)
	}
	select {
	case confirmation <- accepted:
	default:
	}
	return nil
}

// Vehicles returns a snapshot of the whole fleet.
func (s *Service) Vehicles() []transport.VehicleInfo {
	return s.pool.Snapshot()
}

// AvailableVehicles returns the currently acquirable part of the fleet.
func (s *Service) AvailableVehicles() []transport.VehicleInfo {
	return s.pool.CheckAvailability()
}

// OrderState returns the last observed workflow state of an in-flight order.
// Finished orders are pruned from the registry.
func (s *Service) OrderState(orderID string) (transport.WorkflowState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[orderID]
	if !ok {
		return transport.StateWorkflowUnknown, errs.NewObjectNotFoundError("order", orderID)
	}
	return state, nil
}

func (s *Service) portsFor(confirmation <-chan bool, destination assembly.Location) Ports {
	return Ports{
		AwaitConfirmation: func() <-chan bool { return confirmation },
		AcquireVehicle: func() (*transport.Vehicle, bool) {
			return s.pool.Acquire(destination)
		},
		ReleaseVehicle: s.pool.Release,
		AcceptOrder: func(ctx context.Context, orderID string) error {
			return s.reply(ctx, orderID, comms.TypeOrderConfirmed, mustConfirmation(orderID, true))
		},
		DenyOrder: func(ctx context.Context, orderID string) error {
			return s.reply(ctx, orderID, comms.TypeOrderConfirmed, mustConfirmation(orderID, false))
		},
		NotifyArrival: func(ctx context.Context, orderID string) error {
			payload, err := assembly.EncodeArrival(orderID)
			if err != nil {
				return err
			}
			return s.reply(ctx, orderID, comms.TypeTransportArrived, payload)
		},
		PerformTransport: s.performTransport,
		MarkFulfilled: func(ctx context.Context, orderID string, at time.Time) {
			if err := s.metrics.MarkTransportFulfilled(ctx, orderID, at); err != nil {
				s.logger.Error("markTransportFulfilled failed", "orderId", orderID, "error", err)
			}
		},
		OnTransition: func(orderID string, state transport.WorkflowState) {
			s.mu.Lock()
			s.states[orderID] = state
			s.mu.Unlock()
		},
	}
}

func (s *Service) reply(ctx context.Context, orderID, msgType, payload string) error {
	_, err := s.acceptor.Accept(ctx,
		comms.SubsystemTransport, comms.SubsystemAssembly, msgType, payload, orderID)
	return err
}

// performTransport walks the vehicle through pickup, transit and return on
// scaled-down simulation time.
func (s *Service) performTransport(ctx context.Context, vehicle *transport.Vehicle, location assembly.Location) error {
	s.logger.Info("picking up parts", "vehicleId", vehicle.ID())
	if err := sleep(ctx, s.cfg.PickupTime); err != nil {
		return err
	}

	transit := time.Duration(location.TransitTime()/time.Minute) * s.cfg.TransitPerMinute
	s.logger.Info("delivering",
		"vehicleId", vehicle.ID(), "location", location.String(), "transitTime", location.TransitTime())
	if err := sleep(ctx, transit); err != nil {
		return err
	}

	s.logger.Info("returning to warehouse", "vehicleId", vehicle.ID())
	return sleep(ctx, s.cfg.ReturnTime)
}

func (s *Service) autoConfirm(ctx context.Context, confirmation chan bool) {
	timer := time.NewTimer(s.cfg.AutoConfirmAfter)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
		select {
		case confirmation <- true:
		default:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mustConfirmation encodes a confirmation payload. The payload is a fixed
// two-field object; encoding cannot fail for valid inputs.
func mustConfirmation(orderID string, accepted bool) string {
	payload, err := assembly.EncodeConfirmation(orderID, accepted)
	if err != nil {
		return `{"orderId":"` + orderID + `","accepted":false}`
	}
	return payload
}
