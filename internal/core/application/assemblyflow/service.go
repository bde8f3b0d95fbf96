package assemblyflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/core/domain/model/comms"
	"mfps/internal/core/domain/services"
	"mfps/internal/core/ports"
	"mfps/internal/pkg/errs"
	"mfps/internal/pkg/pubsub"
)

// ErrQueueFull is returned by SubmitOrder when the admission queue is at
// capacity. The caller should retry later; the order was not admitted.
var ErrQueueFull = errors.New("order queue is full, try again later")

// MessageAcceptor admits a message into the pipeline. Implemented by
// pipeline.ReceiveStage.
type MessageAcceptor interface {
	Accept(ctx context.Context, from, to, msgType, payload, correlationID string) (string, error)
}

// Config holds the orchestrator settings.
type Config struct {
	// QueueCapacity bounds the admission queue.
	QueueCapacity int

	// Timeouts bound the workflow waits.
	Timeouts assembly.Timeouts

	// EventBufferSize is the per-subscriber buffer of the live event stream.
	EventBufferSize int

	// Autopilot, when enabled, drives an admitted order's validation signal
	// automatically after the configured delay. Used in demo wiring where no
	// quality subsystem sends ASSEMBLY_VALIDATED.
	AutopilotEnabled       bool
	AutopilotValidateAfter time.Duration

	// TestRunID tags metrics rows of a load-test run, empty in production.
	TestRunID string
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:          100,
		Timeouts:               assembly.DefaultTimeouts(),
		EventBufferSize:        64,
		AutopilotValidateAfter: 2 * time.Second,
	}
}

type admission struct {
	blueprint assembly.Blueprint
	line      assembly.Location
	reply     chan admissionResult
}

type admissionResult struct {
	order *assembly.Order
	err   error
}

// signals holds the per-order channels the workflow awaits. Each channel is
// buffered with capacity one; a second signal of the same kind is dropped.
type signals struct {
	confirmation chan bool
	arrival      chan struct{}
	validation   chan assembly.ValidationOutcome
}

// Service is the assembly orchestrator: it admits blueprints into a bounded
// queue, routes each to the least loaded line, runs one workflow per order
// and fans the resulting events out to subscribers.
type Service struct {
	acceptor MessageAcceptor
	metrics  ports.MetricsSink
	router   *services.LineRouter
	cfg      Config
	logger   *slog.Logger

	queue     chan admission
	queueSize atomic.Int64

	events *pubsub.Broadcaster[assembly.Event]

	permits          map[assembly.Location]chan struct{}
	activeAssemblies atomic.Int64

	mu       sync.Mutex
	inFlight map[string]*signals
	reported map[string]assembly.ReportedState
}

// NewService creates the orchestrator. Call Start before submitting orders.
func NewService(acceptor MessageAcceptor, metrics ports.MetricsSink, router *services.LineRouter, cfg Config, logger *slog.Logger) *Service {
	if cfg.QueueCapacity <= 0 {
		cfg.QueueCapacity = DefaultConfig().QueueCapacity
	}
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = DefaultConfig().EventBufferSize
	}

	permits := make(map[assembly.Location]chan struct{}, len(assembly.AllLines()))
	for _, line := range assembly.AllLines() {
		permits[line] = make(chan struct{}, 1)
	}

	return &Service{
		acceptor: acceptor,
		metrics:  metrics,
		router:   router,
		cfg:      cfg,
		logger:   logger.With("component", "assembly_service"),
		queue:    make(chan admission, cfg.QueueCapacity),
		events:   pubsub.NewBroadcaster[assembly.Event](cfg.EventBufferSize),
		permits:  permits,
		inFlight: make(map[string]*signals),
		reported: make(map[string]assembly.ReportedState),
	}
}

// Start launches the admission drain loop. The loop stops when ctx ends.
func (s *Service) Start(ctx context.Context) {
	go s.drainLoop(ctx)
}

// SubmitOrder admits a blueprint. It blocks until the order is created by
// its workflow (not until the workflow finishes) and returns the created
// order. A full queue fails immediately with ErrQueueFull.
func (s *Service) SubmitOrder(ctx context.Context, blueprint assembly.Blueprint) (*assembly.Order, error) {
	if err := blueprint.Validate(); err != nil {
		return nil, err
	}

	line := s.router.Route()
	req := admission{
		blueprint: blueprint,
		line:      line,
		reply:     make(chan admissionResult, 1),
	}

	select {
	case s.queue <- req:
	default:
		s.router.Done(line)
		s.recordQueueEvent(ctx, "rejected")
		return nil, ErrQueueFull
	}

	depth := s.queueSize.Add(1)
	s.logger.Info("order admitted", "line", line.String(), "queueDepth", depth)
	s.recordQueueEvent(ctx, "enqueued")

	select {
	case result := <-req.reply:
		return result.order, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Confirm resolves the confirmation wait of an in-flight order.
func (s *Service) Confirm(orderID string, accepted bool) error {
	sig, err := s.lookup(orderID)
	if err != nil {
		return err
	}
	select {
	case sig.confirmation <- accepted:
	default:
	}
	return nil
}

// SignalArrival resolves the transport arrival wait of an in-flight order.
func (s *Service) SignalArrival(orderID string) error {
	sig, err := s.lookup(orderID)
	if err != nil {
		return err
	}
	select {
	case sig.arrival <- struct{}{}:
	default:
	}
	return nil
}

// Validate resolves the validation wait of an in-flight order.
func (s *Service) Validate(orderID string, valid bool) error {
	sig, err := s.lookup(orderID)
	if err != nil {
		return err
	}
	outcome := assembly.OutcomeValid
	if !valid {
		outcome = assembly.OutcomeInvalid
	}
	select {
	case sig.validation <- outcome:
	default:
	}
	return nil
}

// Events returns a live event stream subscription with drop-oldest overflow.
func (s *Service) Events() (<-chan assembly.Event, func()) {
	return s.events.Subscribe()
}

// SystemState is the coarse overall signal: ASSEMBLING while at least one
// line is busy, IDLE otherwise.
func (s *Service) SystemState() assembly.WorkflowState {
	if s.activeAssemblies.Load() > 0 {
		return assembly.StateAssembling
	}
	return assembly.StateIdle
}

// QueueDepth returns the number of admitted-but-not-yet-drained orders.
func (s *Service) QueueDepth() int {
	return int(s.queueSize.Load())
}

// OrderState returns the last reported state of an order.
func (s *Service) OrderState(orderID string) (assembly.ReportedState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.reported[orderID]
	if !ok {
		return assembly.ReportedUnknown, errs.NewObjectNotFoundError("order", orderID)
	}
	return state, nil
}

func (s *Service) drainLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-s.queue:
			depth := s.queueSize.Add(-1)
			if depth < 0 {
				s.queueSize.Store(0)
			}
			s.recordQueueEvent(ctx, "drained")
			// Admission is drained one at a time; execution runs
			// concurrently per order.
			go s.runOne(ctx, req)
		}
	}
}

func (s *Service) runOne(ctx context.Context, req admission) {
	defer s.router.Done(req.line)

	var orderID string
	sig := &signals{
		confirmation: make(chan bool, 1),
		arrival:      make(chan struct{}, 1),
		validation:   make(chan assembly.ValidationOutcome, 1),
	}

	onCreated := func(order *assembly.Order) {
		orderID = order.ID()
		s.mu.Lock()
		s.inFlight[orderID] = sig
		s.reported[orderID] = assembly.ReportedInProgress
		s.mu.Unlock()

		req.reply <- admissionResult{order: order}

		if s.cfg.AutopilotEnabled {
			go s.autopilot(ctx, orderID)
		}
	}

	workflow := NewWorkflow(s.portsFor(sig), s.cfg.Timeouts, s.logger)
	result, err := workflow.Run(ctx, req.blueprint, req.line, onCreated)

	s.mu.Lock()
	if orderID != "" {
		delete(s.inFlight, orderID)
		if err == nil {
			s.reported[orderID] = result.ReportedState
		}
	}
	s.mu.Unlock()

	if err != nil {
		if orderID == "" {
			// Creation failed; the submitter is still waiting.
			req.reply <- admissionResult{err: err}
			return
		}
		s.logger.Error("workflow failed", "orderId", orderID, "error", err)
	}
}

// portsFor builds the per-order side-effect bundle backed by the pipeline,
// the metrics sink and the event stream.
func (s *Service) portsFor(sig *signals) Ports {
	return Ports{
		SendOrder: func(ctx context.Context, order *assembly.Order) error {
			payload, err := assembly.EncodeOrder(order)
			if err != nil {
				return err
			}
			_, err = s.acceptor.Accept(ctx,
				comms.SubsystemAssembly, comms.SubsystemTransport,
				comms.TypeTransportOrder, payload, order.ID())
			return err
		},
		AwaitConfirmation: func() <-chan bool { return sig.confirmation },
		AwaitArrival:      func() <-chan struct{} { return sig.arrival },
		AwaitValidation:   func() <-chan assembly.ValidationOutcome { return sig.validation },
		NotifyStatus: func(ctx context.Context, orderID string, state assembly.ReportedState) {
			s.mu.Lock()
			s.reported[orderID] = state
			s.mu.Unlock()
			s.events.Publish(assembly.NewStatusEvent(orderID, state))
		},
		AcquirePermit: s.acquirePermit,
		ReleasePermit: s.releasePermit,
		Emit:          s.emit,
		MarkSent: func(ctx context.Context, orderID string, at time.Time) {
			s.mark(orderID, "markOrderSent", s.metrics.MarkOrderSent(ctx, orderID, at, s.cfg.TestRunID))
		},
		MarkConfirmed: func(ctx context.Context, orderID string, at time.Time, latencyMs int64) {
			s.mark(orderID, "markOrderConfirmed", s.metrics.MarkOrderConfirmed(ctx, orderID, at, latencyMs))
		},
		MarkAccepted: func(ctx context.Context, orderID string, at time.Time) {
			s.mark(orderID, "markOrderAccepted", s.metrics.MarkOrderAccepted(ctx, orderID, at))
		},
		MarkAssembling: func(ctx context.Context, orderID string, at time.Time, acceptedToAssemblingMs int64) {
			s.mark(orderID, "markAssemblingStarted", s.metrics.MarkAssemblingStarted(ctx, orderID, at, acceptedToAssemblingMs))
		},
		MarkCompleted: func(ctx context.Context, orderID string, at time.Time) {
			s.mark(orderID, "markAssemblyCompleted", s.metrics.MarkAssemblyCompleted(ctx, orderID, at))
		},
		RecordFinal: func(ctx context.Context, order *assembly.Order, state assembly.ReportedState) {
			s.mark(order.ID(), "recordFinalState", s.metrics.RecordFinalState(ctx, order, state))
		},
	}
}

func (s *Service) acquirePermit(ctx context.Context, line assembly.Location) error {
	select {
	case s.permits[line] <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	if s.activeAssemblies.Add(1) == 1 {
		s.emit(assembly.NewLogEvent("", "system state: "+assembly.StateAssembling.String()))
	}
	return nil
}

func (s *Service) releasePermit(line assembly.Location) {
	select {
	case <-s.permits[line]:
	default:
	}

	if s.activeAssemblies.Add(-1) <= 0 {
		s.activeAssemblies.Store(0)
		s.emit(assembly.NewLogEvent("", "system state: "+assembly.StateIdle.String()))
	}
}

// emit publishes to the live stream and records the raw transition for state
// events. Recording failures never reach the workflow.
func (s *Service) emit(event assembly.Event) {
	s.events.Publish(event)

	if event.Kind == assembly.EventState {
		if err := s.metrics.RecordStateTransition(context.Background(), event.OrderID, event.StateName, event.Timestamp); err != nil {
			s.logger.Error("recordStateTransition failed", "orderId", event.OrderID, "error", err)
		}
	}
}

// mark logs a failed milestone recording and mirrors it on the event stream,
// keeping the workflow itself untouched.
func (s *Service) mark(orderID, operation string, err error) {
	if err == nil {
		return
	}
	s.logger.Error(operation+" failed", "orderId", orderID, "error", err)
	s.events.Publish(assembly.NewLogEvent(orderID, operation+" failed: "+err.Error()))
}

func (s *Service) recordQueueEvent(ctx context.Context, event string) {
	if err := s.metrics.RecordQueueEvent(ctx, event, s.QueueDepth(), time.Now().UTC()); err != nil {
		s.logger.Error("recordQueueEvent failed", "event", event, "error", err)
	}
}

func (s *Service) lookup(orderID string) (*signals, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.inFlight[orderID]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", orderID)
	}
	return sig, nil
}

// autopilot drives the validation signal for demo wiring. Confirmation and
// arrival come from the transport subsystem; only the quality verdict has no
// sender in the demo topology.
func (s *Service) autopilot(ctx context.Context, orderID string) {
	timer := time.NewTimer(s.cfg.AutopilotValidateAfter)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		s.mu.Lock()
		_, inFlight := s.inFlight[orderID]
		s.mu.Unlock()
		if !inFlight {
			return
		}
		if err := s.Validate(orderID, true); err != nil {
			return
		}
		// The buffered signal may have fired before the workflow reached
		// ASSEMBLING; retry until the order leaves the registry.
		timer.Reset(s.cfg.AutopilotValidateAfter)
	}
}
