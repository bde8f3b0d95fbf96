package assemblyflow

import (
	"context"
	"log/slog"
	"time"

	"mfps/internal/core/domain/model/assembly"
)

// Workflow runs a single order through the assembly state sequence. It is
// created per order by the orchestrator and discarded after Run returns.
type Workflow struct {
	ports    Ports
	timeouts assembly.Timeouts
	logger   *slog.Logger
}

// NewWorkflow creates a workflow over the given ports and timeouts.
func NewWorkflow(ports Ports, timeouts assembly.Timeouts, logger *slog.Logger) *Workflow {
	return &Workflow{
		ports:    ports,
		timeouts: timeouts,
		logger:   logger.With("component", "assembly_workflow"),
	}
}

// Run drives the order created from the blueprint to a terminal outcome.
// onCreated is invoked once, right after the order exists, so the caller can
// resolve its admission reply before the long waits begin. Timeouts and
// denials are business outcomes, not errors: Run returns an error only for
// invalid input, a failed send or a cancelled context.
func (w *Workflow) Run(ctx context.Context, blueprint assembly.Blueprint, line assembly.Location, onCreated func(*assembly.Order)) (assembly.Result, error) {
	w.transition(ctx, "", assembly.StateCreatingOrder)

	order, err := assembly.NewOrder(blueprint, line)
	if err != nil {
		return assembly.Result{}, err
	}
	if onCreated != nil {
		onCreated(order)
	}
	w.transition(ctx, order.ID(), assembly.StateOrderCreated)

	w.transition(ctx, order.ID(), assembly.StateSendingOrder)
	if err := w.ports.SendOrder(ctx, order); err != nil {
		return assembly.Result{}, err
	}
	sentAt := time.Now().UTC()
	w.ports.MarkSent(ctx, order.ID(), sentAt)

	w.transition(ctx, order.ID(), assembly.StateReceivingConfirmation)
	confirmation, confirmed, err := w.awaitConfirmation(ctx)
	if err != nil {
		return assembly.Result{}, err
	}

	w.transition(ctx, order.ID(), assembly.StateEvaluatingConfirmation)
	switch {
	case !confirmed:
		w.transition(ctx, order.ID(), assembly.StateOrderTimedOut)
		return w.finish(ctx, order, assembly.StateOrderTimedOut, assembly.ReportedDenied), nil
	case !confirmation:
		w.transition(ctx, order.ID(), assembly.StateOrderDenied)
		return w.finish(ctx, order, assembly.StateOrderDenied, assembly.ReportedDenied), nil
	}

	confirmedAt := time.Now().UTC()
	w.ports.MarkConfirmed(ctx, order.ID(), confirmedAt, confirmedAt.Sub(sentAt).Milliseconds())
	w.transition(ctx, order.ID(), assembly.StateOrderAccepted)
	acceptedAt := time.Now().UTC()
	w.ports.MarkAccepted(ctx, order.ID(), acceptedAt)
	w.ports.NotifyStatus(ctx, order.ID(), assembly.ReportedAccepted)

	w.transition(ctx, order.ID(), assembly.StateWaitingForTransport)
	delivered, err := w.awaitArrival(ctx)
	if err != nil {
		return assembly.Result{}, err
	}
	if !delivered {
		w.transition(ctx, order.ID(), assembly.StateOrderTimedOut)
		return w.finish(ctx, order, assembly.StateOrderTimedOut, assembly.ReportedDenied), nil
	}

	if err := w.ports.AcquirePermit(ctx, line); err != nil {
		return assembly.Result{}, err
	}
	defer w.ports.ReleasePermit(line)

	w.transition(ctx, order.ID(), assembly.StateAssembling)
	startedAt := time.Now().UTC()
	w.ports.MarkAssembling(ctx, order.ID(), startedAt, startedAt.Sub(acceptedAt).Milliseconds())

	outcome, validated, err := w.awaitValidation(ctx)
	if err != nil {
		return assembly.Result{}, err
	}
	switch {
	case !validated:
		w.transition(ctx, order.ID(), assembly.StateAssemblyTimedOut)
		return w.finish(ctx, order, assembly.StateAssemblyTimedOut, assembly.ReportedDenied), nil
	case outcome == assembly.OutcomeInvalid:
		return w.finish(ctx, order, assembly.StateAssembling, assembly.ReportedDenied), nil
	}

	w.transition(ctx, order.ID(), assembly.StateAssemblyCompleted)
	w.ports.MarkCompleted(ctx, order.ID(), time.Now().UTC())
	return w.finish(ctx, order, assembly.StateAssemblyCompleted, assembly.ReportedCompleted), nil
}

// awaitConfirmation races the confirmation signal against its timeout. The
// second return value is false when the deadline won.
func (w *Workflow) awaitConfirmation(ctx context.Context) (bool, bool, error) {
	timer := time.NewTimer(w.timeouts.Confirmation)
	defer timer.Stop()

	select {
	case accepted := <-w.ports.AwaitConfirmation():
		return accepted, true, nil
	case <-timer.C:
		return false, false, nil
	case <-ctx.Done():
		return false, false, ctx.Err()
	}
}

func (w *Workflow) awaitArrival(ctx context.Context) (bool, error) {
	timer := time.NewTimer(w.timeouts.Delivery)
	defer timer.Stop()

	select {
	case <-w.ports.AwaitArrival():
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (w *Workflow) awaitValidation(ctx context.Context) (assembly.ValidationOutcome, bool, error) {
	timer := time.NewTimer(w.timeouts.Validation)
	defer timer.Stop()

	select {
	case outcome := <-w.ports.AwaitValidation():
		return outcome, true, nil
	case <-timer.C:
		return assembly.OutcomeUnknown, false, nil
	case <-ctx.Done():
		return assembly.OutcomeUnknown, false, ctx.Err()
	}
}

// finish reports the outcome, records the final state and returns the
// result. Every terminal branch funnels through here.
func (w *Workflow) finish(ctx context.Context, order *assembly.Order, terminal assembly.WorkflowState, reported assembly.ReportedState) assembly.Result {
	w.transition(ctx, order.ID(), assembly.StateNotifyingStatus)
	w.ports.NotifyStatus(ctx, order.ID(), reported)
	w.ports.RecordFinal(ctx, order, reported)
	w.transition(ctx, order.ID(), assembly.StateIdle)

	w.logger.Info("workflow finished",
		"orderId", order.ID(),
		"finalState", terminal.String(),
		"reported", reported.String())

	return assembly.Result{Order: order, FinalState: terminal, ReportedState: reported}
}

func (w *Workflow) transition(_ context.Context, orderID string, state assembly.WorkflowState) {
	w.ports.Emit(assembly.NewStateEvent(orderID, state))
}
