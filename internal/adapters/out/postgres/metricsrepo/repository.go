package metricsrepo

import (
	"context"
	"errors"
	"time"

	"mfps/internal/core/domain/model/assembly"
	"mfps/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMetricsRepository implements the metrics sink using GORM.
type GormMetricsRepository struct {
	db *gorm.DB
}

// NewGormMetricsRepository creates a new GORM metrics repository.
func NewGormMetricsRepository(db *gorm.DB) *GormMetricsRepository {
	return &GormMetricsRepository{db: db}
}

// upsert ensures the order's row exists and applies the milestone columns.
func (r *GormMetricsRepository) upsert(ctx context.Context, orderID string, assignments map[string]any) error {
	if orderID == "" {
		return errs.NewValueIsRequiredError("orderId")
	}

	dto := OrderMetricsDTO{OrderID: orderID}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(&dto).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&OrderMetricsDTO{}).
		Where("order_id = ?", orderID).
		Updates(assignments).Error
}

// MarkOrderSent records the TRANSPORT_ORDER publication time.
func (r *GormMetricsRepository) MarkOrderSent(ctx context.Context, orderID string, sentAt time.Time, testRunID string) error {
	return r.upsert(ctx, orderID, map[string]any{
		"sent_at":     sentAt,
		"test_run_id": testRunID,
	})
}

// MarkOrderConfirmed records the confirmation time and the send-to-confirm
// latency.
func (r *GormMetricsRepository) MarkOrderConfirmed(ctx context.Context, orderID string, confirmedAt time.Time, latencyMs int64) error {
	return r.upsert(ctx, orderID, map[string]any{
		"confirmation_at":         confirmedAt,
		"confirmation_latency_ms": latencyMs,
	})
}

// MarkOrderAccepted records the acceptance time.
func (r *GormMetricsRepository) MarkOrderAccepted(ctx context.Context, orderID string, acceptedAt time.Time) error {
	return r.upsert(ctx, orderID, map[string]any{"accepted_at": acceptedAt})
}

// MarkAssemblingStarted records the assembly start. A negative latency means
// the acceptance time was unknown; the column stays empty.
func (r *GormMetricsRepository) MarkAssemblingStarted(ctx context.Context, orderID string, startedAt time.Time, acceptedToAssemblingMs int64) error {
	assignments := map[string]any{"assembling_started_at": startedAt}
	if acceptedToAssemblingMs >= 0 {
		assignments["accepted_to_assembling_ms"] = acceptedToAssemblingMs
	}
	return r.upsert(ctx, orderID, assignments)
}

// MarkTransportFulfilled records the delivery completion time.
func (r *GormMetricsRepository) MarkTransportFulfilled(ctx context.Context, orderID string, fulfilledAt time.Time) error {
	return r.upsert(ctx, orderID, map[string]any{"transport_fulfilled_at": fulfilledAt})
}

// MarkAssemblyCompleted records the assembly completion time.
func (r *GormMetricsRepository) MarkAssemblyCompleted(ctx context.Context, orderID string, completedAt time.Time) error {
	return r.upsert(ctx, orderID, map[string]any{"assembly_completed_at": completedAt})
}

// RecordFinalState records the terminal reported state of the order.
func (r *GormMetricsRepository) RecordFinalState(ctx context.Context, order *assembly.Order, state assembly.ReportedState) error {
	if err := order.Validate(); err != nil {
		return err
	}
	if err := state.Validate(); err != nil {
		return err
	}
	return r.upsert(ctx, order.ID(), map[string]any{"final_state": state.String()})
}

// RecordStateTransition appends one raw workflow state change.
func (r *GormMetricsRepository) RecordStateTransition(ctx context.Context, orderID, state string, at time.Time) error {
	dto := StateTransitionDTO{OrderID: orderID, State: state, At: at}
	return r.db.WithContext(ctx).Create(&dto).Error
}

// RecordQueueEvent appends one admission queue event.
func (r *GormMetricsRepository) RecordQueueEvent(ctx context.Context, event string, depth int, at time.Time) error {
	dto := QueueEventDTO{Event: event, Depth: depth, At: at}
	return r.db.WithContext(ctx).Create(&dto).Error
}

// Get retrieves the metrics row of an order.
func (r *GormMetricsRepository) Get(ctx context.Context, orderID string) (assembly.OrderMetrics, error) {
	var dto OrderMetricsDTO
	if err := r.db.WithContext(ctx).First(&dto, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return assembly.OrderMetrics{}, errs.NewObjectNotFoundError("orderMetrics", orderID)
		}
		return assembly.OrderMetrics{}, err
	}
	return toDomain(dto), nil
}
