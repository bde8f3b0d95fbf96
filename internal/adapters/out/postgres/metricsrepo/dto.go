// Package metricsrepo persists order fulfillment metrics: per-order latency
// milestones, raw workflow state transitions and admission queue events.
package metricsrepo

import (
	"time"

	"mfps/internal/core/domain/model/assembly"
)

// OrderMetricsDTO is one row per order, filled in milestone by milestone.
type OrderMetricsDTO struct {
	OrderID                string `gorm:"primaryKey"`
	SentAt                 *time.Time
	ConfirmationAt         *time.Time
	ConfirmationLatencyMs  *int64
	AcceptedAt             *time.Time
	AssemblingStartedAt    *time.Time
	AcceptedToAssemblingMs *int64
	TransportFulfilledAt   *time.Time
	AssemblyCompletedAt    *time.Time
	FinalState             string
	TestRunID              string `gorm:"index"`
}

// TableName specifies the database table name for order metrics.
func (OrderMetricsDTO) TableName() string {
	return "order_metrics"
}

// StateTransitionDTO is one row per observed workflow state change.
type StateTransitionDTO struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	OrderID string `gorm:"index"`
	State   string
	At      time.Time
}

// TableName specifies the database table name for state transitions.
func (StateTransitionDTO) TableName() string {
	return "state_transitions"
}

// QueueEventDTO is one row per admission queue event (enqueued, drained,
// rejected) with the queue depth at that moment.
type QueueEventDTO struct {
	ID    uint `gorm:"primaryKey;autoIncrement"`
	Event string
	Depth int
	At    time.Time
}

// TableName specifies the database table name for queue events.
func (QueueEventDTO) TableName() string {
	return "queue_events"
}

func toDomain(dto OrderMetricsDTO) assembly.OrderMetrics {
	return assembly.OrderMetrics{
		OrderID:                dto.OrderID,
		SentAt:                 dto.SentAt,
		ConfirmationAt:         dto.ConfirmationAt,
		ConfirmationLatencyMs:  dto.ConfirmationLatencyMs,
		AcceptedAt:             dto.AcceptedAt,
		AssemblingStartedAt:    dto.AssemblingStartedAt,
		AcceptedToAssemblingMs: dto.AcceptedToAssemblingMs,
		TransportFulfilledAt:   dto.TransportFulfilledAt,
		AssemblyCompletedAt:    dto.AssemblyCompletedAt,
		FinalState:             dto.FinalState,
		TestRunID:              dto.TestRunID,
	}
}
