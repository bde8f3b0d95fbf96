package outboxrepo

import (
	"context"
	"time"

	"mfps/internal/core/ports"
	"mfps/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOutboxRepository implements the outbox store using GORM.
type GormOutboxRepository struct {
	db *gorm.DB
}

// NewGormOutboxRepository creates a new GORM outbox repository.
func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

// Save stages a record for delivery. Saving the same message id again is a
// no-op, which makes redelivered SENDING messages harmless.
func (r *GormOutboxRepository) Save(ctx context.Context, record ports.OutboxRecord) error {
	if record.MessageID == "" {
		return errs.NewValueIsRequiredError("messageId")
	}

	dto, err := fromDomain(record)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).
		Create(&dto).Error
}

// MarkDispatched stamps the record once. A second call for the same message
// id leaves the first timestamp intact; an unknown id is an error.
func (r *GormOutboxRepository) MarkDispatched(ctx context.Context, messageID string) error {
	result := r.db.WithContext(ctx).
		Model(&OutboxRecordDTO{}).
		Where("message_id = ? AND dispatched_at IS NULL", messageID).
		Update("dispatched_at", time.Now().UTC())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&OutboxRecordDTO{}).
		Where("message_id = ?", messageID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return errs.NewObjectNotFoundError("outboxRecord", messageID)
	}
	return nil
}

// FindPending returns up to limit undispatched records, oldest first.
func (r *GormOutboxRepository) FindPending(ctx context.Context, limit int) ([]ports.OutboxRecord, error) {
	var dtos []OutboxRecordDTO
	query := r.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	records := make([]ports.OutboxRecord, 0, len(dtos))
	for _, dto := range dtos {
		record, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}
