// Package outboxrepo provides data transfer objects and mapping functions for
// outbox persistence. It implements the transactional-outbox store over a
// relational table so staged deliveries survive a process crash.
package outboxrepo

import (
	"encoding/json"
	"time"

	"mfps/internal/core/ports"
)

// OutboxRecordDTO represents the database structure for staged deliveries.
// Headers are stored as a JSON document; the created_at index serves the
// oldest-first pending scan.
type OutboxRecordDTO struct {
	MessageID    string `gorm:"primaryKey"`
	Payload      string `gorm:"type:text"`
	Headers      string `gorm:"type:text"`
	CreatedAt    time.Time
	DispatchedAt *time.Time `gorm:"index"`
}

// TableName specifies the database table name for outbox records.
func (OutboxRecordDTO) TableName() string {
	return "outbox_records"
}

func fromDomain(record ports.OutboxRecord) (OutboxRecordDTO, error) {
	headers := "{}"
	if len(record.Headers) > 0 {
		raw, err := json.Marshal(record.Headers)
		if err != nil {
			return OutboxRecordDTO{}, err
		}
		headers = string(raw)
	}

	return OutboxRecordDTO{
		MessageID:    record.MessageID,
		Payload:      record.Payload,
		Headers:      headers,
		CreatedAt:    record.CreatedAt,
		DispatchedAt: record.DispatchedAt,
	}, nil
}

func toDomain(dto OutboxRecordDTO) (ports.OutboxRecord, error) {
	var headers map[string]string
	if dto.Headers != "" {
		if err := json.Unmarshal([]byte(dto.Headers), &headers); err != nil {
			return ports.OutboxRecord{}, err
		}
	}

	return ports.OutboxRecord{
		MessageID:    dto.MessageID,
		Payload:      dto.Payload,
		Headers:      headers,
		CreatedAt:    dto.CreatedAt,
		DispatchedAt: dto.DispatchedAt,
	}, nil
}
