package models

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
)

// OutboxEntryModel is a row of outbox_events. Rows are written in the same
// transaction as the aggregate change and drained by the outbox processor.
//
// idx_outbox_tenant_status serves the dead-letter admin listing,
// idx_outbox_status_created the processor's FIFO pickup.
type OutboxEntryModel struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_outbox_tenant_status,priority:1"`
	EventID       uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	EventType     string              `gorm:"type:varchar(100);not null"`
	AggregateID   uuid.UUID           `gorm:"type:uuid;not null"`
	AggregateType string              `gorm:"type:varchar(100);not null"`
	Payload       []byte              `gorm:"type:jsonb;not null"`
	Status        shared.OutboxStatus `gorm:"type:varchar(20);default:PENDING;index:idx_outbox_tenant_status,priority:2;index:idx_outbox_status_created,priority:1"`
	RetryCount    int                 `gorm:"default:0"`
	MaxRetries    int                 `gorm:"default:5"`
	LastError     string              `gorm:"type:text"`
	NextRetryAt   *time.Time          `gorm:"index:idx_outbox_next_retry"`
	ProcessedAt   *time.Time
	CreatedAt     time.Time `gorm:"not null;index:idx_outbox_status_created,priority:2"`
	UpdatedAt     time.Time `gorm:"not null"`
}

func (OutboxEntryModel) TableName() string {
	return "outbox_events"
}

// NewOutboxEntryModel maps an entry to its row
func NewOutboxEntryModel(e *shared.OutboxEntry) *OutboxEntryModel {
	return &OutboxEntryModel{
		ID: e.ID, TenantID: e.TenantID, EventID: e.EventID,
		EventType: e.EventType, AggregateID: e.AggregateID, AggregateType: e.AggregateType,
		Payload:    e.Payload,
		Status:     e.Status,
		RetryCount: e.RetryCount, MaxRetries: e.MaxRetries, LastError: e.LastError,
		NextRetryAt: e.NextRetryAt, ProcessedAt: e.ProcessedAt,
		CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt,
	}
}

// ToDomain maps the row back to an entry
func (m *OutboxEntryModel) ToDomain() *shared.OutboxEntry {
	return &shared.OutboxEntry{
		ID: m.ID, TenantID: m.TenantID, EventID: m.EventID,
		EventType: m.EventType, AggregateID: m.AggregateID, AggregateType: m.AggregateType,
		Payload:    m.Payload,
		Status:     m.Status,
		RetryCount: m.RetryCount, MaxRetries: m.MaxRetries, LastError: m.LastError,
		NextRetryAt: m.NextRetryAt, ProcessedAt: m.ProcessedAt,
		CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt,
	}
}
