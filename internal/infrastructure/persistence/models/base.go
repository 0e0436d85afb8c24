package models

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel carries the columns every table has
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (m BaseModel) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}
}

func (m *BaseModel) setEntity(e shared.BaseEntity) {
	m.ID, m.CreatedAt, m.UpdatedAt = e.ID, e.CreatedAt, e.UpdatedAt
}

// TenantAggregateModel is embedded by the tables that back tenant-scoped aggregate roots.
// Version is the optimistic lock column checked by the repositories on update.
type TenantAggregateModel struct {
	BaseModel
	Version   int        `gorm:"not null;default:1"`
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid;index"`
}

func (m *TenantAggregateModel) tenantRoot() shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.entity(), Version: m.Version},
		TenantID:          m.TenantID,
		CreatedBy:         m.CreatedBy,
	}
}

func (m *TenantAggregateModel) setTenantRoot(root shared.TenantAggregateRoot) {
	m.setEntity(root.BaseEntity)
	m.Version = root.Version
	m.TenantID = root.TenantID
	m.CreatedBy = root.CreatedBy
}
