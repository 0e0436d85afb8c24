package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAccountReceivableRepository implements AccountReceivableRepository using GORM
type GormAccountReceivableRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormAccountReceivableRepository creates a new GormAccountReceivableRepository
func NewGormAccountReceivableRepository(db *gorm.DB) *GormAccountReceivableRepository {
	return &GormAccountReceivableRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormAccountReceivableRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds an account receivable by ID for a specific tenant
func (r *GormAccountReceivableRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountReceivable, error) {
	var model models.AccountReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("account receivable")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySource finds the receivable raised by a source document
func (r *GormAccountReceivableRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType finance.SourceType, sourceID uuid.UUID) (*finance.AccountReceivable, error) {
	var model models.AccountReceivableModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("account receivable")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an account receivable together with its pending events
func (r *GormAccountReceivableRepository) Save(ctx context.Context, receivable *finance.AccountReceivable) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(models.AccountReceivableModelFromDomain(receivable)).Error; err != nil {
			return translateWriteError(err)
		}
		return persistEvents(ctx, tx, r.outboxSaver, receivable)
	})
}

// GenerateReceivableNumber returns the next AR-YYYYMMDD-NNNNN number for the day
func (r *GormAccountReceivableRepository) GenerateReceivableNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error) {
	prefix := finance.DayPrefix(finance.ReceivableNumberPrefix, day)
	return nextDocumentNumber(ctx, r.db, &models.AccountReceivableModel{}, "receivable_number", tenantID, prefix)
}

// Ensure GormAccountReceivableRepository implements AccountReceivableRepository
var _ finance.AccountReceivableRepository = (*GormAccountReceivableRepository)(nil)
