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

// GormSalesInvoiceRepository implements SalesInvoiceRepository using GORM
type GormSalesInvoiceRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormSalesInvoiceRepository creates a new GormSalesInvoiceRepository
func NewGormSalesInvoiceRepository(db *gorm.DB) *GormSalesInvoiceRepository {
	return &GormSalesInvoiceRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormSalesInvoiceRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds an invoice by ID for a tenant
func (r *GormSalesInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.SalesInvoice, error) {
	var model models.SalesInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sales invoice")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySource finds the invoice issued for a source document
func (r *GormSalesInvoiceRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType finance.SourceType, sourceID uuid.UUID) (*finance.SalesInvoice, error) {
	var model models.SalesInvoiceModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND source_type = ? AND source_id = ?", tenantID, sourceType, sourceID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("sales invoice")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates an invoice together with its pending events
func (r *GormSalesInvoiceRepository) Save(ctx context.Context, invoice *finance.SalesInvoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(models.SalesInvoiceModelFromDomain(invoice)).Error; err != nil {
			return translateWriteError(err)
		}
		return persistEvents(ctx, tx, r.outboxSaver, invoice)
	})
}

// GenerateInvoiceNumber returns the next INV-YYYYMMDD-NNNNN number for the day
func (r *GormSalesInvoiceRepository) GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error) {
	prefix := finance.DayPrefix(finance.InvoiceNumberPrefix, day)
	return nextDocumentNumber(ctx, r.db, &models.SalesInvoiceModel{}, "invoice_number", tenantID, prefix)
}

// Ensure GormSalesInvoiceRepository implements SalesInvoiceRepository
var _ finance.SalesInvoiceRepository = (*GormSalesInvoiceRepository)(nil)
