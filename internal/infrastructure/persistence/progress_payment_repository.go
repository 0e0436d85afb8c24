package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// baselineStatuses are the statuses whose quantities carry into the next payment
var baselineStatuses = []billing.PaymentStatus{billing.PaymentStatusApproved, billing.PaymentStatusInvoiced}

// GormProgressPaymentRepository implements ProgressPaymentRepository using GORM
type GormProgressPaymentRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormProgressPaymentRepository creates a new GormProgressPaymentRepository
func NewGormProgressPaymentRepository(db *gorm.DB) *GormProgressPaymentRepository {
	return &GormProgressPaymentRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormProgressPaymentRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

func preloadDetails(db *gorm.DB) *gorm.DB {
	return db.Preload("Details", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

// FindByID finds a payment with its details
func (r *GormProgressPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*billing.ProgressPayment, error) {
	var model models.ProgressPaymentModel
	if err := preloadDetails(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("progress payment")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByProject lists a project's payments by payment number, without details
func (r *GormProgressPaymentRepository) FindByProject(ctx context.Context, tenantID, projectID uuid.UUID) ([]billing.ProgressPayment, error) {
	var paymentModels []models.ProgressPaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Order("payment_no ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.ProgressPayment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = *paymentModels[i].ToDomain()
	}
	return payments, nil
}

// MaxPaymentNo returns the highest payment number of a project, or 0
func (r *GormProgressPaymentRepository) MaxPaymentNo(ctx context.Context, tenantID, projectID uuid.UUID) (int, error) {
	var maxNo int
	if err := r.db.WithContext(ctx).
		Model(&models.ProgressPaymentModel{}).
		Select("COALESCE(MAX(payment_no), 0)").
		Where("tenant_id = ? AND project_id = ?", tenantID, projectID).
		Scan(&maxNo).Error; err != nil {
		return 0, err
	}
	return maxNo, nil
}

// FindLastApproved returns the approved payment with the highest number, or (nil, nil)
func (r *GormProgressPaymentRepository) FindLastApproved(ctx context.Context, tenantID, projectID uuid.UUID) (*billing.ProgressPayment, error) {
	var model models.ProgressPaymentModel
	if err := preloadDetails(r.db.WithContext(ctx)).
		Where("tenant_id = ? AND project_id = ? AND status IN ?", tenantID, projectID, baselineStatuses).
		Order("payment_no DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts a new payment and its details.
// A taken (project, payment number) pair yields shared.ErrAlreadyExists.
func (r *GormProgressPaymentRepository) Create(ctx context.Context, payment *billing.ProgressPayment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.ProgressPaymentModelFromDomain(payment)
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return translateWriteError(err)
		}
		if len(payment.Details) > 0 {
			details := make([]*models.ProgressPaymentDetailModel, len(payment.Details))
			for i := range payment.Details {
				payment.Details[i].PaymentID = payment.ID
				details[i] = models.ProgressPaymentDetailModelFromDomain(&payment.Details[i])
			}
			if err := tx.Create(&details).Error; err != nil {
				return translateWriteError(err)
			}
		}
		return persistEvents(ctx, tx, r.outboxSaver, payment)
	})
}

// SaveWithLock updates the payment and its details when the stored version still
// equals payment.Version, then advances the version.
func (r *GormProgressPaymentRepository) SaveWithLock(ctx context.Context, payment *billing.ProgressPayment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		result := tx.Model(&models.ProgressPaymentModel{}).
			Where("tenant_id = ? AND id = ?", payment.TenantID, payment.ID).
			Select("version").
			Scan(&currentVersion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewNotFoundError("progress payment")
		}
		if currentVersion != payment.Version {
			return concurrentModification("progress payment")
		}

		nextVersion := payment.Version + 1
		updatedAt := time.Now()
		update := tx.Model(&models.ProgressPaymentModel{}).
			Where("id = ? AND version = ?", payment.ID, currentVersion).
			Updates(map[string]any{
				"material_on_site_amount":    payment.MaterialOnSiteAmount,
				"previous_cumulative_amount": payment.PreviousCumulativeAmount,
				"gross_work_amount":          payment.GrossWorkAmount,
				"cumulative_total_amount":    payment.CumulativeTotalAmount,
				"period_delta_amount":        payment.PeriodDeltaAmount,
				"retention_amount":           payment.RetentionAmount,
				"withholding_tax_amount":     payment.WithholdingTaxAmount,
				"advance_deduction_amount":   payment.AdvanceDeductionAmount,
				"security_deposit_amount":    payment.SecurityDepositAmount,
				"advance_repayment_amount":   payment.AdvanceRepaymentAmount,
				"net_payable_amount":         payment.NetPayableAmount,
				"net_payable_base_amount":    payment.NetPayableBaseAmount,
				"status":                     payment.Status,
				"invoice_id":                 payment.InvoiceID,
				"retention_receivable_id":    payment.RetentionReceivableID,
				"approved_at":                payment.ApprovedAt,
				"approved_by":                payment.ApprovedBy,
				"version":                    nextVersion,
				"updated_at":                 updatedAt,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return concurrentModification("progress payment")
		}

		for i := range payment.Details {
			d := &payment.Details[i]
			if err := tx.Model(&models.ProgressPaymentDetailModel{}).
				Where("id = ? AND payment_id = ?", d.ID, payment.ID).
				Updates(map[string]any{
					"current_cumulative_quantity": d.CurrentCumulativeQuantity,
					"period_quantity":             d.PeriodQuantity,
					"period_amount":               d.PeriodAmount,
					"total_amount":                d.TotalAmount,
					"updated_at":                  d.UpdatedAt,
				}).Error; err != nil {
				return err
			}
		}

		if err := persistEvents(ctx, tx, r.outboxSaver, payment); err != nil {
			return err
		}
		payment.Version = nextVersion
		payment.UpdatedAt = updatedAt
		return nil
	})
}

// Ensure GormProgressPaymentRepository implements ProgressPaymentRepository
var _ billing.ProgressPaymentRepository = (*GormProgressPaymentRepository)(nil)
