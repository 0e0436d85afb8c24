package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/erp/progress-billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormExchangeRateRepository implements ExchangeRateRepository using GORM
type GormExchangeRateRepository struct {
	db *gorm.DB
}

// NewGormExchangeRateRepository creates a new GormExchangeRateRepository
func NewGormExchangeRateRepository(db *gorm.DB) *GormExchangeRateRepository {
	return &GormExchangeRateRepository{db: db}
}

// Save stores a rate. A second rate for the same pair and day replaces the first.
func (r *GormExchangeRateRepository) Save(ctx context.Context, rate *finance.ExchangeRate) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"}, {Name: "from_currency"}, {Name: "to_currency"}, {Name: "effective_date"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"rate"}),
		}).
		Create(models.ExchangeRateModelFromDomain(rate)).Error
}

// FindEffective returns the latest rate whose effective date is on or before asOf
func (r *GormExchangeRateRepository) FindEffective(ctx context.Context, tenantID uuid.UUID, from, to valueobject.Currency, asOf time.Time) (*finance.ExchangeRate, error) {
	y, m, d := asOf.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var model models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND from_currency = ? AND to_currency = ? AND effective_date <= ?",
			tenantID, from.String(), to.String(), day).
		Order("effective_date DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("exchange rate")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormExchangeRateRepository implements ExchangeRateRepository
var _ finance.ExchangeRateRepository = (*GormExchangeRateRepository)(nil)
