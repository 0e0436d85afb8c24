// Package currency provides the rate providers behind billing.CurrencyRateProvider.
package currency

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DatabaseProvider reads tenant-recorded rates from the exchange_rates table
type DatabaseProvider struct {
	rates finance.ExchangeRateRepository
}

// NewDatabaseProvider creates a provider backed by the rate repository
func NewDatabaseProvider(rates finance.ExchangeRateRepository) *DatabaseProvider {
	return &DatabaseProvider{rates: rates}
}

// GetRate returns the latest recorded rate effective on or before asOf
func (p *DatabaseProvider) GetRate(ctx context.Context, tenantID uuid.UUID, from, to valueobject.Currency, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rate, err := p.rates.FindEffective(ctx, tenantID, from, to, asOf)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to find %s/%s rate as of %s: %w", from, to, asOf.Format(time.DateOnly), err)
	}
	return rate.Rate, nil
}
