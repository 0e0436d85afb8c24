package finance

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate converts one unit of FromCurrency into ToCurrency from EffectiveDate on
type ExchangeRate struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	FromCurrency  valueobject.Currency
	ToCurrency    valueobject.Currency
	Rate          decimal.Decimal
	EffectiveDate time.Time
	CreatedAt     time.Time
}

// NewExchangeRate validates and creates a rate record
func NewExchangeRate(tenantID uuid.UUID, from, to valueobject.Currency, rate decimal.Decimal, effective time.Time) (*ExchangeRate, error) {
	if from.IsZero() || to.IsZero() {
		return nil, shared.NewValidationError("both currencies are required")
	}
	if from == to {
		return nil, shared.NewValidationError("exchange rate currencies must differ")
	}
	if !rate.IsPositive() {
		return nil, shared.NewValidationError("exchange rate must be positive")
	}
	if effective.IsZero() {
		return nil, shared.NewValidationError("effective date is required")
	}
	return &ExchangeRate{
		ID:            uuid.New(),
		TenantID:      tenantID,
		FromCurrency:  from,
		ToCurrency:    to,
		Rate:          valueobject.RoundExchangeRate(rate),
		EffectiveDate: truncateToDay(effective),
		CreatedAt:     time.Now(),
	}, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
