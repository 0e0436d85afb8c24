package valueobject

import (
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Output scales. Values are kept at full precision internally and rounded once.
const (
	AmountScale       int32 = 2
	LineAmountScale   int32 = 6
	RateScale         int32 = 4
	QuantityScale     int32 = 4
	ExchangeRateScale int32 = 6
)

// RoundAmount rounds a monetary amount half away from zero
func RoundAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountScale)
}

// RoundLineAmount keeps a quantity × price product at storage scale. Line amounts are
// never rounded to AmountScale; only the totals derived from them are.
func RoundLineAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(LineAmountScale)
}

// RoundRate rounds a percentage rate expressed as a fraction
func RoundRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(RateScale)
}

// RoundQuantity rounds a measured quantity
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityScale)
}

// RoundExchangeRate rounds a conversion rate
func RoundExchangeRate(d decimal.Decimal) decimal.Decimal {
	return d.Round(ExchangeRateScale)
}

// ValidateFraction checks that a rate lies in [0,1]
func ValidateFraction(field string, d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return shared.NewValidationError(field + " must be between 0 and 1")
	}
	return nil
}

// ValidateNonNegative checks that an amount or quantity is not negative
func ValidateNonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return shared.NewValidationError(field + " cannot be negative")
	}
	return nil
}
