package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Money is an immutable amount in a single currency.
// Arithmetic keeps full precision; call Round before presenting or persisting a final figure.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency.IsZero() {
		return Money{}, shared.NewValidationError("currency cannot be empty")
	}
	return Money{amount: amount, currency: currency}, nil
}

// NewMoneyFromString parses a decimal amount
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, shared.NewValidationError(fmt.Sprintf("invalid amount %q", amount))
	}
	return NewMoney(d, currency)
}

// ZeroMoney returns zero in the given currency
func ZeroMoney(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency
func (m Money) Currency() Currency {
	return m.currency
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, currencyMismatch(m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other. Currencies must match.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, currencyMismatch(m.currency, other.currency)
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply scales the amount by a factor (quantity, rate fraction)
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Convert expresses the amount in another currency at the given rate
func (m Money) Convert(target Currency, rate decimal.Decimal) (Money, error) {
	if target.IsZero() {
		return Money{}, shared.NewValidationError("target currency cannot be empty")
	}
	if !rate.IsPositive() {
		return Money{}, shared.NewValidationError("exchange rate must be positive")
	}
	if target == m.currency {
		return m, nil
	}
	return Money{amount: m.amount.Mul(rate), currency: target}, nil
}

// Round rounds the amount to the monetary output scale
func (m Money) Round() Money {
	return Money{amount: RoundAmount(m.amount), currency: m.currency}
}

// Equals compares amount and currency
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String formats as "256.50 TRY"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(AmountScale), m.currency)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(AmountScale),
		Currency: m.currency,
	})
}

func currencyMismatch(a, b Currency) error {
	return shared.NewValidationError(fmt.Sprintf("currency mismatch: %s vs %s", a, b))
}
