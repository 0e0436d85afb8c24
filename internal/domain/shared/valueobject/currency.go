package valueobject

import (
	"strings"

	"github.com/erp/progress-billing/internal/domain/shared"
	"golang.org/x/text/currency"
)

// Currency is an ISO 4217 currency code
type Currency string

// Common currencies
const (
	TRY Currency = "TRY"
	USD Currency = "USD"
	EUR Currency = "EUR"
)

// ParseCurrency normalizes and validates an ISO 4217 code
func ParseCurrency(code string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return "", shared.NewValidationError("currency cannot be empty")
	}
	unit, err := currency.ParseISO(normalized)
	if err != nil {
		return "", shared.NewValidationError("invalid currency code: " + code)
	}
	return Currency(unit.String()), nil
}

// MustParseCurrency panics on an invalid code. Intended for constants and tests.
func MustParseCurrency(code string) Currency {
	c, err := ParseCurrency(code)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// IsZero reports whether no currency is set
func (c Currency) IsZero() bool {
	return c == ""
}
