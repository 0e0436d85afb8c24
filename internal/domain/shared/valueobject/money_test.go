package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"), TRY)
		require.NoError(t, err)
		assert.Equal(t, TRY, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.5")))
	})

	t.Run("returns validation error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("rejects malformed amount string", func(t *testing.T) {
		_, err := NewMoneyFromString("ten", TRY)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	a, _ := NewMoneyFromString("300.00", TRY)
	b, _ := NewMoneyFromString("30.00", TRY)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "270.00 TRY", diff.String())

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(330)))

	withholding := diff.Multiply(decimal.RequireFromString("0.05"))
	assert.Equal(t, "13.50 TRY", withholding.Round().String())

	usd, _ := NewMoneyFromString("1", USD)
	_, err = a.Add(usd)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestMoney_Convert(t *testing.T) {
	m, _ := NewMoneyFromString("100", USD)

	converted, err := m.Convert(TRY, decimal.RequireFromString("32.512345"))
	require.NoError(t, err)
	assert.Equal(t, TRY, converted.Currency())
	assert.Equal(t, "3251.23 TRY", converted.Round().String())

	same, err := m.Convert(USD, decimal.RequireFromString("2"))
	require.NoError(t, err)
	assert.True(t, same.Equals(m))

	_, err = m.Convert(TRY, decimal.Zero)
	assert.Error(t, err)
}

func TestMoney_MarshalJSON(t *testing.T) {
	m, _ := NewMoneyFromString("256.5", TRY)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"256.50","currency":"TRY"}`, string(data))
}
