package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormSalesInvoiceRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSalesInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	day := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("first number of the day", func(t *testing.T) {
		number, err := repo.GenerateInvoiceNumber(ctx, tenantID, day)
		require.NoError(t, err)
		assert.Equal(t, "INV-20240331-00001", number)
	})

	sourceID := uuid.New()
	amount, err := valueobject.NewMoneyFromString("256.50", valueobject.TRY)
	require.NoError(t, err)
	inv, err := finance.NewSalesInvoice(tenantID, "INV-20240331-00007", uuid.New(), "Acme Holding",
		amount, "Progress Payment #1 - PRJ-1", day, finance.SourceTypeProgressPayment, sourceID)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, inv))

	t.Run("continues after the highest number", func(t *testing.T) {
		number, err := repo.GenerateInvoiceNumber(ctx, tenantID, day)
		require.NoError(t, err)
		assert.Equal(t, "INV-20240331-00008", number)
	})

	t.Run("sequences are per tenant and per day", func(t *testing.T) {
		number, err := repo.GenerateInvoiceNumber(ctx, uuid.New(), day)
		require.NoError(t, err)
		assert.Equal(t, "INV-20240331-00001", number)

		number, err = repo.GenerateInvoiceNumber(ctx, tenantID, day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, "INV-20240401-00001", number)
	})

	t.Run("finds by source", func(t *testing.T) {
		found, err := repo.FindBySource(ctx, tenantID, finance.SourceTypeProgressPayment, sourceID)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, found.ID)
		assert.True(t, found.Amount.Equal(decimal.RequireFromString("256.50")))
		assert.Equal(t, valueobject.TRY, found.Currency)

		_, err = repo.FindBySource(ctx, tenantID, finance.SourceTypeProgressPayment, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("finds by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, "INV-20240331-00007", found.InvoiceNumber)
	})
}

func TestGormAccountReceivableRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormAccountReceivableRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	day := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	number, err := repo.GenerateReceivableNumber(ctx, tenantID, day)
	require.NoError(t, err)
	assert.Equal(t, "AR-20240331-00001", number)

	sourceID := uuid.New()
	amount, err := valueobject.NewMoneyFromString("30.00", valueobject.TRY)
	require.NoError(t, err)
	ar, err := finance.NewAccountReceivable(tenantID, finance.ReceivableDraft{
		ReceivableNumber: number,
		Reference:        "RET-PRJ-1-1",
		CustomerID:       uuid.New(),
		CustomerName:     "Acme Holding",
		SourceType:       finance.SourceTypeProgressPayment,
		SourceID:         sourceID,
		Amount:           amount,
		IssueDate:        day,
		DueDate:          day.AddDate(1, 0, 0),
		Memo:             "Retention Held",
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, ar))

	next, err := repo.GenerateReceivableNumber(ctx, tenantID, day)
	require.NoError(t, err)
	assert.Equal(t, "AR-20240331-00002", next)

	found, err := repo.FindBySource(ctx, tenantID, finance.SourceTypeProgressPayment, sourceID)
	require.NoError(t, err)
	assert.Equal(t, ar.ID, found.ID)
	assert.Equal(t, finance.ReceivableStatusPending, found.Status)
	assert.True(t, found.OutstandingAmount.Equal(decimal.RequireFromString("30")))
	assert.Equal(t, 2025, found.DueDate.Year())

	_, err = repo.FindByID(ctx, uuid.New(), ar.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormExchangeRateRepository_FindEffective(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormExchangeRateRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	save := func(rate string, effective time.Time) {
		r, err := finance.NewExchangeRate(tenantID, valueobject.USD, valueobject.TRY, decimal.RequireFromString(rate), effective)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, r))
	}
	save("31.500000", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	save("32.250000", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		asOf time.Time
		want string
	}{
		{"exact effective date", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "32.25"},
		{"between rates uses the earlier", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC), "31.5"},
		{"after the latest rate", time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), "32.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, err := repo.FindEffective(ctx, tenantID, valueobject.USD, valueobject.TRY, tt.asOf)
			require.NoError(t, err)
			assert.True(t, rate.Rate.Equal(decimal.RequireFromString(tt.want)), rate.Rate.String())
		})
	}

	t.Run("before the first rate is not found", func(t *testing.T) {
		_, err := repo.FindEffective(ctx, tenantID, valueobject.USD, valueobject.TRY, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("reverse pair is not inferred", func(t *testing.T) {
		_, err := repo.FindEffective(ctx, tenantID, valueobject.TRY, valueobject.USD, time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("same day replaces the rate", func(t *testing.T) {
		save("33.000000", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
		rate, err := repo.FindEffective(ctx, tenantID, valueobject.USD, valueobject.TRY, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, rate.Rate.Equal(decimal.NewFromInt(33)))
	})
}

func TestGenerateDocumentNumber_PastFiveDigits(t *testing.T) {
	day := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	amount, err := valueobject.NewMoneyFromString("10.00", valueobject.TRY)
	require.NoError(t, err)

	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"single five digit number", []string{"INV-20240331-99998"}, "INV-20240331-99999"},
		{"six digits outrank five", []string{"INV-20240331-99999", "INV-20240331-100000"}, "INV-20240331-100001"},
		{"insertion order does not matter", []string{"INV-20240331-100000", "INV-20240331-99999", "INV-20240331-00042"}, "INV-20240331-100001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			repo := NewGormSalesInvoiceRepository(db)
			ctx := context.Background()
			tenantID := uuid.New()

			for _, number := range tt.existing {
				inv, err := finance.NewSalesInvoice(tenantID, number, uuid.New(), "Acme Holding",
					amount, "Progress Payment", day, finance.SourceTypeProgressPayment, uuid.New())
				require.NoError(t, err)
				require.NoError(t, repo.Save(ctx, inv))
			}

			number, err := repo.GenerateInvoiceNumber(ctx, tenantID, day)
			require.NoError(t, err)
			assert.Equal(t, tt.want, number)
		})
	}

	t.Run("receivables", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormAccountReceivableRepository(db)
		ctx := context.Background()
		tenantID := uuid.New()

		for _, number := range []string{"AR-20240331-100000", "AR-20240331-99999"} {
			ar, err := finance.NewAccountReceivable(tenantID, finance.ReceivableDraft{
				ReceivableNumber: number,
				Reference:        "RET-PRJ-1-1",
				CustomerID:       uuid.New(),
				CustomerName:     "Acme Holding",
				SourceType:       finance.SourceTypeProgressPayment,
				SourceID:         uuid.New(),
				Amount:           amount,
				IssueDate:        day,
				DueDate:          day.AddDate(1, 0, 0),
				Memo:             "Retention Held",
			})
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, ar))
		}

		number, err := repo.GenerateReceivableNumber(ctx, tenantID, day)
		require.NoError(t, err)
		assert.Equal(t, "AR-20240331-100001", number)
	})
}
