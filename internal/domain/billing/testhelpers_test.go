package billing

import (
	"testing"
	"time"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var paymentDate = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

// scenarioProject has one line: qty 100 at 10.00, retention 10%, withholding 5%
func scenarioProject(t *testing.T) *project.Project {
	t.Helper()
	p, err := project.NewProject(uuid.New(), "PRJ-7", "Ring road", valueobject.TRY, project.Terms{
		ContractAmount:      decimal.NewFromInt(1000),
		RetentionRate:       d("0.10"),
		WithholdingTaxRate:  d("0.05"),
		SecurityDepositRate: d("0.03"),
	})
	require.NoError(t, err)
	require.NoError(t, p.AssignCustomer(uuid.New(), "Acme Construction"))
	_, err = p.AddLine(nil, project.LineSpec{
		ItemCode:    "A.1",
		Description: "Asphalt paving",
		Quantity:    decimal.NewFromInt(100),
		Unit:        "m2",
		UnitPrice:   d("10.00"),
	})
	require.NoError(t, err)
	return p
}

func defaultParams() NewPaymentParams {
	return NewPaymentParams{
		Date:         paymentDate,
		PeriodStart:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    paymentDate,
		BaseCurrency: valueobject.TRY,
		ExchangeRate: decimal.NewFromInt(1),
	}
}

func newDraft(t *testing.T, proj *project.Project, seq Sequence) *ProgressPayment {
	t.Helper()
	p, err := NewProgressPayment(proj, seq, defaultParams())
	require.NoError(t, err)
	return p
}
