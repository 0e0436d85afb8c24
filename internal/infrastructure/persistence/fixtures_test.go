package persistence

import (
	"testing"
	"time"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var paymentDate = time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

// newTestProject builds a project with a parent line and two children.
func newTestProject(t *testing.T, tenantID uuid.UUID, code string) *project.Project {
	t.Helper()

	p, err := project.NewProject(tenantID, code, "Ring road", valueobject.TRY, project.Terms{
		ContractAmount:      decimal.NewFromInt(5000),
		RetentionRate:       decimal.RequireFromString("0.10"),
		WithholdingTaxRate:  decimal.RequireFromString("0.05"),
		SecurityDepositRate: decimal.RequireFromString("0.03"),
	})
	require.NoError(t, err)
	require.NoError(t, p.AssignCustomer(uuid.New(), "Acme Holding"))

	parent, err := p.AddLine(nil, project.LineSpec{ItemCode: "A", Description: "Earthworks", Unit: "lot"})
	require.NoError(t, err)
	parentID := parent.ID
	_, err = p.AddLine(&parentID, project.LineSpec{
		ItemCode:    "A.1",
		Description: "Excavation",
		Quantity:    decimal.NewFromInt(100),
		Unit:        "m3",
		UnitPrice:   decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	_, err = p.AddLine(&parentID, project.LineSpec{
		ItemCode:    "A.2",
		Description: "Backfill",
		Quantity:    decimal.NewFromInt(50),
		Unit:        "m3",
		UnitPrice:   decimal.RequireFromString("4.50"),
	})
	require.NoError(t, err)
	return p
}

func newTestPayment(t *testing.T, proj *project.Project, maxNo int, baseline *billing.ProgressPayment) *billing.ProgressPayment {
	t.Helper()

	p, err := billing.NewProgressPayment(proj, billing.NextSequence(maxNo, baseline), billing.NewPaymentParams{
		Date:         paymentDate,
		PeriodStart:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:    paymentDate,
		BaseCurrency: valueobject.TRY,
		ExchangeRate: decimal.NewFromInt(1),
	})
	require.NoError(t, err)
	return p
}

// detailFor returns the payment detail referencing the project line with the given item code
func detailFor(t *testing.T, proj *project.Project, payment *billing.ProgressPayment, itemCode string) *billing.PaymentDetail {
	t.Helper()
	for i := range proj.Lines {
		if proj.Lines[i].ItemCode != itemCode {
			continue
		}
		for j := range payment.Details {
			if payment.Details[j].BoQLineID == proj.Lines[i].ID {
				return &payment.Details[j]
			}
		}
	}
	t.Fatalf("no detail for item %s", itemCode)
	return nil
}
