package billing

import (
	"testing"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSequence_NoBaseline(t *testing.T) {
	seq := NextSequence(0, nil)
	assert.Equal(t, 1, seq.PaymentNo)
	assert.Nil(t, seq.BaselineID)
	assert.True(t, seq.PreviousCumulativeAmount.IsZero())
	assert.True(t, seq.PreviousQuantity(uuid.New()).IsZero())
}

func TestNextSequence_CarriesApprovedBaseline(t *testing.T) {
	proj := scenarioProject(t)
	first := newDraft(t, proj, NextSequence(0, nil))
	require.NoError(t, first.UpdateDetailQuantity(first.Details[0].ID, d("40")))
	require.NoError(t, first.markApproved(uuid.New(), uuid.New(), nil))

	// a later draft (#2) consumed a number but is not the baseline
	seq := NextSequence(2, first)
	assert.Equal(t, 3, seq.PaymentNo)
	require.NotNil(t, seq.BaselineID)
	assert.Equal(t, first.ID, *seq.BaselineID)
	assert.Equal(t, "400.00", seq.PreviousCumulativeAmount.StringFixed(2))

	second := newDraft(t, proj, seq)
	require.Len(t, second.Details, 1)
	assert.True(t, second.Details[0].PreviousCumulativeQuantity.Equal(d("40")))
	assert.True(t, second.Details[0].CurrentCumulativeQuantity.Equal(d("40")))
	assert.True(t, second.GrossWorkAmount.IsZero())
	assert.Equal(t, "400.00", second.CumulativeTotalAmount.StringFixed(2))
	assert.Equal(t, "400.00", second.PreviousCumulativeAmount.StringFixed(2))
}

func TestNextSequence_NewScopeStartsAtZero(t *testing.T) {
	proj := scenarioProject(t)
	first := newDraft(t, proj, NextSequence(0, nil))
	require.NoError(t, first.UpdateDetailQuantity(first.Details[0].ID, d("10")))

	seq := NextSequence(1, first)
	assert.True(t, seq.PreviousQuantity(proj.Lines[0].ID).Equal(d("10")))
	assert.True(t, seq.PreviousQuantity(uuid.New()).IsZero())
}

func TestNextSequence_ApprovedChainDoesNotDrift(t *testing.T) {
	proj, err := project.NewProject(uuid.New(), "PRJ-9", "Culvert", valueobject.TRY, project.Terms{
		ContractAmount: decimal.NewFromInt(100),
		RetentionRate:  d("0.10"),
	})
	require.NoError(t, err)
	require.NoError(t, proj.AssignCustomer(uuid.New(), "Acme Construction"))
	for _, spec := range []project.LineSpec{
		{ItemCode: "B.1", Description: "Formwork", Quantity: d("4"), Unit: "m3", UnitPrice: d("12.35")},
		{ItemCode: "B.2", Description: "Rebar", Quantity: d("10"), Unit: "kg", UnitPrice: d("0.333")},
	} {
		_, err := proj.AddLine(nil, spec)
		require.NoError(t, err)
	}

	cumulative := [][2]string{{"0.5", "1.5"}, {"1.0", "4.5"}, {"2.2222", "7"}}
	var previous *ProgressPayment
	sumGross := decimal.Zero
	for i, qty := range cumulative {
		p := newDraft(t, proj, NextSequence(i, previous))
		require.NoError(t, p.UpdateDetailQuantity(p.Details[0].ID, d(qty[0])))
		require.NoError(t, p.UpdateDetailQuantity(p.Details[1].ID, d(qty[1])))

		assert.True(t, p.PreviousCumulativeAmount.Add(p.GrossWorkAmount).Equal(p.CumulativeTotalAmount),
			"payment %d: %s + %s != %s", p.PaymentNo, p.PreviousCumulativeAmount, p.GrossWorkAmount, p.CumulativeTotalAmount)
		require.NoError(t, p.markApproved(uuid.New(), uuid.New(), nil))
		sumGross = sumGross.Add(p.GrossWorkAmount)
		previous = p
	}

	// 2.2222 × 12.35 + 7 × 0.333 = 27.44417 + 2.331
	assert.Equal(t, "29.78", previous.CumulativeTotalAmount.StringFixed(2))
	assert.True(t, sumGross.Equal(previous.CumulativeTotalAmount), "Σ gross %s", sumGross)
}
