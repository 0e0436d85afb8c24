package billing

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentDetail is the per-BoQ-line row of a progress payment.
// Item code, description, unit and unit price are snapshots taken at creation.
type PaymentDetail struct {
	ID                         uuid.UUID
	PaymentID                  uuid.UUID
	BoQLineID                  uuid.UUID
	ItemCode                   string
	Description                string
	Unit                       string
	UnitPrice                  decimal.Decimal
	PreviousCumulativeQuantity decimal.Decimal
	CurrentCumulativeQuantity  decimal.Decimal
	PeriodQuantity             decimal.Decimal
	PeriodAmount               decimal.Decimal
	TotalAmount                decimal.Decimal
	SortOrder                  int
	CreatedAt                  time.Time
	UpdatedAt                  time.Time
}

func newPaymentDetail(paymentID uuid.UUID, line project.BoQLine, previous decimal.Decimal) PaymentDetail {
	now := time.Now()
	return PaymentDetail{
		ID:                         uuid.New(),
		PaymentID:                  paymentID,
		BoQLineID:                  line.ID,
		ItemCode:                   line.ItemCode,
		Description:                line.Description,
		Unit:                       line.Unit,
		UnitPrice:                  line.UnitPrice,
		PreviousCumulativeQuantity: previous,
		CurrentCumulativeQuantity:  previous,
		PeriodQuantity:             decimal.Zero,
		PeriodAmount:               decimal.Zero,
		TotalAmount:                decimal.Zero,
		SortOrder:                  line.SortOrder,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
}

func (d PaymentDetail) input() LineInput {
	return LineInput{
		PreviousCumulativeQuantity: d.PreviousCumulativeQuantity,
		CurrentCumulativeQuantity:  d.CurrentCumulativeQuantity,
		UnitPrice:                  d.UnitPrice,
	}
}

func (d *PaymentDetail) apply(r LineResult) {
	d.PeriodQuantity = r.PeriodQuantity
	d.PeriodAmount = r.PeriodAmount
	d.TotalAmount = r.TotalAmount
}
