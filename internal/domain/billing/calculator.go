package billing

import (
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// LineInput is the quantity state of one detail row
type LineInput struct {
	PreviousCumulativeQuantity decimal.Decimal
	CurrentCumulativeQuantity  decimal.Decimal
	UnitPrice                  decimal.Decimal
}

// LineResult holds the derived figures of one detail row
type LineResult struct {
	PeriodQuantity decimal.Decimal
	PeriodAmount   decimal.Decimal
	TotalAmount    decimal.Decimal
}

// CalculationInput is everything the engine reads from a payment
type CalculationInput struct {
	Lines                  []LineInput
	MaterialOnSiteAmount   decimal.Decimal
	AdvanceDeductionAmount decimal.Decimal
	SecurityDepositAmount  decimal.Decimal
	AdvanceRepaymentAmount decimal.Decimal
	RetentionRate          decimal.Decimal
	WithholdingTaxRate     decimal.Decimal
	ExchangeRate           decimal.Decimal
}

// CalculationResult is everything the engine writes back to a payment
type CalculationResult struct {
	Lines                 []LineResult
	GrossWorkAmount       decimal.Decimal
	CumulativeTotalAmount decimal.Decimal
	PeriodDeltaAmount     decimal.Decimal
	RetentionAmount       decimal.Decimal
	WithholdingTaxAmount  decimal.Decimal
	NetPayableAmount      decimal.Decimal
	NetPayableBaseAmount  decimal.Decimal
}

// Calculate derives period, cumulative and payable figures.
//
// Line amounts stay unrounded (storage scale). The cumulative totals before and after this
// period are rounded once from the exact line sums, and the gross work amount is their
// difference. Gross therefore equals Σ period amounts to within one cent and the grosses
// of consecutive payments add up to the last cumulative total with no drift. Retention,
// withholding and net are derived from that gross and rounded once each.
// The function has no side effects and is idempotent.
func Calculate(in CalculationInput) CalculationResult {
	out := CalculationResult{Lines: make([]LineResult, len(in.Lines))}

	previousExact, currentExact := decimal.Zero, decimal.Zero
	for i, l := range in.Lines {
		periodQty := l.CurrentCumulativeQuantity.Sub(l.PreviousCumulativeQuantity)
		out.Lines[i] = LineResult{
			PeriodQuantity: valueobject.RoundQuantity(periodQty),
			PeriodAmount:   valueobject.RoundLineAmount(periodQty.Mul(l.UnitPrice)),
			TotalAmount:    valueobject.RoundLineAmount(l.CurrentCumulativeQuantity.Mul(l.UnitPrice)),
		}
		previousExact = previousExact.Add(l.PreviousCumulativeQuantity.Mul(l.UnitPrice))
		currentExact = currentExact.Add(l.CurrentCumulativeQuantity.Mul(l.UnitPrice))
	}

	out.CumulativeTotalAmount = valueobject.RoundAmount(currentExact)
	out.GrossWorkAmount = out.CumulativeTotalAmount.Sub(valueobject.RoundAmount(previousExact))
	out.PeriodDeltaAmount = out.GrossWorkAmount
	out.RetentionAmount = valueobject.RoundAmount(out.GrossWorkAmount.Mul(in.RetentionRate))
	out.WithholdingTaxAmount = valueobject.RoundAmount(
		out.GrossWorkAmount.Sub(out.RetentionAmount).Mul(in.WithholdingTaxRate),
	)

	out.NetPayableAmount = out.GrossWorkAmount.
		Add(in.MaterialOnSiteAmount).
		Sub(out.RetentionAmount).
		Sub(out.WithholdingTaxAmount).
		Sub(in.AdvanceDeductionAmount).
		Sub(in.SecurityDepositAmount).
		Add(in.AdvanceRepaymentAmount)
	out.NetPayableAmount = valueobject.RoundAmount(out.NetPayableAmount)

	out.NetPayableBaseAmount = valueobject.RoundAmount(out.NetPayableAmount.Mul(in.ExchangeRate))
	return out
}
