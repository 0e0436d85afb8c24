package billing

import (
	"fmt"
	"time"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewPaymentParams are the caller-supplied inputs of a new payment
type NewPaymentParams struct {
	Date                   time.Time
	PeriodStart            time.Time
	PeriodEnd              time.Time
	MaterialOnSiteAmount   decimal.Decimal
	AdvanceDeductionAmount decimal.Decimal
	IsExpense              bool
	BaseCurrency           valueobject.Currency
	ExchangeRate           decimal.Decimal
}

// ProgressPayment is an interim billing document for one period of a project
type ProgressPayment struct {
	shared.TenantAggregateRoot
	ProjectID   uuid.UUID
	ProjectCode string
	PaymentNo   int
	Date        time.Time
	PeriodStart time.Time
	PeriodEnd   time.Time

	Currency     valueobject.Currency
	BaseCurrency valueobject.Currency
	ExchangeRate decimal.Decimal

	PreviousCumulativeAmount decimal.Decimal
	GrossWorkAmount          decimal.Decimal
	MaterialOnSiteAmount     decimal.Decimal
	CumulativeTotalAmount    decimal.Decimal
	PeriodDeltaAmount        decimal.Decimal
	RetentionRate            decimal.Decimal
	RetentionAmount          decimal.Decimal
	WithholdingTaxRate       decimal.Decimal
	WithholdingTaxAmount     decimal.Decimal
	AdvanceDeductionAmount   decimal.Decimal
	SecurityDepositRate      decimal.Decimal
	SecurityDepositAmount    decimal.Decimal
	AdvanceRepaymentAmount   decimal.Decimal
	NetPayableAmount         decimal.Decimal
	NetPayableBaseAmount     decimal.Decimal

	IsExpense             bool
	Status                PaymentStatus
	InvoiceID             *uuid.UUID
	RetentionReceivableID *uuid.UUID
	ApprovedAt            *time.Time
	ApprovedBy            *uuid.UUID

	Details []PaymentDetail
}

// NewProgressPayment creates a draft payment with one detail per BoQ line of the project.
// Rates and currency are snapshotted from the project; previous quantities come from seq.
func NewProgressPayment(proj *project.Project, seq Sequence, params NewPaymentParams) (*ProgressPayment, error) {
	if proj == nil {
		return nil, shared.NewNotFoundError("project")
	}
	if seq.PaymentNo < 1 {
		return nil, shared.NewValidationError("payment number must be positive")
	}
	if params.Date.IsZero() {
		return nil, shared.NewValidationError("payment date is required")
	}
	if params.PeriodStart.IsZero() || params.PeriodEnd.IsZero() {
		return nil, shared.NewValidationError("billing period is required")
	}
	if params.PeriodEnd.Before(params.PeriodStart) {
		return nil, shared.NewValidationError("period end cannot be before period start")
	}
	if err := valueobject.ValidateNonNegative("material on site amount", params.MaterialOnSiteAmount); err != nil {
		return nil, err
	}
	if err := valueobject.ValidateNonNegative("advance deduction amount", params.AdvanceDeductionAmount); err != nil {
		return nil, err
	}
	if !params.ExchangeRate.IsPositive() {
		return nil, shared.NewValidationError("exchange rate must be positive")
	}

	p := &ProgressPayment{
		TenantAggregateRoot:      shared.NewTenantAggregateRoot(proj.TenantID),
		ProjectID:                proj.ID,
		ProjectCode:              proj.Code,
		PaymentNo:                seq.PaymentNo,
		Date:                     params.Date,
		PeriodStart:              params.PeriodStart,
		PeriodEnd:                params.PeriodEnd,
		Currency:                 proj.Currency,
		BaseCurrency:             params.BaseCurrency,
		ExchangeRate:             valueobject.RoundExchangeRate(params.ExchangeRate),
		PreviousCumulativeAmount: seq.PreviousCumulativeAmount,
		MaterialOnSiteAmount:     valueobject.RoundAmount(params.MaterialOnSiteAmount),
		RetentionRate:            valueobject.RoundRate(proj.RetentionRate),
		WithholdingTaxRate:       valueobject.RoundRate(proj.WithholdingTaxRate),
		AdvanceDeductionAmount:   valueobject.RoundAmount(params.AdvanceDeductionAmount),
		SecurityDepositRate:      valueobject.RoundRate(proj.SecurityDepositRate),
		SecurityDepositAmount:    decimal.Zero,
		AdvanceRepaymentAmount:   decimal.Zero,
		IsExpense:                params.IsExpense,
		Status:                   PaymentStatusDraft,
	}
	if p.BaseCurrency.IsZero() {
		p.BaseCurrency = proj.Currency
	}

	tree := proj.Tree()
	p.Details = make([]PaymentDetail, 0, tree.Len())
	tree.Walk(func(idx, _ int) {
		line := tree.Line(idx)
		p.Details = append(p.Details, newPaymentDetail(p.ID, line, seq.PreviousQuantity(line.ID)))
	})

	p.Recalculate()
	p.AddDomainEvent(NewProgressPaymentCreatedEvent(p))
	return p, nil
}

// Recalculate re-runs the calculation engine over the payment's current values
func (p *ProgressPayment) Recalculate() {
	in := CalculationInput{
		Lines:                  make([]LineInput, len(p.Details)),
		MaterialOnSiteAmount:   p.MaterialOnSiteAmount,
		AdvanceDeductionAmount: p.AdvanceDeductionAmount,
		SecurityDepositAmount:  p.SecurityDepositAmount,
		AdvanceRepaymentAmount: p.AdvanceRepaymentAmount,
		RetentionRate:          p.RetentionRate,
		WithholdingTaxRate:     p.WithholdingTaxRate,
		ExchangeRate:           p.ExchangeRate,
	}
	for i := range p.Details {
		in.Lines[i] = p.Details[i].input()
	}

	out := Calculate(in)
	for i := range p.Details {
		p.Details[i].apply(out.Lines[i])
	}
	p.GrossWorkAmount = out.GrossWorkAmount
	p.CumulativeTotalAmount = out.CumulativeTotalAmount
	p.PeriodDeltaAmount = out.PeriodDeltaAmount
	p.RetentionAmount = out.RetentionAmount
	p.WithholdingTaxAmount = out.WithholdingTaxAmount
	p.NetPayableAmount = out.NetPayableAmount
	p.NetPayableBaseAmount = out.NetPayableBaseAmount
}

// Detail finds a detail row by ID
func (p *ProgressPayment) Detail(detailID uuid.UUID) (*PaymentDetail, bool) {
	for i := range p.Details {
		if p.Details[i].ID == detailID {
			return &p.Details[i], true
		}
	}
	return nil, false
}

// UpdateDetailQuantity sets a detail's cumulative quantity and recalculates
func (p *ProgressPayment) UpdateDetailQuantity(detailID uuid.UUID, cumulative decimal.Decimal) error {
	if err := p.ensureEditable(); err != nil {
		return err
	}
	d, ok := p.Detail(detailID)
	if !ok {
		return shared.NewNotFoundError("payment detail")
	}
	if cumulative.IsNegative() {
		return shared.NewValidationError("cumulative quantity cannot be negative")
	}
	cumulative = valueobject.RoundQuantity(cumulative)
	if cumulative.LessThan(d.PreviousCumulativeQuantity) {
		return shared.NewValidationError(fmt.Sprintf(
			"cumulative quantity %s is below previous cumulative quantity %s",
			cumulative.String(), d.PreviousCumulativeQuantity.String()))
	}

	d.CurrentCumulativeQuantity = cumulative
	d.UpdatedAt = time.Now()
	p.Recalculate()
	p.Touch()
	return nil
}

// DeductionChanges lists deduction inputs to replace; nil fields are left as they are
type DeductionChanges struct {
	MaterialOnSiteAmount   *decimal.Decimal
	AdvanceDeductionAmount *decimal.Decimal
	SecurityDepositAmount  *decimal.Decimal
	AdvanceRepaymentAmount *decimal.Decimal
}

// UpdateDeductions replaces deduction inputs and recalculates
func (p *ProgressPayment) UpdateDeductions(c DeductionChanges) error {
	if err := p.ensureEditable(); err != nil {
		return err
	}
	fields := []struct {
		name  string
		value *decimal.Decimal
		dst   *decimal.Decimal
	}{
		{"material on site amount", c.MaterialOnSiteAmount, &p.MaterialOnSiteAmount},
		{"advance deduction amount", c.AdvanceDeductionAmount, &p.AdvanceDeductionAmount},
		{"security deposit amount", c.SecurityDepositAmount, &p.SecurityDepositAmount},
		{"advance repayment amount", c.AdvanceRepaymentAmount, &p.AdvanceRepaymentAmount},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		if err := valueobject.ValidateNonNegative(f.name, *f.value); err != nil {
			return err
		}
	}
	for _, f := range fields {
		if f.value != nil {
			*f.dst = valueobject.RoundAmount(*f.value)
		}
	}

	p.Recalculate()
	p.Touch()
	return nil
}

// InvoiceDescription is the human-readable text put on the sales invoice
func (p *ProgressPayment) InvoiceDescription() string {
	return fmt.Sprintf("Progress payment #%d - %s", p.PaymentNo, p.ProjectCode)
}

// RetentionReference identifies the retention receivable of this payment
func (p *ProgressPayment) RetentionReference() string {
	return fmt.Sprintf("RET-%s-%d", p.ProjectCode, p.PaymentNo)
}

// RetentionDueDate is one year after the payment date
func (p *ProgressPayment) RetentionDueDate() time.Time {
	return p.Date.AddDate(1, 0, 0)
}

// IsApproved reports whether the payment has been approved
func (p *ProgressPayment) IsApproved() bool {
	return p.Status == PaymentStatusApproved
}

// CanApprove checks the status guard, the project preconditions of approval and that
// the net payable amount is not negative, since no invoice can carry a negative total.
func (p *ProgressPayment) CanApprove(proj *project.Project) error {
	if !p.Status.CanTransitionTo(PaymentStatusApproved) {
		return shared.NewInvalidStateError(fmt.Sprintf("cannot approve progress payment in %s status", p.Status))
	}
	if proj == nil || proj.ID != p.ProjectID {
		return shared.NewNotFoundError("project")
	}
	if !proj.HasCustomer() {
		return shared.NewInvalidStateError(fmt.Sprintf("project %s has no customer assigned", proj.Code))
	}
	if proj.Currency.IsZero() {
		return shared.NewInvalidStateError(fmt.Sprintf("project %s has no contract currency", proj.Code))
	}
	if p.NetPayableAmount.IsNegative() {
		return shared.NewInvalidStateError(fmt.Sprintf(
			"net payable amount %s is negative; deductions exceed the period's work", p.NetPayableAmount.StringFixed(2)))
	}
	return nil
}

// markApproved records approval and the downstream documents it produced
func (p *ProgressPayment) markApproved(approvedBy, invoiceID uuid.UUID, receivableID *uuid.UUID) error {
	if !p.Status.CanTransitionTo(PaymentStatusApproved) {
		return shared.NewInvalidStateError(fmt.Sprintf("cannot approve progress payment in %s status", p.Status))
	}
	now := time.Now()
	p.Status = PaymentStatusApproved
	p.InvoiceID = &invoiceID
	p.RetentionReceivableID = receivableID
	p.ApprovedAt = &now
	if approvedBy != uuid.Nil {
		p.ApprovedBy = &approvedBy
	}
	p.Touch()
	p.AddDomainEvent(NewProgressPaymentApprovedEvent(p))
	return nil
}

func (p *ProgressPayment) ensureEditable() error {
	if !p.Status.IsEditable() {
		return shared.NewInvalidStateError(fmt.Sprintf("progress payment in %s status cannot be modified", p.Status))
	}
	return nil
}
