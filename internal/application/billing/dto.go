package billing

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest represents a request to create a progress payment
type CreatePaymentRequest struct {
	ProjectID              uuid.UUID       `json:"project_id"`
	Date                   time.Time       `json:"date"`
	PeriodStart            time.Time       `json:"period_start"`
	PeriodEnd              time.Time       `json:"period_end"`
	MaterialOnSiteAmount   decimal.Decimal `json:"material_on_site_amount"`
	AdvanceDeductionAmount decimal.Decimal `json:"advance_deduction_amount"`
	IsExpense              bool            `json:"is_expense"`
}

// UpdateDeductionsRequest replaces deduction inputs of a draft payment; nil fields are kept
type UpdateDeductionsRequest struct {
	MaterialOnSiteAmount   *decimal.Decimal `json:"material_on_site_amount"`
	AdvanceDeductionAmount *decimal.Decimal `json:"advance_deduction_amount"`
	SecurityDepositAmount  *decimal.Decimal `json:"security_deposit_amount"`
	AdvanceRepaymentAmount *decimal.Decimal `json:"advance_repayment_amount"`
}

// PaymentSummary is the list view of a progress payment
type PaymentSummary struct {
	ID                    uuid.UUID       `json:"id"`
	ProjectID             uuid.UUID       `json:"project_id"`
	PaymentNo             int             `json:"payment_no"`
	Date                  time.Time       `json:"date"`
	PeriodStart           time.Time       `json:"period_start"`
	PeriodEnd             time.Time       `json:"period_end"`
	Currency              string          `json:"currency"`
	GrossWorkAmount       decimal.Decimal `json:"gross_work_amount"`
	CumulativeTotalAmount decimal.Decimal `json:"cumulative_total_amount"`
	NetPayableAmount      decimal.Decimal `json:"net_payable_amount"`
	Status                string          `json:"status"`
	IsExpense             bool            `json:"is_expense"`
}

// PaymentLine is one detail row of a progress payment
type PaymentLine struct {
	ID                         uuid.UUID       `json:"id"`
	BoQLineID                  uuid.UUID       `json:"boq_line_id"`
	ItemCode                   string          `json:"item_code"`
	Description                string          `json:"description"`
	Unit                       string          `json:"unit"`
	UnitPrice                  decimal.Decimal `json:"unit_price"`
	PreviousCumulativeQuantity decimal.Decimal `json:"previous_cumulative_quantity"`
	CurrentCumulativeQuantity  decimal.Decimal `json:"current_cumulative_quantity"`
	PeriodQuantity             decimal.Decimal `json:"period_quantity"`
	PeriodAmount               decimal.Decimal `json:"period_amount"`
	TotalAmount                decimal.Decimal `json:"total_amount"`
}

// PaymentDetail is the full view of a progress payment
type PaymentDetail struct {
	ID                       uuid.UUID       `json:"id"`
	ProjectID                uuid.UUID       `json:"project_id"`
	ProjectCode              string          `json:"project_code"`
	PaymentNo                int             `json:"payment_no"`
	Date                     time.Time       `json:"date"`
	PeriodStart              time.Time       `json:"period_start"`
	PeriodEnd                time.Time       `json:"period_end"`
	Currency                 string          `json:"currency"`
	BaseCurrency             string          `json:"base_currency"`
	ExchangeRate             decimal.Decimal `json:"exchange_rate"`
	PreviousCumulativeAmount decimal.Decimal `json:"previous_cumulative_amount"`
	GrossWorkAmount          decimal.Decimal `json:"gross_work_amount"`
	MaterialOnSiteAmount     decimal.Decimal `json:"material_on_site_amount"`
	CumulativeTotalAmount    decimal.Decimal `json:"cumulative_total_amount"`
	PeriodDeltaAmount        decimal.Decimal `json:"period_delta_amount"`
	RetentionRate            decimal.Decimal `json:"retention_rate"`
	RetentionAmount          decimal.Decimal `json:"retention_amount"`
	WithholdingTaxRate       decimal.Decimal `json:"withholding_tax_rate"`
	WithholdingTaxAmount     decimal.Decimal `json:"withholding_tax_amount"`
	AdvanceDeductionAmount   decimal.Decimal `json:"advance_deduction_amount"`
	SecurityDepositRate      decimal.Decimal `json:"security_deposit_rate"`
	SecurityDepositAmount    decimal.Decimal `json:"security_deposit_amount"`
	AdvanceRepaymentAmount   decimal.Decimal `json:"advance_repayment_amount"`
	NetPayableAmount         decimal.Decimal `json:"net_payable_amount"`
	NetPayableBaseAmount     decimal.Decimal `json:"net_payable_base_amount"`
	IsExpense                bool            `json:"is_expense"`
	Status                   string          `json:"status"`
	InvoiceID                *uuid.UUID      `json:"invoice_id,omitempty"`
	RetentionReceivableID    *uuid.UUID      `json:"retention_receivable_id,omitempty"`
	ApprovedAt               *time.Time      `json:"approved_at,omitempty"`
	ApprovedBy               *uuid.UUID      `json:"approved_by,omitempty"`
	Version                  int             `json:"version"`
	Lines                    []PaymentLine   `json:"lines"`
	CreatedAt                time.Time       `json:"created_at"`
	UpdatedAt                time.Time       `json:"updated_at"`
}

// ToPaymentSummary converts a domain payment to its list view
func ToPaymentSummary(p *billing.ProgressPayment) PaymentSummary {
	return PaymentSummary{
		ID:                    p.ID,
		ProjectID:             p.ProjectID,
		PaymentNo:             p.PaymentNo,
		Date:                  p.Date,
		PeriodStart:           p.PeriodStart,
		PeriodEnd:             p.PeriodEnd,
		Currency:              p.Currency.String(),
		GrossWorkAmount:       p.GrossWorkAmount,
		CumulativeTotalAmount: p.CumulativeTotalAmount,
		NetPayableAmount:      p.NetPayableAmount,
		Status:                p.Status.String(),
		IsExpense:             p.IsExpense,
	}
}

// ToPaymentDetail converts a domain payment to its full view
func ToPaymentDetail(p *billing.ProgressPayment) PaymentDetail {
	lines := make([]PaymentLine, len(p.Details))
	for i, d := range p.Details {
		lines[i] = PaymentLine{
			ID:                         d.ID,
			BoQLineID:                  d.BoQLineID,
			ItemCode:                   d.ItemCode,
			Description:                d.Description,
			Unit:                       d.Unit,
			UnitPrice:                  d.UnitPrice,
			PreviousCumulativeQuantity: d.PreviousCumulativeQuantity,
			CurrentCumulativeQuantity:  d.CurrentCumulativeQuantity,
			PeriodQuantity:             d.PeriodQuantity,
			PeriodAmount:               d.PeriodAmount,
			TotalAmount:                d.TotalAmount,
		}
	}
	return PaymentDetail{
		ID:                       p.ID,
		ProjectID:                p.ProjectID,
		ProjectCode:              p.ProjectCode,
		PaymentNo:                p.PaymentNo,
		Date:                     p.Date,
		PeriodStart:              p.PeriodStart,
		PeriodEnd:                p.PeriodEnd,
		Currency:                 p.Currency.String(),
		BaseCurrency:             p.BaseCurrency.String(),
		ExchangeRate:             p.ExchangeRate,
		PreviousCumulativeAmount: p.PreviousCumulativeAmount,
		GrossWorkAmount:          p.GrossWorkAmount,
		MaterialOnSiteAmount:     p.MaterialOnSiteAmount,
		CumulativeTotalAmount:    p.CumulativeTotalAmount,
		PeriodDeltaAmount:        p.PeriodDeltaAmount,
		RetentionRate:            p.RetentionRate,
		RetentionAmount:          p.RetentionAmount,
		WithholdingTaxRate:       p.WithholdingTaxRate,
		WithholdingTaxAmount:     p.WithholdingTaxAmount,
		AdvanceDeductionAmount:   p.AdvanceDeductionAmount,
		SecurityDepositRate:      p.SecurityDepositRate,
		SecurityDepositAmount:    p.SecurityDepositAmount,
		AdvanceRepaymentAmount:   p.AdvanceRepaymentAmount,
		NetPayableAmount:         p.NetPayableAmount,
		NetPayableBaseAmount:     p.NetPayableBaseAmount,
		IsExpense:                p.IsExpense,
		Status:                   p.Status.String(),
		InvoiceID:                p.InvoiceID,
		RetentionReceivableID:    p.RetentionReceivableID,
		ApprovedAt:               p.ApprovedAt,
		ApprovedBy:               p.ApprovedBy,
		Version:                  p.Version,
		Lines:                    lines,
		CreatedAt:                p.CreatedAt,
		UpdatedAt:                p.UpdatedAt,
	}
}
