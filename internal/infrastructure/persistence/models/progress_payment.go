package models

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProgressPaymentModel is the persistence model for the ProgressPayment aggregate root.
// (project_id, payment_no) is unique; the numbering retry relies on it.
type ProgressPaymentModel struct {
	TenantAggregateModel
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_payment_project_no,priority:1"`
	ProjectCode string    `gorm:"type:varchar(50);not null"`
	PaymentNo   int       `gorm:"not null;uniqueIndex:idx_payment_project_no,priority:2"`
	Date        time.Time `gorm:"type:date;not null"`
	PeriodStart time.Time `gorm:"type:date;not null"`
	PeriodEnd   time.Time `gorm:"type:date;not null"`

	Currency     string          `gorm:"type:varchar(3);not null"`
	BaseCurrency string          `gorm:"type:varchar(3);not null"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(18,6);not null"`

	PreviousCumulativeAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	GrossWorkAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	MaterialOnSiteAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CumulativeTotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PeriodDeltaAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RetentionRate            decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	RetentionAmount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	WithholdingTaxRate       decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	WithholdingTaxAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AdvanceDeductionAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	SecurityDepositRate      decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	SecurityDepositAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	AdvanceRepaymentAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NetPayableAmount         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	NetPayableBaseAmount     decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	IsExpense             bool                  `gorm:"not null;default:false"`
	Status                billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	InvoiceID             *uuid.UUID            `gorm:"type:uuid"`
	RetentionReceivableID *uuid.UUID            `gorm:"type:uuid"`
	ApprovedAt            *time.Time
	ApprovedBy            *uuid.UUID `gorm:"type:uuid"`

	Details []ProgressPaymentDetailModel `gorm:"foreignKey:PaymentID;references:ID"`
}

// TableName returns the table name for GORM
func (ProgressPaymentModel) TableName() string {
	return "progress_payments"
}

// ToDomain converts the persistence model to a domain ProgressPayment, including loaded details.
func (m *ProgressPaymentModel) ToDomain() *billing.ProgressPayment {
	p := &billing.ProgressPayment{
		ProjectID:                m.ProjectID,
		ProjectCode:              m.ProjectCode,
		PaymentNo:                m.PaymentNo,
		Date:                     m.Date,
		PeriodStart:              m.PeriodStart,
		PeriodEnd:                m.PeriodEnd,
		Currency:                 valueobject.Currency(m.Currency),
		BaseCurrency:             valueobject.Currency(m.BaseCurrency),
		ExchangeRate:             m.ExchangeRate,
		PreviousCumulativeAmount: m.PreviousCumulativeAmount,
		GrossWorkAmount:          m.GrossWorkAmount,
		MaterialOnSiteAmount:     m.MaterialOnSiteAmount,
		CumulativeTotalAmount:    m.CumulativeTotalAmount,
		PeriodDeltaAmount:        m.PeriodDeltaAmount,
		RetentionRate:            m.RetentionRate,
		RetentionAmount:          m.RetentionAmount,
		WithholdingTaxRate:       m.WithholdingTaxRate,
		WithholdingTaxAmount:     m.WithholdingTaxAmount,
		AdvanceDeductionAmount:   m.AdvanceDeductionAmount,
		SecurityDepositRate:      m.SecurityDepositRate,
		SecurityDepositAmount:    m.SecurityDepositAmount,
		AdvanceRepaymentAmount:   m.AdvanceRepaymentAmount,
		NetPayableAmount:         m.NetPayableAmount,
		NetPayableBaseAmount:     m.NetPayableBaseAmount,
		IsExpense:                m.IsExpense,
		Status:                   m.Status,
		InvoiceID:                m.InvoiceID,
		RetentionReceivableID:    m.RetentionReceivableID,
		ApprovedAt:               m.ApprovedAt,
		ApprovedBy:               m.ApprovedBy,
	}
	p.TenantAggregateRoot = m.tenantRoot()
	if len(m.Details) > 0 {
		p.Details = make([]billing.PaymentDetail, len(m.Details))
		for i := range m.Details {
			p.Details[i] = *m.Details[i].ToDomain()
		}
	}
	return p
}

// FromDomain populates the persistence model from a domain ProgressPayment. Details are mapped separately.
func (m *ProgressPaymentModel) FromDomain(p *billing.ProgressPayment) {
	m.setTenantRoot(p.TenantAggregateRoot)
	m.ProjectID = p.ProjectID
	m.ProjectCode = p.ProjectCode
	m.PaymentNo = p.PaymentNo
	m.Date = p.Date
	m.PeriodStart = p.PeriodStart
	m.PeriodEnd = p.PeriodEnd
	m.Currency = p.Currency.String()
	m.BaseCurrency = p.BaseCurrency.String()
	m.ExchangeRate = p.ExchangeRate
	m.PreviousCumulativeAmount = p.PreviousCumulativeAmount
	m.GrossWorkAmount = p.GrossWorkAmount
	m.MaterialOnSiteAmount = p.MaterialOnSiteAmount
	m.CumulativeTotalAmount = p.CumulativeTotalAmount
	m.PeriodDeltaAmount = p.PeriodDeltaAmount
	m.RetentionRate = p.RetentionRate
	m.RetentionAmount = p.RetentionAmount
	m.WithholdingTaxRate = p.WithholdingTaxRate
	m.WithholdingTaxAmount = p.WithholdingTaxAmount
	m.AdvanceDeductionAmount = p.AdvanceDeductionAmount
	m.SecurityDepositRate = p.SecurityDepositRate
	m.SecurityDepositAmount = p.SecurityDepositAmount
	m.AdvanceRepaymentAmount = p.AdvanceRepaymentAmount
	m.NetPayableAmount = p.NetPayableAmount
	m.NetPayableBaseAmount = p.NetPayableBaseAmount
	m.IsExpense = p.IsExpense
	m.Status = p.Status
	m.InvoiceID = p.InvoiceID
	m.RetentionReceivableID = p.RetentionReceivableID
	m.ApprovedAt = p.ApprovedAt
	m.ApprovedBy = p.ApprovedBy
}

// ProgressPaymentModelFromDomain creates a new persistence model from a domain ProgressPayment.
func ProgressPaymentModelFromDomain(p *billing.ProgressPayment) *ProgressPaymentModel {
	m := &ProgressPaymentModel{}
	m.FromDomain(p)
	return m
}

// ProgressPaymentDetailModel is the persistence model for a payment's per-line row.
type ProgressPaymentDetailModel struct {
	BaseModel
	PaymentID                  uuid.UUID       `gorm:"type:uuid;not null;index"`
	BoQLineID                  uuid.UUID       `gorm:"column:boq_line_id;type:uuid;not null;index"`
	ItemCode                   string          `gorm:"type:varchar(50);not null"`
	Description                string          `gorm:"type:varchar(500);not null"`
	Unit                       string          `gorm:"type:varchar(20)"`
	UnitPrice                  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PreviousCumulativeQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CurrentCumulativeQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PeriodQuantity             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PeriodAmount               decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	TotalAmount                decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	SortOrder                  int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProgressPaymentDetailModel) TableName() string {
	return "progress_payment_details"
}

// ToDomain converts the persistence model to a domain PaymentDetail.
func (m *ProgressPaymentDetailModel) ToDomain() *billing.PaymentDetail {
	return &billing.PaymentDetail{
		ID:                         m.ID,
		PaymentID:                  m.PaymentID,
		BoQLineID:                  m.BoQLineID,
		ItemCode:                   m.ItemCode,
		Description:                m.Description,
		Unit:                       m.Unit,
		UnitPrice:                  m.UnitPrice,
		PreviousCumulativeQuantity: m.PreviousCumulativeQuantity,
		CurrentCumulativeQuantity:  m.CurrentCumulativeQuantity,
		PeriodQuantity:             m.PeriodQuantity,
		PeriodAmount:               m.PeriodAmount,
		TotalAmount:                m.TotalAmount,
		SortOrder:                  m.SortOrder,
		CreatedAt:                  m.CreatedAt,
		UpdatedAt:                  m.UpdatedAt,
	}
}

// ProgressPaymentDetailModelFromDomain creates a new persistence model from a domain PaymentDetail.
func ProgressPaymentDetailModelFromDomain(d *billing.PaymentDetail) *ProgressPaymentDetailModel {
	return &ProgressPaymentDetailModel{
		BaseModel: BaseModel{
			ID:        d.ID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		PaymentID:                  d.PaymentID,
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
		SortOrder:                  d.SortOrder,
	}
}
