package models

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesInvoiceModel is the persistence model for the SalesInvoice aggregate root.
type SalesInvoiceModel struct {
	TenantAggregateModel
	InvoiceNumber string                `gorm:"type:varchar(50);not null;index"`
	CustomerID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	CustomerName  string                `gorm:"type:varchar(200);not null"`
	Amount        decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Currency      string                `gorm:"type:varchar(3);not null"`
	Description   string                `gorm:"type:varchar(500);not null"`
	IssueDate     time.Time             `gorm:"type:date;not null"`
	SourceType    finance.SourceType    `gorm:"type:varchar(30);not null;index:idx_invoice_source,priority:1"`
	SourceID      uuid.UUID             `gorm:"type:uuid;not null;index:idx_invoice_source,priority:2"`
	Status        finance.InvoiceStatus `gorm:"type:varchar(20);not null;default:'ISSUED'"`
}

// TableName returns the table name for GORM
func (SalesInvoiceModel) TableName() string {
	return "sales_invoices"
}

// ToDomain converts the persistence model to a domain SalesInvoice entity.
func (m *SalesInvoiceModel) ToDomain() *finance.SalesInvoice {
	inv := &finance.SalesInvoice{
		InvoiceNumber: m.InvoiceNumber,
		CustomerID:    m.CustomerID,
		CustomerName:  m.CustomerName,
		Amount:        m.Amount,
		Currency:      valueobject.Currency(m.Currency),
		Description:   m.Description,
		IssueDate:     m.IssueDate,
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
		Status:        m.Status,
	}
	inv.TenantAggregateRoot = m.tenantRoot()
	return inv
}

// FromDomain populates the persistence model from a domain SalesInvoice entity.
func (m *SalesInvoiceModel) FromDomain(inv *finance.SalesInvoice) {
	m.setTenantRoot(inv.TenantAggregateRoot)
	m.InvoiceNumber = inv.InvoiceNumber
	m.CustomerID = inv.CustomerID
	m.CustomerName = inv.CustomerName
	m.Amount = inv.Amount
	m.Currency = inv.Currency.String()
	m.Description = inv.Description
	m.IssueDate = inv.IssueDate
	m.SourceType = inv.SourceType
	m.SourceID = inv.SourceID
	m.Status = inv.Status
}

// SalesInvoiceModelFromDomain creates a new persistence model from a domain SalesInvoice.
func SalesInvoiceModelFromDomain(inv *finance.SalesInvoice) *SalesInvoiceModel {
	m := &SalesInvoiceModel{}
	m.FromDomain(inv)
	return m
}

// AccountReceivableModel is the persistence model for the AccountReceivable aggregate root.
type AccountReceivableModel struct {
	TenantAggregateModel
	ReceivableNumber  string                   `gorm:"type:varchar(50);not null;index"`
	Reference         string                   `gorm:"type:varchar(100);not null"`
	CustomerID        uuid.UUID                `gorm:"type:uuid;not null;index"`
	CustomerName      string                   `gorm:"type:varchar(200);not null"`
	SourceType        finance.SourceType       `gorm:"type:varchar(30);not null;index:idx_receivable_source,priority:1"`
	SourceID          uuid.UUID                `gorm:"type:uuid;not null;index:idx_receivable_source,priority:2"`
	TotalAmount       decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	OutstandingAmount decimal.Decimal          `gorm:"type:decimal(18,2);not null"`
	Currency          string                   `gorm:"type:varchar(3);not null"`
	Status            finance.ReceivableStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	IssueDate         time.Time                `gorm:"type:date;not null"`
	DueDate           time.Time                `gorm:"type:date;not null;index"`
	Memo              string                   `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (AccountReceivableModel) TableName() string {
	return "account_receivables"
}

// ToDomain converts the persistence model to a domain AccountReceivable entity.
func (m *AccountReceivableModel) ToDomain() *finance.AccountReceivable {
	return &finance.AccountReceivable{
		TenantAggregateRoot: m.tenantRoot(),
		ReceivableNumber:  m.ReceivableNumber,
		Reference:         m.Reference,
		CustomerID:        m.CustomerID,
		CustomerName:      m.CustomerName,
		SourceType:        m.SourceType,
		SourceID:          m.SourceID,
		TotalAmount:       m.TotalAmount,
		OutstandingAmount: m.OutstandingAmount,
		Currency:          valueobject.Currency(m.Currency),
		Status:            m.Status,
		IssueDate:         m.IssueDate,
		DueDate:           m.DueDate,
		Memo:              m.Memo,
	}
}

// FromDomain populates the persistence model from a domain AccountReceivable entity.
func (m *AccountReceivableModel) FromDomain(ar *finance.AccountReceivable) {
	m.setTenantRoot(ar.TenantAggregateRoot)
	m.ReceivableNumber = ar.ReceivableNumber
	m.Reference = ar.Reference
	m.CustomerID = ar.CustomerID
	m.CustomerName = ar.CustomerName
	m.SourceType = ar.SourceType
	m.SourceID = ar.SourceID
	m.TotalAmount = ar.TotalAmount
	m.OutstandingAmount = ar.OutstandingAmount
	m.Currency = ar.Currency.String()
	m.Status = ar.Status
	m.IssueDate = ar.IssueDate
	m.DueDate = ar.DueDate
	m.Memo = ar.Memo
}

// AccountReceivableModelFromDomain creates a new persistence model from a domain AccountReceivable.
func AccountReceivableModelFromDomain(ar *finance.AccountReceivable) *AccountReceivableModel {
	m := &AccountReceivableModel{}
	m.FromDomain(ar)
	return m
}

// ExchangeRateModel is the persistence model for a dated currency conversion rate.
type ExchangeRateModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_exchange_rate_key,priority:1"`
	FromCurrency  string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_exchange_rate_key,priority:2"`
	ToCurrency    string          `gorm:"type:varchar(3);not null;uniqueIndex:idx_exchange_rate_key,priority:3"`
	EffectiveDate time.Time       `gorm:"type:date;not null;uniqueIndex:idx_exchange_rate_key,priority:4"`
	Rate          decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain ExchangeRate.
func (m *ExchangeRateModel) ToDomain() *finance.ExchangeRate {
	return &finance.ExchangeRate{
		ID:            m.ID,
		TenantID:      m.TenantID,
		FromCurrency:  valueobject.Currency(m.FromCurrency),
		ToCurrency:    valueobject.Currency(m.ToCurrency),
		Rate:          m.Rate,
		EffectiveDate: m.EffectiveDate,
		CreatedAt:     m.CreatedAt,
	}
}

// ExchangeRateModelFromDomain creates a new persistence model from a domain ExchangeRate.
func ExchangeRateModelFromDomain(r *finance.ExchangeRate) *ExchangeRateModel {
	return &ExchangeRateModel{
		ID:            r.ID,
		TenantID:      r.TenantID,
		FromCurrency:  r.FromCurrency.String(),
		ToCurrency:    r.ToCurrency.String(),
		Rate:          r.Rate,
		EffectiveDate: r.EffectiveDate,
		CreatedAt:     r.CreatedAt,
	}
}
