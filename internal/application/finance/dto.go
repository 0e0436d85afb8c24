package finance

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordExchangeRateRequest represents a request to record a rate
type RecordExchangeRateRequest struct {
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
}

// ExchangeRateResponse represents a stored exchange rate
type ExchangeRateResponse struct {
	ID            uuid.UUID       `json:"id"`
	FromCurrency  string          `json:"from_currency"`
	ToCurrency    string          `json:"to_currency"`
	Rate          decimal.Decimal `json:"rate"`
	EffectiveDate time.Time       `json:"effective_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SalesInvoiceResponse represents an issued sales invoice
type SalesInvoiceResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	IssueDate     time.Time       `json:"issue_date"`
	SourceType    string          `json:"source_type"`
	SourceID      uuid.UUID       `json:"source_id"`
	Status        string          `json:"status"`
}

// ReceivableResponse represents an account receivable
type ReceivableResponse struct {
	ID                uuid.UUID       `json:"id"`
	ReceivableNumber  string          `json:"receivable_number"`
	Reference         string          `json:"reference"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	IssueDate         time.Time       `json:"issue_date"`
	DueDate           time.Time       `json:"due_date"`
	Memo              string          `json:"memo"`
}

// PaymentLedgerResponse lists the finance documents raised by one progress payment
type PaymentLedgerResponse struct {
	Invoice    *SalesInvoiceResponse `json:"invoice,omitempty"`
	Receivable *ReceivableResponse   `json:"retention_receivable,omitempty"`
}

// ToExchangeRateResponse converts a domain exchange rate
func ToExchangeRateResponse(r *finance.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		ID:            r.ID,
		FromCurrency:  r.FromCurrency.String(),
		ToCurrency:    r.ToCurrency.String(),
		Rate:          r.Rate,
		EffectiveDate: r.EffectiveDate,
		CreatedAt:     r.CreatedAt,
	}
}

// ToSalesInvoiceResponse converts a domain sales invoice
func ToSalesInvoiceResponse(inv *finance.SalesInvoice) *SalesInvoiceResponse {
	return &SalesInvoiceResponse{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		CustomerName:  inv.CustomerName,
		Amount:        inv.Amount,
		Currency:      inv.Currency.String(),
		Description:   inv.Description,
		IssueDate:     inv.IssueDate,
		SourceType:    string(inv.SourceType),
		SourceID:      inv.SourceID,
		Status:        string(inv.Status),
	}
}

// ToReceivableResponse converts a domain receivable
func ToReceivableResponse(ar *finance.AccountReceivable) *ReceivableResponse {
	return &ReceivableResponse{
		ID:                ar.ID,
		ReceivableNumber:  ar.ReceivableNumber,
		Reference:         ar.Reference,
		CustomerID:        ar.CustomerID,
		CustomerName:      ar.CustomerName,
		TotalAmount:       ar.TotalAmount,
		OutstandingAmount: ar.OutstandingAmount,
		Currency:          ar.Currency.String(),
		Status:            string(ar.Status),
		IssueDate:         ar.IssueDate,
		DueDate:           ar.DueDate,
		Memo:              ar.Memo,
	}
}
