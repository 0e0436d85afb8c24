package billing

import (
	"context"
	"time"

	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CurrencyRateProvider converts between currencies as of a date.
// Implementations must return an error rather than a default rate.
type CurrencyRateProvider interface {
	GetRate(ctx context.Context, tenantID uuid.UUID, from, to valueobject.Currency, asOf time.Time) (decimal.Decimal, error)
}

// InvoiceRequest asks the sales side to bill a counterparty
type InvoiceRequest struct {
	TenantID        uuid.UUID
	CounterpartyID  uuid.UUID
	Counterparty    string
	Amount          decimal.Decimal
	Description     string
	Currency        valueobject.Currency
	IssueDate       time.Time
	SourcePaymentID uuid.UUID
}

// InvoiceCreator creates the sales invoice for an approved payment
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (uuid.UUID, error)
}

// ReceivableRequest asks finance to record a receivable
type ReceivableRequest struct {
	TenantID        uuid.UUID
	Reference       string
	CounterpartyID  uuid.UUID
	Counterparty    string
	Amount          decimal.Decimal
	Currency        valueobject.Currency
	IssueDate       time.Time
	DueDate         time.Time
	SourcePaymentID uuid.UUID
	Memo            string
}

// ReceivableCreator records the retention receivable for an approved payment
type ReceivableCreator interface {
	CreateReceivable(ctx context.Context, req ReceivableRequest) (uuid.UUID, error)
}
