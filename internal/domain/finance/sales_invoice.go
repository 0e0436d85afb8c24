package finance

import (
	"strings"
	"time"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of a sales invoice
type InvoiceStatus string

const (
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// SalesInvoice is an invoice issued to a customer
type SalesInvoice struct {
	shared.TenantAggregateRoot
	InvoiceNumber string
	CustomerID    uuid.UUID
	CustomerName  string
	Amount        decimal.Decimal
	Currency      valueobject.Currency
	Description   string
	IssueDate     time.Time
	SourceType    SourceType
	SourceID      uuid.UUID
	Status        InvoiceStatus
}

// NewSalesInvoice creates an issued invoice
func NewSalesInvoice(
	tenantID uuid.UUID,
	invoiceNumber string,
	customerID uuid.UUID,
	customerName string,
	amount valueobject.Money,
	description string,
	issueDate time.Time,
	sourceType SourceType,
	sourceID uuid.UUID,
) (*SalesInvoice, error) {
	if invoiceNumber == "" {
		return nil, shared.NewValidationError("invoice number cannot be empty")
	}
	if len(invoiceNumber) > 50 {
		return nil, shared.NewValidationError("invoice number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewValidationError("invoice amount cannot be negative")
	}
	if strings.TrimSpace(description) == "" {
		return nil, shared.NewValidationError("invoice description cannot be empty")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewValidationError("source type is not valid")
	}

	inv := &SalesInvoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceNumber:       invoiceNumber,
		CustomerID:          customerID,
		CustomerName:        customerName,
		Amount:              amount.Round().Amount(),
		Currency:            amount.Currency(),
		Description:         description,
		IssueDate:           issueDate,
		SourceType:          sourceType,
		SourceID:            sourceID,
		Status:              InvoiceStatusIssued,
	}
	inv.AddDomainEvent(NewSalesInvoiceIssuedEvent(inv))
	return inv, nil
}
