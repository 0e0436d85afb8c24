package finance

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate and event type constants
const (
	AggregateTypeSalesInvoice      = "SalesInvoice"
	AggregateTypeAccountReceivable = "AccountReceivable"

	EventTypeSalesInvoiceIssued       = "SalesInvoiceIssued"
	EventTypeAccountReceivableCreated = "AccountReceivableCreated"
)

// SalesInvoiceIssuedEvent is raised when an invoice is issued
type SalesInvoiceIssuedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	SourceType    SourceType      `json:"source_type"`
	SourceID      uuid.UUID       `json:"source_id"`
}

// NewSalesInvoiceIssuedEvent creates a new SalesInvoiceIssuedEvent
func NewSalesInvoiceIssuedEvent(inv *SalesInvoice) *SalesInvoiceIssuedEvent {
	return &SalesInvoiceIssuedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesInvoiceIssued, AggregateTypeSalesInvoice, inv.ID, inv.TenantID),
		InvoiceID:       inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		CustomerID:      inv.CustomerID,
		Amount:          inv.Amount,
		Currency:        inv.Currency.String(),
		SourceType:      inv.SourceType,
		SourceID:        inv.SourceID,
	}
}

// EventType returns the event type name
func (e *SalesInvoiceIssuedEvent) EventType() string {
	return EventTypeSalesInvoiceIssued
}

// AccountReceivableCreatedEvent is raised when a new account receivable is created
type AccountReceivableCreatedEvent struct {
	shared.BaseDomainEvent
	ReceivableID     uuid.UUID       `json:"receivable_id"`
	ReceivableNumber string          `json:"receivable_number"`
	Reference        string          `json:"reference"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	SourceType       SourceType      `json:"source_type"`
	SourceID         uuid.UUID       `json:"source_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency"`
	DueDate          time.Time       `json:"due_date"`
}

// NewAccountReceivableCreatedEvent creates a new AccountReceivableCreatedEvent
func NewAccountReceivableCreatedEvent(ar *AccountReceivable) *AccountReceivableCreatedEvent {
	return &AccountReceivableCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeAccountReceivableCreated, AggregateTypeAccountReceivable, ar.ID, ar.TenantID),
		ReceivableID:     ar.ID,
		ReceivableNumber: ar.ReceivableNumber,
		Reference:        ar.Reference,
		CustomerID:       ar.CustomerID,
		SourceType:       ar.SourceType,
		SourceID:         ar.SourceID,
		TotalAmount:      ar.TotalAmount,
		Currency:         ar.Currency.String(),
		DueDate:          ar.DueDate,
	}
}

// EventType returns the event type name
func (e *AccountReceivableCreatedEvent) EventType() string {
	return EventTypeAccountReceivableCreated
}
