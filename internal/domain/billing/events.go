package billing

import (
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProgressPayment = "ProgressPayment"

// Event type constants
const (
	EventTypeProgressPaymentCreated  = "ProgressPaymentCreated"
	EventTypeProgressPaymentApproved = "ProgressPaymentApproved"
)

// ProgressPaymentCreatedEvent is raised when a draft payment is created
type ProgressPaymentCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID   uuid.UUID `json:"payment_id"`
	ProjectID   uuid.UUID `json:"project_id"`
	ProjectCode string    `json:"project_code"`
	PaymentNo   int       `json:"payment_no"`
	DetailCount int       `json:"detail_count"`
}

// NewProgressPaymentCreatedEvent creates a new ProgressPaymentCreatedEvent
func NewProgressPaymentCreatedEvent(p *ProgressPayment) *ProgressPaymentCreatedEvent {
	return &ProgressPaymentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProgressPaymentCreated, AggregateTypeProgressPayment, p.ID, p.TenantID),
		PaymentID:       p.ID,
		ProjectID:       p.ProjectID,
		ProjectCode:     p.ProjectCode,
		PaymentNo:       p.PaymentNo,
		DetailCount:     len(p.Details),
	}
}

// EventType returns the event type name
func (e *ProgressPaymentCreatedEvent) EventType() string {
	return EventTypeProgressPaymentCreated
}

// ProgressPaymentApprovedEvent is raised once invoice and retention receivable are posted
type ProgressPaymentApprovedEvent struct {
	shared.BaseDomainEvent
	PaymentID             uuid.UUID       `json:"payment_id"`
	ProjectID             uuid.UUID       `json:"project_id"`
	ProjectCode           string          `json:"project_code"`
	PaymentNo             int             `json:"payment_no"`
	Currency              string          `json:"currency"`
	NetPayableAmount      decimal.Decimal `json:"net_payable_amount"`
	RetentionAmount       decimal.Decimal `json:"retention_amount"`
	InvoiceID             uuid.UUID       `json:"invoice_id"`
	RetentionReceivableID *uuid.UUID      `json:"retention_receivable_id,omitempty"`
	ApprovedBy            *uuid.UUID      `json:"approved_by,omitempty"`
}

// NewProgressPaymentApprovedEvent creates a new ProgressPaymentApprovedEvent
func NewProgressPaymentApprovedEvent(p *ProgressPayment) *ProgressPaymentApprovedEvent {
	e := &ProgressPaymentApprovedEvent{
		BaseDomainEvent:       shared.NewBaseDomainEvent(EventTypeProgressPaymentApproved, AggregateTypeProgressPayment, p.ID, p.TenantID),
		PaymentID:             p.ID,
		ProjectID:             p.ProjectID,
		ProjectCode:           p.ProjectCode,
		PaymentNo:             p.PaymentNo,
		Currency:              p.Currency.String(),
		NetPayableAmount:      p.NetPayableAmount,
		RetentionAmount:       p.RetentionAmount,
		RetentionReceivableID: p.RetentionReceivableID,
		ApprovedBy:            p.ApprovedBy,
	}
	if p.InvoiceID != nil {
		e.InvoiceID = *p.InvoiceID
	}
	return e
}

// EventType returns the event type name
func (e *ProgressPaymentApprovedEvent) EventType() string {
	return EventTypeProgressPaymentApproved
}
