package finance

import (
	"strings"
	"time"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReceivableStatus represents the status of an account receivable
type ReceivableStatus string

const (
	ReceivableStatusPending   ReceivableStatus = "PENDING"   // Unpaid, outstanding balance > 0
	ReceivableStatusPaid      ReceivableStatus = "PAID"      // Fully collected
	ReceivableStatusCancelled ReceivableStatus = "CANCELLED" // Cancelled before collection
)

// IsValid checks if the status is a valid ReceivableStatus
func (s ReceivableStatus) IsValid() bool {
	switch s {
	case ReceivableStatusPending, ReceivableStatusPaid, ReceivableStatusCancelled:
		return true
	}
	return false
}

// AccountReceivable tracks money owed by a customer
type AccountReceivable struct {
	shared.TenantAggregateRoot
	ReceivableNumber  string
	Reference         string
	CustomerID        uuid.UUID
	CustomerName      string
	SourceType        SourceType
	SourceID          uuid.UUID
	TotalAmount       decimal.Decimal
	OutstandingAmount decimal.Decimal
	Currency          valueobject.Currency
	Status            ReceivableStatus
	IssueDate         time.Time
	DueDate           time.Time
	Memo              string
}

// ReceivableDraft carries the attributes of a new receivable
type ReceivableDraft struct {
	ReceivableNumber string
	Reference        string
	CustomerID       uuid.UUID
	CustomerName     string
	SourceType       SourceType
	SourceID         uuid.UUID
	Amount           valueobject.Money
	IssueDate        time.Time
	DueDate          time.Time
	Memo             string
}

// NewAccountReceivable creates a pending receivable
func NewAccountReceivable(tenantID uuid.UUID, in ReceivableDraft) (*AccountReceivable, error) {
	if in.ReceivableNumber == "" {
		return nil, shared.NewValidationError("receivable number cannot be empty")
	}
	if len(in.ReceivableNumber) > 50 {
		return nil, shared.NewValidationError("receivable number cannot exceed 50 characters")
	}
	if strings.TrimSpace(in.Reference) == "" {
		return nil, shared.NewValidationError("receivable reference cannot be empty")
	}
	if in.CustomerID == uuid.Nil {
		return nil, shared.NewValidationError("customer ID cannot be empty")
	}
	if !in.SourceType.IsValid() {
		return nil, shared.NewValidationError("source type is not valid")
	}
	if !in.Amount.IsPositive() {
		return nil, shared.NewValidationError("total amount must be positive")
	}
	if in.DueDate.Before(in.IssueDate) {
		return nil, shared.NewValidationError("due date cannot be before issue date")
	}

	amount := in.Amount.Round()
	ar := &AccountReceivable{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ReceivableNumber:    in.ReceivableNumber,
		Reference:           in.Reference,
		CustomerID:          in.CustomerID,
		CustomerName:        in.CustomerName,
		SourceType:          in.SourceType,
		SourceID:            in.SourceID,
		TotalAmount:         amount.Amount(),
		OutstandingAmount:   amount.Amount(),
		Currency:            amount.Currency(),
		Status:              ReceivableStatusPending,
		IssueDate:           in.IssueDate,
		DueDate:             in.DueDate,
		Memo:                in.Memo,
	}
	ar.AddDomainEvent(NewAccountReceivableCreatedEvent(ar))
	return ar, nil
}

// IsOverdue reports whether the receivable is still pending after its due date
func (ar *AccountReceivable) IsOverdue(now time.Time) bool {
	return ar.Status == ReceivableStatusPending && now.After(ar.DueDate)
}
