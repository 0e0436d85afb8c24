package project

import (
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeProject = "Project"

// Event type constants
const (
	EventTypeProjectCreated          = "ProjectCreated"
	EventTypeProjectCustomerAssigned = "ProjectCustomerAssigned"
)

// ProjectCreatedEvent is raised when a new project is registered
type ProjectCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID      uuid.UUID       `json:"project_id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	ContractAmount decimal.Decimal `json:"contract_amount"`
}

// NewProjectCreatedEvent creates a new ProjectCreatedEvent
func NewProjectCreatedEvent(p *Project) *ProjectCreatedEvent {
	return &ProjectCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCreated, AggregateTypeProject, p.ID, p.TenantID),
		ProjectID:       p.ID,
		Code:            p.Code,
		Name:            p.Name,
		Currency:        p.Currency.String(),
		ContractAmount:  p.ContractAmount,
	}
}

// EventType returns the event type name
func (e *ProjectCreatedEvent) EventType() string {
	return EventTypeProjectCreated
}

// ProjectCustomerAssignedEvent is raised when the billed counterparty changes
type ProjectCustomerAssignedEvent struct {
	shared.BaseDomainEvent
	ProjectID    uuid.UUID `json:"project_id"`
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
}

// NewProjectCustomerAssignedEvent creates a new ProjectCustomerAssignedEvent
func NewProjectCustomerAssignedEvent(p *Project) *ProjectCustomerAssignedEvent {
	e := &ProjectCustomerAssignedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCustomerAssigned, AggregateTypeProject, p.ID, p.TenantID),
		ProjectID:       p.ID,
		CustomerName:    p.CustomerName,
	}
	if p.CustomerID != nil {
		e.CustomerID = *p.CustomerID
	}
	return e
}

// EventType returns the event type name
func (e *ProjectCustomerAssignedEvent) EventType() string {
	return EventTypeProjectCustomerAssigned
}
