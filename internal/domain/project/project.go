package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the lifecycle status of a project
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// IsValid checks if the status is a valid project status
func (s Status) IsValid() bool {
	return s == StatusOpen || s == StatusClosed
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Terms are the commercial defaults of a contract
type Terms struct {
	ContractAmount      decimal.Decimal
	RetentionRate       decimal.Decimal
	WithholdingTaxRate  decimal.Decimal
	SecurityDepositRate decimal.Decimal
}

// Validate checks amount and rate bounds
func (t Terms) Validate() error {
	if err := valueobject.ValidateNonNegative("contract amount", t.ContractAmount); err != nil {
		return err
	}
	if err := valueobject.ValidateFraction("retention rate", t.RetentionRate); err != nil {
		return err
	}
	if err := valueobject.ValidateFraction("withholding tax rate", t.WithholdingTaxRate); err != nil {
		return err
	}
	return valueobject.ValidateFraction("security deposit rate", t.SecurityDepositRate)
}

// Project is the aggregate root that owns a contract's BoQ lines
type Project struct {
	shared.TenantAggregateRoot
	Code         string
	Name         string
	CustomerID   *uuid.UUID
	CustomerName string
	Currency     valueobject.Currency
	Terms
	Status   Status
	ClosedAt *time.Time
	Lines    []BoQLine
}

// NewProject creates a new open project
func NewProject(tenantID uuid.UUID, code, name string, currency valueobject.Currency, terms Terms) (*Project, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewValidationError("project code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("project code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("project name cannot be empty")
	}
	if currency.IsZero() {
		return nil, shared.NewValidationError("contract currency cannot be empty")
	}
	if err := terms.Validate(); err != nil {
		return nil, err
	}

	p := &Project{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Currency:            currency,
		Terms:               terms,
		Status:              StatusOpen,
	}
	p.AddDomainEvent(NewProjectCreatedEvent(p))
	return p, nil
}

// AssignCustomer sets the counterparty billed by progress payments
func (p *Project) AssignCustomer(customerID uuid.UUID, customerName string) error {
	if customerID == uuid.Nil {
		return shared.NewValidationError("customer ID cannot be empty")
	}
	if strings.TrimSpace(customerName) == "" {
		return shared.NewValidationError("customer name cannot be empty")
	}
	p.CustomerID = &customerID
	p.CustomerName = customerName
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProjectCustomerAssignedEvent(p))
	return nil
}

// HasCustomer reports whether a counterparty has been assigned
func (p *Project) HasCustomer() bool {
	return p.CustomerID != nil && *p.CustomerID != uuid.Nil
}

// IsOpen reports whether the project accepts changes
func (p *Project) IsOpen() bool {
	return p.Status == StatusOpen
}

// Close closes the project for further BoQ changes
func (p *Project) Close() error {
	if p.Status == StatusClosed {
		return shared.NewInvalidStateError("project is already closed")
	}
	now := time.Now()
	p.Status = StatusClosed
	p.ClosedAt = &now
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AddLine appends a BoQ line, optionally nested under an existing line
func (p *Project) AddLine(parentID *uuid.UUID, spec LineSpec) (*BoQLine, error) {
	if !p.IsOpen() {
		return nil, shared.NewInvalidStateError(fmt.Sprintf("cannot add BoQ line to project in %s status", p.Status))
	}
	if parentID != nil {
		if _, ok := p.Line(*parentID); !ok {
			return nil, shared.NewNotFoundError("parent BoQ line")
		}
	}
	if _, taken := p.LineByCode(spec.ItemCode); taken {
		return nil, shared.NewValidationError(fmt.Sprintf("item code %s already exists in project", strings.TrimSpace(spec.ItemCode)))
	}

	line, err := newBoQLine(p.ID, parentID, len(p.Lines)+1, spec)
	if err != nil {
		return nil, err
	}
	p.Lines = append(p.Lines, *line)
	p.Touch()
	p.IncrementVersion()
	return &p.Lines[len(p.Lines)-1], nil
}

// Line finds a BoQ line by ID
func (p *Project) Line(id uuid.UUID) (*BoQLine, bool) {
	for i := range p.Lines {
		if p.Lines[i].ID == id {
			return &p.Lines[i], true
		}
	}
	return nil, false
}

// LineByCode finds a BoQ line by item code
func (p *Project) LineByCode(code string) (*BoQLine, bool) {
	code = strings.TrimSpace(code)
	for i := range p.Lines {
		if p.Lines[i].ItemCode == code {
			return &p.Lines[i], true
		}
	}
	return nil, false
}

// Tree builds the BoQ hierarchy over the project's lines
func (p *Project) Tree() *BoQTree {
	return BuildBoQTree(p.Lines)
}

// TotalContractValue sums the contract amounts of all leaf lines
func (p *Project) TotalContractValue() decimal.Decimal {
	tree := p.Tree()
	total := decimal.Zero
	tree.Walk(func(idx, _ int) {
		if len(tree.Children(idx)) == 0 {
			total = total.Add(tree.Line(idx).TotalContractAmount())
		}
	})
	return total
}
