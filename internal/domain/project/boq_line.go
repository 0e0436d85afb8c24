package project

import (
	"strings"
	"time"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineSpec carries the attributes of a new BoQ line
type LineSpec struct {
	ItemCode          string
	Description       string
	Quantity          decimal.Decimal
	Unit              string
	UnitPrice         decimal.Decimal
	EstimatedUnitCost decimal.Decimal
	Category          string
}

// BoQLine is a billable item of a project's bill of quantities
type BoQLine struct {
	ID                uuid.UUID
	ProjectID         uuid.UUID
	ParentID          *uuid.UUID
	ItemCode          string
	Description       string
	Quantity          decimal.Decimal
	Unit              string
	UnitPrice         decimal.Decimal
	EstimatedUnitCost decimal.Decimal
	Category          string
	SortOrder         int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func newBoQLine(projectID uuid.UUID, parentID *uuid.UUID, sortOrder int, spec LineSpec) (*BoQLine, error) {
	code := strings.TrimSpace(spec.ItemCode)
	if code == "" {
		return nil, shared.NewValidationError("item code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("item code cannot exceed 50 characters")
	}
	if strings.TrimSpace(spec.Description) == "" {
		return nil, shared.NewValidationError("description cannot be empty")
	}
	if err := valueobject.ValidateNonNegative("quantity", spec.Quantity); err != nil {
		return nil, err
	}
	if err := valueobject.ValidateNonNegative("unit price", spec.UnitPrice); err != nil {
		return nil, err
	}
	if err := valueobject.ValidateNonNegative("estimated unit cost", spec.EstimatedUnitCost); err != nil {
		return nil, err
	}

	now := time.Now()
	return &BoQLine{
		ID:                uuid.New(),
		ProjectID:         projectID,
		ParentID:          parentID,
		ItemCode:          code,
		Description:       spec.Description,
		Quantity:          spec.Quantity,
		Unit:              spec.Unit,
		UnitPrice:         spec.UnitPrice,
		EstimatedUnitCost: spec.EstimatedUnitCost,
		Category:          spec.Category,
		SortOrder:         sortOrder,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// TotalContractAmount is quantity × contract unit price
func (l BoQLine) TotalContractAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// TotalEstimatedCost is quantity × estimated unit cost
func (l BoQLine) TotalEstimatedCost() decimal.Decimal {
	return l.Quantity.Mul(l.EstimatedUnitCost)
}

// IsRoot reports whether the line has no parent
func (l BoQLine) IsRoot() bool {
	return l.ParentID == nil
}
