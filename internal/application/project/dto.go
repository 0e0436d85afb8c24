package project

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProjectRequest represents a request to register a project
type CreateProjectRequest struct {
	Code                string          `json:"code"`
	Name                string          `json:"name"`
	CustomerID          *uuid.UUID      `json:"customer_id"`
	CustomerName        string          `json:"customer_name"`
	Currency            string          `json:"currency"`
	ContractAmount      decimal.Decimal `json:"contract_amount"`
	RetentionRate       decimal.Decimal `json:"retention_rate"`
	WithholdingTaxRate  decimal.Decimal `json:"withholding_tax_rate"`
	SecurityDepositRate decimal.Decimal `json:"security_deposit_rate"`
}

// AssignCustomerRequest represents a request to set the billed counterparty
type AssignCustomerRequest struct {
	CustomerID   uuid.UUID `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
}

// AddBoQLineRequest represents a request to add a BoQ line
type AddBoQLineRequest struct {
	ParentID          *uuid.UUID      `json:"parent_id"`
	ItemCode          string          `json:"item_code"`
	Description       string          `json:"description"`
	Quantity          decimal.Decimal `json:"quantity"`
	Unit              string          `json:"unit"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	EstimatedUnitCost decimal.Decimal `json:"estimated_unit_cost"`
	Category          string          `json:"category"`
}

// ImportBoQLine is one row of a BoQ sheet upload. Parents are referenced by
// item code and resolve against existing lines or earlier rows.
type ImportBoQLine struct {
	Row               int
	ParentItemCode    string
	ItemCode          string
	Description       string
	Quantity          decimal.Decimal
	Unit              string
	UnitPrice         decimal.Decimal
	EstimatedUnitCost decimal.Decimal
	Category          string
}

// ImportBoQLinesResponse reports an applied BoQ import
type ImportBoQLinesResponse struct {
	ImportedRows int               `json:"imported_rows"`
	Lines        []BoQLineResponse `json:"lines"`
}

// BoQLineResponse represents a BoQ line, with nested children in tree views
type BoQLineResponse struct {
	ID                  uuid.UUID         `json:"id"`
	ParentID            *uuid.UUID        `json:"parent_id,omitempty"`
	ItemCode            string            `json:"item_code"`
	Description         string            `json:"description"`
	Quantity            decimal.Decimal   `json:"quantity"`
	Unit                string            `json:"unit"`
	UnitPrice           decimal.Decimal   `json:"unit_price"`
	EstimatedUnitCost   decimal.Decimal   `json:"estimated_unit_cost"`
	Category            string            `json:"category,omitempty"`
	SortOrder           int               `json:"sort_order"`
	TotalContractAmount decimal.Decimal   `json:"total_contract_amount"`
	TotalEstimatedCost  decimal.Decimal   `json:"total_estimated_cost"`
	Children            []BoQLineResponse `json:"children,omitempty"`
}

// ProjectResponse represents a project with its flat BoQ
type ProjectResponse struct {
	ID                  uuid.UUID         `json:"id"`
	Code                string            `json:"code"`
	Name                string            `json:"name"`
	CustomerID          *uuid.UUID        `json:"customer_id,omitempty"`
	CustomerName        string            `json:"customer_name,omitempty"`
	Currency            string            `json:"currency"`
	ContractAmount      decimal.Decimal   `json:"contract_amount"`
	RetentionRate       decimal.Decimal   `json:"retention_rate"`
	WithholdingTaxRate  decimal.Decimal   `json:"withholding_tax_rate"`
	SecurityDepositRate decimal.Decimal   `json:"security_deposit_rate"`
	Status              string            `json:"status"`
	Lines               []BoQLineResponse `json:"lines"`
	Version             int               `json:"version"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// ToBoQLineResponse converts a domain BoQ line
func ToBoQLineResponse(l project.BoQLine) BoQLineResponse {
	return BoQLineResponse{
		ID:                  l.ID,
		ParentID:            l.ParentID,
		ItemCode:            l.ItemCode,
		Description:         l.Description,
		Quantity:            l.Quantity,
		Unit:                l.Unit,
		UnitPrice:           l.UnitPrice,
		EstimatedUnitCost:   l.EstimatedUnitCost,
		Category:            l.Category,
		SortOrder:           l.SortOrder,
		TotalContractAmount: l.TotalContractAmount(),
		TotalEstimatedCost:  l.TotalEstimatedCost(),
	}
}

// ToProjectResponse converts a domain project
func ToProjectResponse(p *project.Project) ProjectResponse {
	lines := make([]BoQLineResponse, len(p.Lines))
	for i, l := range p.Lines {
		lines[i] = ToBoQLineResponse(l)
	}
	return ProjectResponse{
		ID:                  p.ID,
		Code:                p.Code,
		Name:                p.Name,
		CustomerID:          p.CustomerID,
		CustomerName:        p.CustomerName,
		Currency:            p.Currency.String(),
		ContractAmount:      p.ContractAmount,
		RetentionRate:       p.RetentionRate,
		WithholdingTaxRate:  p.WithholdingTaxRate,
		SecurityDepositRate: p.SecurityDepositRate,
		Status:              p.Status.String(),
		Lines:               lines,
		Version:             p.Version,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}

// ToBoQTreeResponse nests lines under their parents
func ToBoQTreeResponse(tree *project.BoQTree) []BoQLineResponse {
	var build func(idx int) BoQLineResponse
	build = func(idx int) BoQLineResponse {
		node := ToBoQLineResponse(tree.Line(idx))
		for _, c := range tree.Children(idx) {
			node.Children = append(node.Children, build(c))
		}
		return node
	}
	roots := make([]BoQLineResponse, 0, len(tree.Roots()))
	for _, r := range tree.Roots() {
		roots = append(roots, build(r))
	}
	return roots
}
