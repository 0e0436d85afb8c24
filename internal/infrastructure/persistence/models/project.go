package models

import (
	"time"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectModel is the persistence model for the Project aggregate root.
type ProjectModel struct {
	TenantAggregateModel
	Code                string          `gorm:"type:varchar(50);not null;index"`
	Name                string          `gorm:"type:varchar(200);not null"`
	CustomerID          *uuid.UUID      `gorm:"type:uuid;index"`
	CustomerName        string          `gorm:"type:varchar(200)"`
	Currency            string          `gorm:"type:varchar(3);not null"`
	ContractAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RetentionRate       decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	WithholdingTaxRate  decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	SecurityDepositRate decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	Status              project.Status  `gorm:"type:varchar(20);not null;default:'OPEN'"`
	ClosedAt            *time.Time
	Lines               []BoQLineModel `gorm:"foreignKey:ProjectID;references:ID"`
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project, including loaded lines.
func (m *ProjectModel) ToDomain() *project.Project {
	p := &project.Project{
		Code:         m.Code,
		Name:         m.Name,
		CustomerID:   m.CustomerID,
		CustomerName: m.CustomerName,
		Currency:     valueobject.Currency(m.Currency),
		Terms: project.Terms{
			ContractAmount:      m.ContractAmount,
			RetentionRate:       m.RetentionRate,
			WithholdingTaxRate:  m.WithholdingTaxRate,
			SecurityDepositRate: m.SecurityDepositRate,
		},
		Status:   m.Status,
		ClosedAt: m.ClosedAt,
	}
	p.TenantAggregateRoot = m.tenantRoot()
	p.Lines = make([]project.BoQLine, len(m.Lines))
	for i := range m.Lines {
		p.Lines[i] = *m.Lines[i].ToDomain()
	}
	return p
}

// FromDomain populates the persistence model from a domain Project. Lines are mapped separately.
func (m *ProjectModel) FromDomain(p *project.Project) {
	m.setTenantRoot(p.TenantAggregateRoot)
	m.Code = p.Code
	m.Name = p.Name
	m.CustomerID = p.CustomerID
	m.CustomerName = p.CustomerName
	m.Currency = p.Currency.String()
	m.ContractAmount = p.ContractAmount
	m.RetentionRate = p.RetentionRate
	m.WithholdingTaxRate = p.WithholdingTaxRate
	m.SecurityDepositRate = p.SecurityDepositRate
	m.Status = p.Status
	m.ClosedAt = p.ClosedAt
}

// ProjectModelFromDomain creates a new persistence model from a domain Project.
func ProjectModelFromDomain(p *project.Project) *ProjectModel {
	m := &ProjectModel{}
	m.FromDomain(p)
	return m
}

// BoQLineModel is the persistence model for a project's bill of quantities line.
type BoQLineModel struct {
	BaseModel
	ProjectID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_boq_line_project_code,priority:1"`
	ParentID          *uuid.UUID      `gorm:"type:uuid;index"`
	ItemCode          string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_boq_line_project_code,priority:2"`
	Description       string          `gorm:"type:varchar(500);not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit              string          `gorm:"type:varchar(20)"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	EstimatedUnitCost decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Category          string          `gorm:"type:varchar(100)"`
	SortOrder         int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BoQLineModel) TableName() string {
	return "boq_lines"
}

// ToDomain converts the persistence model to a domain BoQLine.
func (m *BoQLineModel) ToDomain() *project.BoQLine {
	return &project.BoQLine{
		ID:                m.ID,
		ProjectID:         m.ProjectID,
		ParentID:          m.ParentID,
		ItemCode:          m.ItemCode,
		Description:       m.Description,
		Quantity:          m.Quantity,
		Unit:              m.Unit,
		UnitPrice:         m.UnitPrice,
		EstimatedUnitCost: m.EstimatedUnitCost,
		Category:          m.Category,
		SortOrder:         m.SortOrder,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

// BoQLineModelFromDomain creates a new persistence model from a domain BoQLine.
func BoQLineModelFromDomain(l *project.BoQLine) *BoQLineModel {
	return &BoQLineModel{
		BaseModel: BaseModel{
			ID:        l.ID,
			CreatedAt: l.CreatedAt,
			UpdatedAt: l.UpdatedAt,
		},
		ProjectID:         l.ProjectID,
		ParentID:          l.ParentID,
		ItemCode:          l.ItemCode,
		Description:       l.Description,
		Quantity:          l.Quantity,
		Unit:              l.Unit,
		UnitPrice:         l.UnitPrice,
		EstimatedUnitCost: l.EstimatedUnitCost,
		Category:          l.Category,
		SortOrder:         l.SortOrder,
	}
}
