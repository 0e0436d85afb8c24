package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProjectService handles project administration and the BoQ registry
type ProjectService struct {
	projectRepo project.ProjectRepository
	logger      *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo project.ProjectRepository, logger *zap.Logger) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{projectRepo: projectRepo, logger: logger}
}

// CreateProject registers a new open project
func (s *ProjectService) CreateProject(ctx context.Context, tenantID, userID uuid.UUID, req CreateProjectRequest) (*ProjectResponse, error) {
	currency, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}

	exists, err := s.projectRepo.ExistsByCode(ctx, tenantID, req.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check project code: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("project code %s already exists", req.Code))
	}

	p, err := project.NewProject(tenantID, req.Code, req.Name, currency, project.Terms{
		ContractAmount:      req.ContractAmount,
		RetentionRate:       req.RetentionRate,
		WithholdingTaxRate:  req.WithholdingTaxRate,
		SecurityDepositRate: req.SecurityDepositRate,
	})
	if err != nil {
		return nil, err
	}
	p.SetCreatedBy(userID)
	if req.CustomerID != nil {
		if err := p.AssignCustomer(*req.CustomerID, req.CustomerName); err != nil {
			return nil, err
		}
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("project created",
		zap.String("project_id", p.ID.String()),
		zap.String("code", p.Code),
		zap.String("currency", p.Currency.String()),
	)

	resp := ToProjectResponse(p)
	return &resp, nil
}

// GetProject retrieves a project with its BoQ lines
func (s *ProjectService) GetProject(ctx context.Context, tenantID, projectID uuid.UUID) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	resp := ToProjectResponse(p)
	return &resp, nil
}

// AssignCustomer sets the counterparty billed by the project's payments
func (s *ProjectService) AssignCustomer(ctx context.Context, tenantID, projectID uuid.UUID, req AssignCustomerRequest) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if err := p.AssignCustomer(req.CustomerID, req.CustomerName); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	resp := ToProjectResponse(p)
	return &resp, nil
}

// AddBoQLine adds a line to the project's bill of quantities
func (s *ProjectService) AddBoQLine(ctx context.Context, tenantID, projectID uuid.UUID, req AddBoQLineRequest) (*BoQLineResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	line, err := p.AddLine(req.ParentID, project.LineSpec{
		ItemCode:          req.ItemCode,
		Description:       req.Description,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		UnitPrice:         req.UnitPrice,
		EstimatedUnitCost: req.EstimatedUnitCost,
		Category:          req.Category,
	})
	if err != nil {
		return nil, err
	}
	resp := ToBoQLineResponse(*line)
	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListBoQLines returns the project's BoQ as a tree in insertion order
func (s *ProjectService) ListBoQLines(ctx context.Context, tenantID, projectID uuid.UUID) ([]BoQLineResponse, error) {
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}
	return ToBoQTreeResponse(p.Tree()), nil
}

// ImportBoQLines appends a batch of lines in file order. The batch is applied
// all-or-nothing: the first failing row aborts the import and nothing is saved.
func (s *ProjectService) ImportBoQLines(ctx context.Context, tenantID, projectID uuid.UUID, rows []ImportBoQLine) (*ImportBoQLinesResponse, error) {
	if len(rows) == 0 {
		return nil, shared.NewValidationError("import contains no BoQ lines")
	}
	p, err := s.projectRepo.FindByID(ctx, tenantID, projectID)
	if err != nil {
		return nil, err
	}

	added := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		var parentID *uuid.UUID
		if row.ParentItemCode != "" {
			parent, ok := p.LineByCode(row.ParentItemCode)
			if !ok {
				return nil, shared.NewValidationError(fmt.Sprintf("row %d: parent item code %s not found", row.Row, row.ParentItemCode))
			}
			id := parent.ID
			parentID = &id
		}
		line, err := p.AddLine(parentID, project.LineSpec{
			ItemCode:          row.ItemCode,
			Description:       row.Description,
			Quantity:          row.Quantity,
			Unit:              row.Unit,
			UnitPrice:         row.UnitPrice,
			EstimatedUnitCost: row.EstimatedUnitCost,
			Category:          row.Category,
		})
		if err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				return nil, shared.NewDomainError(de.Code, fmt.Sprintf("row %d: %s", row.Row, de.Message))
			}
			return nil, err
		}
		added = append(added, line.ID)
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("BoQ lines imported",
		zap.String("project_id", p.ID.String()),
		zap.Int("rows", len(added)),
	)

	resp := &ImportBoQLinesResponse{
		ImportedRows: len(added),
		Lines:        make([]BoQLineResponse, 0, len(added)),
	}
	for _, id := range added {
		line, _ := p.Line(id)
		resp.Lines = append(resp.Lines, ToBoQLineResponse(*line))
	}
	return resp, nil
}
