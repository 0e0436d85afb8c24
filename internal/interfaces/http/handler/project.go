package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	projectapp "github.com/erp/progress-billing/internal/application/project"
	"github.com/erp/progress-billing/internal/infrastructure/boqimport"
	"github.com/erp/progress-billing/internal/interfaces/http/dto"
	"github.com/erp/progress-billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectService is the project administration API used by ProjectHandler
type ProjectService interface {
	CreateProject(ctx context.Context, tenantID, userID uuid.UUID, req projectapp.CreateProjectRequest) (*projectapp.ProjectResponse, error)
	GetProject(ctx context.Context, tenantID, projectID uuid.UUID) (*projectapp.ProjectResponse, error)
	AssignCustomer(ctx context.Context, tenantID, projectID uuid.UUID, req projectapp.AssignCustomerRequest) (*projectapp.ProjectResponse, error)
	AddBoQLine(ctx context.Context, tenantID, projectID uuid.UUID, req projectapp.AddBoQLineRequest) (*projectapp.BoQLineResponse, error)
	ListBoQLines(ctx context.Context, tenantID, projectID uuid.UUID) ([]projectapp.BoQLineResponse, error)
	ImportBoQLines(ctx context.Context, tenantID, projectID uuid.UUID, rows []projectapp.ImportBoQLine) (*projectapp.ImportBoQLinesResponse, error)
}

// ProjectHandler handles project and BoQ endpoints
type ProjectHandler struct {
	BaseHandler
	projectService ProjectService
	parser         *boqimport.Parser
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		parser:         boqimport.NewParser(),
	}
}

// CreateProjectRequest represents a request to register a project
// @Description Request body for registering a construction project
type CreateProjectRequest struct {
	Code                string          `json:"code" binding:"required,max=50" example:"PRJ-2026-01"`
	Name                string          `json:"name" binding:"required,max=200" example:"Ankara Metro Station B"`
	CustomerID          *uuid.UUID      `json:"customer_id"`
	CustomerName        string          `json:"customer_name" binding:"max=200" example:"Metro Authority"`
	Currency            string          `json:"currency" binding:"omitempty,len=3" example:"TRY"`
	ContractAmount      decimal.Decimal `json:"contract_amount" binding:"decimal_gte0" swaggertype:"string" example:"1250000.00"`
	RetentionRate       decimal.Decimal `json:"retention_rate" binding:"rate" swaggertype:"string" example:"0.05"`
	WithholdingTaxRate  decimal.Decimal `json:"withholding_tax_rate" binding:"rate" swaggertype:"string" example:"0.03"`
	SecurityDepositRate decimal.Decimal `json:"security_deposit_rate" binding:"rate" swaggertype:"string" example:"0.06"`
}

// AssignCustomerRequest represents a request to set the billed counterparty
// @Description Request body for assigning a project customer
type AssignCustomerRequest struct {
	CustomerID   uuid.UUID `json:"customer_id" binding:"required"`
	CustomerName string    `json:"customer_name" binding:"required,max=200" example:"Metro Authority"`
}

// AddBoQLineRequest represents a request to add a BoQ line
// @Description Request body for adding a bill of quantities line
type AddBoQLineRequest struct {
	ParentID          *uuid.UUID      `json:"parent_id"`
	ItemCode          string          `json:"item_code" binding:"required,max=50" example:"15.150.1003"`
	Description       string          `json:"description" binding:"required,max=500" example:"C30 ready-mixed concrete"`
	Quantity          decimal.Decimal `json:"quantity" binding:"decimal_gte0" swaggertype:"string" example:"420"`
	Unit              string          `json:"unit" binding:"required,max=20" example:"m3"`
	UnitPrice         decimal.Decimal `json:"unit_price" binding:"decimal_gte0" swaggertype:"string" example:"2150.00"`
	EstimatedUnitCost decimal.Decimal `json:"estimated_unit_cost" binding:"decimal_gte0" swaggertype:"string" example:"1800.00"`
	Category          string          `json:"category" binding:"max=50" example:"structural"`
}

// Create godoc
// @ID           createProject
// @Summary      Register a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body     CreateProjectRequest true "Project"
// @Success      201     {object} SuccessEnvelope[projectapp.ProjectResponse]
// @Failure      400     {object} ErrorResponse
// @Failure      409     {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.projectService.CreateProject(c.Request.Context(), tenantID, userID, projectapp.CreateProjectRequest{
		Code:                req.Code,
		Name:                req.Name,
		CustomerID:          req.CustomerID,
		CustomerName:        req.CustomerName,
		Currency:            req.Currency,
		ContractAmount:      req.ContractAmount,
		RetentionRate:       req.RetentionRate,
		WithholdingTaxRate:  req.WithholdingTaxRate,
		SecurityDepositRate: req.SecurityDepositRate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get godoc
// @ID           getProject
// @Summary      Get a project with its BoQ lines
// @Tags         projects
// @Produce      json
// @Param        id  path     string true "Project ID" format(uuid)
// @Success      200 {object} SuccessEnvelope[projectapp.ProjectResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	resp, err := h.projectService.GetProject(c.Request.Context(), tenantID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AssignCustomer godoc
// @ID           assignProjectCustomer
// @Summary      Assign the billed customer of a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id      path     string                true "Project ID" format(uuid)
// @Param        request body     AssignCustomerRequest true "Customer"
// @Success      200     {object} SuccessEnvelope[projectapp.ProjectResponse]
// @Failure      400     {object} ErrorResponse
// @Failure      404     {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/customer [put]
func (h *ProjectHandler) AssignCustomer(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.userID(c); !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AssignCustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.projectService.AssignCustomer(c.Request.Context(), tenantID, projectID, projectapp.AssignCustomerRequest{
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddBoQLine godoc
// @ID           addBoQLine
// @Summary      Add a BoQ line to a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        id      path     string            true "Project ID" format(uuid)
// @Param        request body     AddBoQLineRequest true "BoQ line"
// @Success      201     {object} SuccessEnvelope[projectapp.BoQLineResponse]
// @Failure      400     {object} ErrorResponse
// @Failure      404     {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/boq-lines [post]
func (h *ProjectHandler) AddBoQLine(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.userID(c); !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req AddBoQLineRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.projectService.AddBoQLine(c.Request.Context(), tenantID, projectID, projectapp.AddBoQLineRequest{
		ParentID:          req.ParentID,
		ItemCode:          req.ItemCode,
		Description:       req.Description,
		Quantity:          req.Quantity,
		Unit:              req.Unit,
		UnitPrice:         req.UnitPrice,
		EstimatedUnitCost: req.EstimatedUnitCost,
		Category:          req.Category,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListBoQLines godoc
// @ID           listBoQLines
// @Summary      List the BoQ of a project as a tree
// @Tags         projects
// @Produce      json
// @Param        id  path     string true "Project ID" format(uuid)
// @Success      200 {object} SuccessEnvelope[[]projectapp.BoQLineResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/boq-lines [get]
func (h *ProjectHandler) ListBoQLines(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	lines, err := h.projectService.ListBoQLines(c.Request.Context(), tenantID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// ImportBoQLines godoc
// @ID           importBoQLines
// @Summary      Import BoQ lines from a CSV or xlsx sheet
// @Description  All rows are validated first; nothing is imported when any row fails.
// @Tags         projects
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path     string true  "Project ID" format(uuid)
// @Param        file   formData file   true  "BoQ sheet"
// @Param        format query    string false "csv or xlsx; defaults to the file extension"
// @Success      201    {object} SuccessEnvelope[projectapp.ImportBoQLinesResponse]
// @Failure      400    {object} ErrorResponse
// @Failure      404    {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/boq-lines/import [post]
func (h *ProjectHandler) ImportBoQLines(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.userID(c); !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ErrorWithCode(c, dto.ErrCodePayloadTooLarge, "Uploaded file is too large")
			return
		}
		h.BadRequest(c, "A file field is required")
		return
	}
	format, err := boqimport.DetectFormat(c.Query("format"), fileHeader.Filename)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeUnsupportedMedia, "Only csv and xlsx files are supported")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	result, err := h.parser.Parse(file, format)
	if err != nil {
		h.BadRequest(c, importErrorMessage(err))
		return
	}
	if result.Errors.HasErrors() {
		h.rowErrors(c, result.Errors)
		return
	}

	rows := make([]projectapp.ImportBoQLine, len(result.Lines))
	for i, l := range result.Lines {
		rows[i] = projectapp.ImportBoQLine{
			Row:               l.Row,
			ParentItemCode:    l.ParentItemCode,
			ItemCode:          l.ItemCode,
			Description:       l.Description,
			Quantity:          l.Quantity,
			Unit:              l.Unit,
			UnitPrice:         l.UnitPrice,
			EstimatedUnitCost: l.EstimatedUnitCost,
			Category:          l.Category,
		}
	}

	resp, err := h.projectService.ImportBoQLines(c.Request.Context(), tenantID, projectID, rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

func (h *ProjectHandler) rowErrors(c *gin.Context, errs *boqimport.ErrorCollection) {
	details := make([]dto.ValidationDetail, 0, len(errs.Errors()))
	for _, e := range errs.Errors() {
		details = append(details, dto.ValidationDetail{
			Field:   fmt.Sprintf("row %d: %s", e.Row, e.Column),
			Message: e.Message,
		})
	}
	resp := dto.NewErrorResponse(dto.ErrCodeImportRows,
		fmt.Sprintf("%d rows failed validation", errs.ErrorRows()), middleware.GetRequestID(c))
	resp.Error.Details = details
	c.JSON(dto.GetHTTPStatus(dto.ErrCodeImportRows), resp)
}

func importErrorMessage(err error) string {
	switch {
	case errors.Is(err, boqimport.ErrEmptyFile), errors.Is(err, boqimport.ErrNoDataRows):
		return "The sheet contains no BoQ rows"
	case errors.Is(err, boqimport.ErrInvalidEncoding):
		return "CSV files must be UTF-8 encoded"
	case errors.Is(err, boqimport.ErrMissingHeader):
		return err.Error()
	}
	return "Unable to parse the sheet"
}
