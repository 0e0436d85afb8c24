package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	billingapp "github.com/erp/progress-billing/internal/application/billing"
	financeapp "github.com/erp/progress-billing/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ArchiveURLHeader carries the archived copy of an exported certificate
const ArchiveURLHeader = "X-Archive-URL"

// ProgressPaymentService is the billing engine API used by ProgressPaymentHandler
type ProgressPaymentService interface {
	ListPayments(ctx context.Context, tenantID, projectID uuid.UUID) ([]billingapp.PaymentSummary, error)
	GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*billingapp.PaymentDetail, error)
	CreatePayment(ctx context.Context, tenantID, userID uuid.UUID, req billingapp.CreatePaymentRequest) (*billingapp.PaymentDetail, error)
	UpdateDetailQuantity(ctx context.Context, tenantID, paymentID, detailID uuid.UUID, cumulative decimal.Decimal) error
	UpdateDeductions(ctx context.Context, tenantID, paymentID uuid.UUID, req billingapp.UpdateDeductionsRequest) (*billingapp.PaymentDetail, error)
	Approve(ctx context.Context, tenantID, userID, paymentID uuid.UUID) (*billingapp.PaymentDetail, error)
	ExportPayment(ctx context.Context, tenantID, paymentID uuid.UUID, format billingapp.ExportFormat) (*billingapp.ExportedDocument, error)
}

// PaymentLedgerService reads the finance documents raised on approval
type PaymentLedgerService interface {
	GetPaymentLedger(ctx context.Context, tenantID, paymentID uuid.UUID) (*financeapp.PaymentLedgerResponse, error)
}

// ProgressPaymentHandler handles progress payment endpoints
type ProgressPaymentHandler struct {
	BaseHandler
	paymentService ProgressPaymentService
	ledgerService  PaymentLedgerService
}

// NewProgressPaymentHandler creates a new ProgressPaymentHandler
func NewProgressPaymentHandler(paymentService ProgressPaymentService, ledgerService PaymentLedgerService) *ProgressPaymentHandler {
	return &ProgressPaymentHandler{
		paymentService: paymentService,
		ledgerService:  ledgerService,
	}
}

// CreatePaymentRequest represents a request to create a progress payment
// @Description Request body for creating the next progress payment of a project
type CreatePaymentRequest struct {
	Date                   time.Time       `json:"date" binding:"required" example:"2026-03-31T00:00:00Z"`
	PeriodStart            time.Time       `json:"period_start" binding:"required" example:"2026-03-01T00:00:00Z"`
	PeriodEnd              time.Time       `json:"period_end" binding:"required,gtefield=PeriodStart" example:"2026-03-31T00:00:00Z"`
	MaterialOnSiteAmount   decimal.Decimal `json:"material_on_site_amount" binding:"decimal_gte0" swaggertype:"string" example:"0"`
	AdvanceDeductionAmount decimal.Decimal `json:"advance_deduction_amount" binding:"decimal_gte0" swaggertype:"string" example:"0"`
	IsExpense              bool            `json:"is_expense" example:"false"`
}

// UpdateDetailQuantityRequest sets the cumulative quantity of one payment line
// @Description Request body for updating a payment line quantity
type UpdateDetailQuantityRequest struct {
	CurrentCumulativeQuantity decimal.Decimal `json:"current_cumulative_quantity" binding:"decimal_gte0" swaggertype:"string" example:"120.5"`
}

// UpdateDeductionsRequest replaces deduction inputs of a draft payment
// @Description Request body for updating payment deductions; omitted fields are kept
type UpdateDeductionsRequest struct {
	MaterialOnSiteAmount   *decimal.Decimal `json:"material_on_site_amount" binding:"omitempty,decimal_gte0" swaggertype:"string"`
	AdvanceDeductionAmount *decimal.Decimal `json:"advance_deduction_amount" binding:"omitempty,decimal_gte0" swaggertype:"string"`
	SecurityDepositAmount  *decimal.Decimal `json:"security_deposit_amount" binding:"omitempty,decimal_gte0" swaggertype:"string"`
	AdvanceRepaymentAmount *decimal.Decimal `json:"advance_repayment_amount" binding:"omitempty,decimal_gte0" swaggertype:"string"`
}

// List godoc
// @ID           listProgressPayments
// @Summary      List the progress payments of a project
// @Tags         progress-payments
// @Produce      json
// @Param        id  path     string true "Project ID" format(uuid)
// @Success      200 {object} SuccessEnvelope[[]billingapp.PaymentSummary]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/progress-payments [get]
func (h *ProgressPaymentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), tenantID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Create godoc
// @ID           createProgressPayment
// @Summary      Create the next progress payment of a project
// @Description  Numbers the payment, copies the BoQ and carries previous cumulative quantities forward.
// @Tags         progress-payments
// @Accept       json
// @Produce      json
// @Param        id      path     string               true "Project ID" format(uuid)
// @Param        request body     CreatePaymentRequest true "Payment"
// @Success      201     {object} SuccessEnvelope[billingapp.PaymentDetail]
// @Failure      400     {object} ErrorResponse
// @Failure      404     {object} ErrorResponse
// @Failure      409     {object} ErrorResponse
// @Failure      502     {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/progress-payments [post]
func (h *ProgressPaymentHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	projectID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), tenantID, userID, billingapp.CreatePaymentRequest{
		ProjectID:              projectID,
		Date:                   req.Date,
		PeriodStart:            req.PeriodStart,
		PeriodEnd:              req.PeriodEnd,
		MaterialOnSiteAmount:   req.MaterialOnSiteAmount,
		AdvanceDeductionAmount: req.AdvanceDeductionAmount,
		IsExpense:              req.IsExpense,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Get godoc
// @ID           getProgressPayment
// @Summary      Get a progress payment with its lines
// @Tags         progress-payments
// @Produce      json
// @Param        id  path     string true "Payment ID" format(uuid)
// @Success      200 {object} SuccessEnvelope[billingapp.PaymentDetail]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /progress-payments/{id} [get]
func (h *ProgressPaymentHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	paymentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// UpdateDetailQuantity godoc
// @ID           updateProgressPaymentDetail
// @Summary      Set the cumulative quantity of a payment line
// @Tags         progress-payments
// @Accept       json
// @Produce      json
// @Param        id       path     string                      true "Payment ID" format(uuid)
// @Param        detailId path     string                      true "Detail ID" format(uuid)
// @Param        request  body     UpdateDetailQuantityRequest true "Quantity"
// @Success      200      {object} SuccessEnvelope[billingapp.PaymentDetail]
// @Failure      400      {object} ErrorResponse
// @Failure      404      {object} ErrorResponse
// @Failure      422      {object} ErrorResponse
// @Security     BearerAuth
// @Router       /progress-payments/{id}/details/{detailId} [put]
func (h *ProgressPaymentHandler) UpdateDetailQuantity(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.userID(c); !ok {
		return
	}
	paymentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	detailID, ok := h.pathUUID(c, "detailId")
	if !ok {
		return
	}
	var req UpdateDetailQuantityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.paymentService.UpdateDetailQuantity(ctx, tenantID, paymentID, detailID, req.CurrentCumulativeQuantity); err != nil {
		h.HandleError(c, err)
		return
	}
	payment, err := h.paymentService.GetPayment(ctx, tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// UpdateDeductions godoc
// @ID           updateProgressPaymentDeductions
// @Summary      Update the deductions of a draft payment
// @Tags         progress-payments
// @Accept       json
// @Produce      json
// @Param        id      path     string                  true "Payment ID" format(uuid)
// @Param        request body     UpdateDeductionsRequest true "Deductions"
// @Success      200     {object} SuccessEnvelope[billingapp.PaymentDetail]
// @Failure      400     {object} ErrorResponse
// @Failure      404     {object} ErrorResponse
// @Failure      422     {object} ErrorResponse
// @Security     BearerAuth
// @Router       /progress-payments/{id}/deductions [put]
func (h *ProgressPaymentHandler) UpdateDeductions(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.userID(c); !ok {
		return
	}
	paymentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req UpdateDeductionsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	payment, err := h.paymentService.UpdateDeductions(c.Request.Context(), tenantID, paymentID, billingapp.UpdateDeductionsRequest{
		MaterialOnSiteAmount:   req.MaterialOnSiteAmount,
		AdvanceDeductionAmount: req.AdvanceDeductionAmount,
		SecurityDepositAmount:  req.SecurityDepositAmount,
		AdvanceRepaymentAmount: req.AdvanceRepaymentAmount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Approve godoc
// @ID           approveProgressPayment
// @Summary      Approve a progress payment
// @Description  Raises the sales invoice and the retention receivable in one transaction.
// @Tags         progress-payments
// @Produce      json
// @Param        id  path     string true "Payment ID" format(uuid)
// @Success      200 {object} SuccessEnvelope[billingapp.PaymentDetail]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /progress-payments/{id}/approve [post]
func (h *ProgressPaymentHandler) Approve(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	paymentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.Approve(c.Request.Context(), tenantID, userID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Export godoc
// @ID           exportProgressPayment
// @Summary      Download the payment certificate
// @Tags         progress-payments
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce      application/pdf
// @Param        id     path   string true  "Payment ID" format(uuid)
// @Param        format query  string false "xlsx (default) or pdf"
// @Success      200    {file} file
// @Failure      400    {object} ErrorResponse
// @Failure      404    {object} ErrorResponse
// @Security     BearerAuth
// @Router       /progress-payments/{id}/export [get]
func (h *ProgressPaymentHandler) Export(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	paymentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	format, err := billingapp.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	doc, err := h.paymentService.ExportPayment(c.Request.Context(), tenantID, paymentID, format)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if doc.ArchiveURL != "" {
		c.Header(ArchiveURLHeader, doc.ArchiveURL)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// Ledger godoc
// @ID           getProgressPaymentLedger
// @Summary      Get the invoice and retention receivable raised for a payment
// @Tags         progress-payments
// @Produce      json
// @Param        id  path     string true "Payment ID" format(uuid)
// @Success      200 {object} SuccessEnvelope[financeapp.PaymentLedgerResponse]
// @Security     BearerAuth
// @Router       /progress-payments/{id}/ledger [get]
func (h *ProgressPaymentHandler) Ledger(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	paymentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	ledger, err := h.ledgerService.GetPaymentLedger(c.Request.Context(), tenantID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, ledger)
}
