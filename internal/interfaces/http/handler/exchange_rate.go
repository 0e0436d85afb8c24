package handler

import (
	"context"
	"time"

	financeapp "github.com/erp/progress-billing/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRateService records conversion rates
type ExchangeRateService interface {
	RecordExchangeRate(ctx context.Context, tenantID uuid.UUID, req financeapp.RecordExchangeRateRequest) (*financeapp.ExchangeRateResponse, error)
}

// ExchangeRateHandler handles exchange rate endpoints
type ExchangeRateHandler struct {
	BaseHandler
	rateService ExchangeRateService
}

// NewExchangeRateHandler creates a new ExchangeRateHandler
func NewExchangeRateHandler(rateService ExchangeRateService) *ExchangeRateHandler {
	return &ExchangeRateHandler{rateService: rateService}
}

// RecordExchangeRateRequest represents a request to record a rate
// @Description Request body for recording an exchange rate
type RecordExchangeRateRequest struct {
	FromCurrency  string          `json:"from_currency" binding:"required,len=3" example:"EUR"`
	ToCurrency    string          `json:"to_currency" binding:"required,len=3" example:"TRY"`
	Rate          decimal.Decimal `json:"rate" binding:"decimal_gte0" swaggertype:"string" example:"35.4210"`
	EffectiveDate time.Time       `json:"effective_date" binding:"required" example:"2026-03-01T00:00:00Z"`
}

// Record godoc
// @ID           recordExchangeRate
// @Summary      Record an exchange rate
// @Description  A rate recorded for a day that already has one replaces it.
// @Tags         exchange-rates
// @Accept       json
// @Produce      json
// @Param        request body     RecordExchangeRateRequest true "Rate"
// @Success      201     {object} SuccessEnvelope[financeapp.ExchangeRateResponse]
// @Failure      400     {object} ErrorResponse
// @Security     BearerAuth
// @Router       /exchange-rates [post]
func (h *ExchangeRateHandler) Record(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.userID(c); !ok {
		return
	}
	var req RecordExchangeRateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rate, err := h.rateService.RecordExchangeRate(c.Request.Context(), tenantID, financeapp.RecordExchangeRateRequest{
		FromCurrency:  req.FromCurrency,
		ToCurrency:    req.ToCurrency,
		Rate:          req.Rate,
		EffectiveDate: req.EffectiveDate,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rate)
}
