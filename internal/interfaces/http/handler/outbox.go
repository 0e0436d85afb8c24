package handler

import (
	"context"

	eventapp "github.com/erp/progress-billing/internal/application/event"
	"github.com/erp/progress-billing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OutboxService inspects and replays the tenant's outbox
type OutboxService interface {
	GetStats(ctx context.Context, tenantID uuid.UUID) (*eventapp.OutboxStatsDTO, error)
	ListDeadEntries(ctx context.Context, tenantID uuid.UUID, filter eventapp.OutboxFilter) (*eventapp.OutboxListResult, error)
	RetryDeadEntry(ctx context.Context, tenantID, id uuid.UUID) (*eventapp.OutboxEntryDTO, error)
}

// OutboxHandler handles outbox administration endpoints
type OutboxHandler struct {
	BaseHandler
	outboxService OutboxService
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(outboxService OutboxService) *OutboxHandler {
	return &OutboxHandler{outboxService: outboxService}
}

// Stats godoc
// @ID           getOutboxStats
// @Summary      Outbox delivery statistics
// @Tags         system
// @Produce      json
// @Success      200 {object} SuccessEnvelope[eventapp.OutboxStatsDTO]
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/stats [get]
func (h *OutboxHandler) Stats(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	stats, err := h.outboxService.GetStats(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListDead godoc
// @ID           listDeadOutboxEntries
// @Summary      List dead-lettered events
// @Description  Events whose delivery failed after all retries, newest first.
// @Tags         system
// @Produce      json
// @Param        page      query    int false "Page number" minimum(1)
// @Param        page_size query    int false "Page size" minimum(1) maximum(100)
// @Success      200       {object} SuccessEnvelope[eventapp.OutboxListResult]
// @Failure      400       {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/dead [get]
func (h *OutboxHandler) ListDead(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	var filter eventapp.OutboxFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.outboxService.ListDeadEntries(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RetryDead godoc
// @ID           retryDeadOutboxEntry
// @Summary      Replay a dead-lettered event
// @Description  Moves the entry back to PENDING with a fresh retry budget.
// @Tags         system
// @Produce      json
// @Param        id  path     string true "Outbox entry ID" format(uuid)
// @Success      200 {object} SuccessEnvelope[eventapp.OutboxEntryDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /system/outbox/dead/{id}/retry [post]
func (h *OutboxHandler) RetryDead(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	if _, ok := h.userID(c); !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	entry, err := h.outboxService.RetryDeadEntry(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}
