package billing

import (
	"context"
	"fmt"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/shared"
	"go.uber.org/zap"
)

// ApprovalNotificationHandler reports approved progress payments delivered by the outbox relay
type ApprovalNotificationHandler struct {
	logger *zap.Logger
}

// NewApprovalNotificationHandler creates a new ApprovalNotificationHandler
func NewApprovalNotificationHandler(logger *zap.Logger) *ApprovalNotificationHandler {
	return &ApprovalNotificationHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ApprovalNotificationHandler) EventTypes() []string {
	return []string{billing.EventTypeProgressPaymentApproved}
}

// Handle logs the approval with its downstream document ids
func (h *ApprovalNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	approved, ok := event.(*billing.ProgressPaymentApprovedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			billing.EventTypeProgressPaymentApproved, event.EventType())
	}

	fields := []zap.Field{
		zap.String("tenant_id", approved.TenantID().String()),
		zap.String("payment_id", approved.PaymentID.String()),
		zap.String("project_code", approved.ProjectCode),
		zap.Int("payment_no", approved.PaymentNo),
		zap.String("currency", approved.Currency),
		zap.String("net_payable", approved.NetPayableAmount.String()),
		zap.String("invoice_id", approved.InvoiceID.String()),
	}
	if approved.RetentionReceivableID != nil {
		fields = append(fields,
			zap.String("retention", approved.RetentionAmount.String()),
			zap.String("retention_receivable_id", approved.RetentionReceivableID.String()),
		)
	}
	h.logger.Info("progress payment approval delivered", fields...)
	return nil
}

var _ shared.EventHandler = (*ApprovalNotificationHandler)(nil)
