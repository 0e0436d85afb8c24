package billing

import (
	"context"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
)

// RetentionMemo is the memo written on retention receivables
const RetentionMemo = "Retention Held"

// ApprovalWorkflow moves a draft payment to APPROVED and posts its downstream documents.
// The caller runs Approve inside one transaction so that a port failure leaves nothing behind.
type ApprovalWorkflow struct {
	invoices    InvoiceCreator
	receivables ReceivableCreator
}

// NewApprovalWorkflow creates an ApprovalWorkflow
func NewApprovalWorkflow(invoices InvoiceCreator, receivables ReceivableCreator) *ApprovalWorkflow {
	return &ApprovalWorkflow{invoices: invoices, receivables: receivables}
}

// Approve invokes the invoice port, the receivable port when retention was held, then marks
// the payment approved. The payment is not modified when any step fails.
func (w *ApprovalWorkflow) Approve(ctx context.Context, p *ProgressPayment, proj *project.Project, approvedBy uuid.UUID) error {
	if err := p.CanApprove(proj); err != nil {
		return err
	}
	customerID := *proj.CustomerID

	invoiceID, err := w.invoices.CreateInvoice(ctx, InvoiceRequest{
		TenantID:        p.TenantID,
		CounterpartyID:  customerID,
		Counterparty:    proj.CustomerName,
		Amount:          p.NetPayableAmount,
		Description:     p.InvoiceDescription(),
		Currency:        p.Currency,
		IssueDate:       p.Date,
		SourcePaymentID: p.ID,
	})
	if err != nil {
		return shared.NewDownstreamError("failed to create invoice", err)
	}

	var receivableID *uuid.UUID
	if p.RetentionAmount.IsPositive() {
		id, err := w.receivables.CreateReceivable(ctx, ReceivableRequest{
			TenantID:        p.TenantID,
			Reference:       p.RetentionReference(),
			CounterpartyID:  customerID,
			Counterparty:    proj.CustomerName,
			Amount:          p.RetentionAmount,
			Currency:        p.Currency,
			IssueDate:       p.Date,
			DueDate:         p.RetentionDueDate(),
			SourcePaymentID: p.ID,
			Memo:            RetentionMemo,
		})
		if err != nil {
			return shared.NewDownstreamError("failed to create retention receivable", err)
		}
		receivableID = &id
	}

	return p.markApproved(approvedBy, invoiceID, receivableID)
}
