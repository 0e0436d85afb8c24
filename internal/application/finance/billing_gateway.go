package finance

import (
	"context"
	"fmt"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// InvoiceGateway issues sales invoices on behalf of progress payment approval.
// It must be built on repositories bound to the approval's transaction.
type InvoiceGateway struct {
	invoiceRepo finance.SalesInvoiceRepository
}

// NewInvoiceGateway creates a new InvoiceGateway
func NewInvoiceGateway(invoiceRepo finance.SalesInvoiceRepository) *InvoiceGateway {
	return &InvoiceGateway{invoiceRepo: invoiceRepo}
}

// CreateInvoice numbers, validates and stores an invoice sourced from a progress payment
func (g *InvoiceGateway) CreateInvoice(ctx context.Context, req billing.InvoiceRequest) (uuid.UUID, error) {
	amount, err := valueobject.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return uuid.Nil, err
	}
	number, err := g.invoiceRepo.GenerateInvoiceNumber(ctx, req.TenantID, req.IssueDate)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate invoice number: %w", err)
	}

	inv, err := finance.NewSalesInvoice(
		req.TenantID,
		number,
		req.CounterpartyID,
		req.Counterparty,
		amount,
		req.Description,
		req.IssueDate,
		finance.SourceTypeProgressPayment,
		req.SourcePaymentID,
	)
	if err != nil {
		return uuid.Nil, err
	}
	if err := g.invoiceRepo.Save(ctx, inv); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save invoice: %w", err)
	}
	return inv.ID, nil
}

// ReceivableGateway records receivables on behalf of progress payment approval.
// It must be built on repositories bound to the approval's transaction.
type ReceivableGateway struct {
	receivableRepo finance.AccountReceivableRepository
}

// NewReceivableGateway creates a new ReceivableGateway
func NewReceivableGateway(receivableRepo finance.AccountReceivableRepository) *ReceivableGateway {
	return &ReceivableGateway{receivableRepo: receivableRepo}
}

// CreateReceivable numbers, validates and stores a receivable sourced from a progress payment
func (g *ReceivableGateway) CreateReceivable(ctx context.Context, req billing.ReceivableRequest) (uuid.UUID, error) {
	amount, err := valueobject.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return uuid.Nil, err
	}
	number, err := g.receivableRepo.GenerateReceivableNumber(ctx, req.TenantID, req.IssueDate)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate receivable number: %w", err)
	}

	ar, err := finance.NewAccountReceivable(req.TenantID, finance.ReceivableDraft{
		ReceivableNumber: number,
		Reference:        req.Reference,
		CustomerID:       req.CounterpartyID,
		CustomerName:     req.Counterparty,
		SourceType:       finance.SourceTypeProgressPayment,
		SourceID:         req.SourcePaymentID,
		Amount:           amount,
		IssueDate:        req.IssueDate,
		DueDate:          req.DueDate,
		Memo:             req.Memo,
	})
	if err != nil {
		return uuid.Nil, err
	}
	if err := g.receivableRepo.Save(ctx, ar); err != nil {
		return uuid.Nil, fmt.Errorf("failed to save receivable: %w", err)
	}
	return ar.ID, nil
}

var (
	_ billing.InvoiceCreator    = (*InvoiceGateway)(nil)
	_ billing.ReceivableCreator = (*ReceivableGateway)(nil)
)
