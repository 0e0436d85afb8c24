package finance

import (
	"context"
	"errors"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
)

// LedgerService reads the finance documents raised by progress payment approval
type LedgerService struct {
	invoiceRepo    finance.SalesInvoiceRepository
	receivableRepo finance.AccountReceivableRepository
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(invoiceRepo finance.SalesInvoiceRepository, receivableRepo finance.AccountReceivableRepository) *LedgerService {
	return &LedgerService{invoiceRepo: invoiceRepo, receivableRepo: receivableRepo}
}

// GetPaymentLedger returns the invoice and retention receivable of a payment.
// Either side is omitted when it was never raised.
func (s *LedgerService) GetPaymentLedger(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentLedgerResponse, error) {
	resp := &PaymentLedgerResponse{}

	inv, err := s.invoiceRepo.FindBySource(ctx, tenantID, finance.SourceTypeProgressPayment, paymentID)
	switch {
	case err == nil:
		resp.Invoice = ToSalesInvoiceResponse(inv)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	ar, err := s.receivableRepo.FindBySource(ctx, tenantID, finance.SourceTypeProgressPayment, paymentID)
	switch {
	case err == nil:
		resp.Receivable = ToReceivableResponse(ar)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	return resp, nil
}
