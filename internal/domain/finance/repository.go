package finance

import (
	"context"
	"time"

	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// SalesInvoiceRepository defines persistence for sales invoices
type SalesInvoiceRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*SalesInvoice, error)
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID) (*SalesInvoice, error)
	Save(ctx context.Context, invoice *SalesInvoice) error
	// GenerateInvoiceNumber returns the next INV-YYYYMMDD-NNNNN number for the day
	GenerateInvoiceNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error)
}

// AccountReceivableRepository defines persistence for account receivables
type AccountReceivableRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*AccountReceivable, error)
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType SourceType, sourceID uuid.UUID) (*AccountReceivable, error)
	Save(ctx context.Context, receivable *AccountReceivable) error
	// GenerateReceivableNumber returns the next AR-YYYYMMDD-NNNNN number for the day
	GenerateReceivableNumber(ctx context.Context, tenantID uuid.UUID, day time.Time) (string, error)
}

// ExchangeRateRepository defines persistence for exchange rates
type ExchangeRateRepository interface {
	Save(ctx context.Context, rate *ExchangeRate) error
	// FindEffective returns the latest rate whose effective date is on or before asOf
	FindEffective(ctx context.Context, tenantID uuid.UUID, from, to valueobject.Currency, asOf time.Time) (*ExchangeRate, error)
}
