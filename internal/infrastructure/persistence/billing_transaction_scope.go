package persistence

import (
	"context"

	appbilling "github.com/erp/progress-billing/internal/application/billing"
	appfinance "github.com/erp/progress-billing/internal/application/finance"
	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements the billing TransactionScope using GORM transactions.
// Repositories and finance gateways handed to fn share one database transaction.
type GormTransactionScope struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope.
// A nil outboxSaver disables event persistence.
func NewGormTransactionScope(db *gorm.DB, outboxSaver shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outboxSaver: outboxSaver}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appbilling.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, outboxSaver: s.outboxSaver})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx          *gorm.DB
	outboxSaver shared.OutboxEventSaver
}

// ProjectRepo returns the project repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProjectRepo() project.ProjectRepository {
	repo := NewGormProjectRepository(r.tx)
	repo.SetOutboxEventSaver(r.outboxSaver)
	return repo
}

// PaymentRepo returns the progress payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() billing.ProgressPaymentRepository {
	repo := NewGormProgressPaymentRepository(r.tx)
	repo.SetOutboxEventSaver(r.outboxSaver)
	return repo
}

// Invoices returns an invoice gateway writing through the current transaction.
func (r *gormTransactionalRepositories) Invoices() billing.InvoiceCreator {
	repo := NewGormSalesInvoiceRepository(r.tx)
	repo.SetOutboxEventSaver(r.outboxSaver)
	return appfinance.NewInvoiceGateway(repo)
}

// Receivables returns a receivable gateway writing through the current transaction.
func (r *gormTransactionalRepositories) Receivables() billing.ReceivableCreator {
	repo := NewGormAccountReceivableRepository(r.tx)
	repo.SetOutboxEventSaver(r.outboxSaver)
	return appfinance.NewReceivableGateway(repo)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appbilling.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appbilling.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
