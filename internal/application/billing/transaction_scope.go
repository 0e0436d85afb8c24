package billing

import (
	"context"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/project"
)

// TransactionScope provides transactional access to the repositories and ports a
// progress-payment unit of work touches. Everything done through the repositories
// passed to fn commits or rolls back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to repositories and downstream ports that
// share the current transaction.
type TransactionalRepositories interface {
	// ProjectRepo returns the project repository scoped to the current transaction
	ProjectRepo() project.ProjectRepository
	// PaymentRepo returns the progress payment repository scoped to the current transaction
	PaymentRepo() billing.ProgressPaymentRepository
	// Invoices returns the invoice port scoped to the current transaction
	Invoices() billing.InvoiceCreator
	// Receivables returns the receivable port scoped to the current transaction
	Receivables() billing.ReceivableCreator
}

// NoOpTransactionScope runs fn against fixed collaborators without a transaction.
// Useful for tests.
type NoOpTransactionScope struct {
	projectRepo project.ProjectRepository
	paymentRepo billing.ProgressPaymentRepository
	invoices    billing.InvoiceCreator
	receivables billing.ReceivableCreator
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(
	projectRepo project.ProjectRepository,
	paymentRepo billing.ProgressPaymentRepository,
	invoices billing.InvoiceCreator,
	receivables billing.ReceivableCreator,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		projectRepo: projectRepo,
		paymentRepo: paymentRepo,
		invoices:    invoices,
		receivables: receivables,
	}
}

// Execute runs fn without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) ProjectRepo() project.ProjectRepository        { return s.projectRepo }
func (s *NoOpTransactionScope) PaymentRepo() billing.ProgressPaymentRepository { return s.paymentRepo }
func (s *NoOpTransactionScope) Invoices() billing.InvoiceCreator               { return s.invoices }
func (s *NoOpTransactionScope) Receivables() billing.ReceivableCreator         { return s.receivables }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
