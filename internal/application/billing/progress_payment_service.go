package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Defaults for ServiceConfig
const (
	DefaultNumberRetryAttempts = 3
	DefaultRateLookupTimeout   = 3 * time.Second
)

// ServiceConfig holds tunables of the progress payment service
type ServiceConfig struct {
	BaseCurrency        valueobject.Currency
	NumberRetryAttempts int
	RateLookupTimeout   time.Duration
	CompanyName         string
}

// ProgressPaymentService handles progress payment operations
type ProgressPaymentService struct {
	projectRepo project.ProjectRepository
	paymentRepo billing.ProgressPaymentRepository
	txScope     TransactionScope
	rates       billing.CurrencyRateProvider
	renderer    CertificateRenderer
	archive     CertificateArchive
	metrics     Metrics
	cfg         ServiceConfig
	logger      *zap.Logger
}

// NewProgressPaymentService creates a new ProgressPaymentService
func NewProgressPaymentService(
	projectRepo project.ProjectRepository,
	paymentRepo billing.ProgressPaymentRepository,
	txScope TransactionScope,
	rates billing.CurrencyRateProvider,
	cfg ServiceConfig,
	logger *zap.Logger,
) *ProgressPaymentService {
	if cfg.NumberRetryAttempts <= 0 {
		cfg.NumberRetryAttempts = DefaultNumberRetryAttempts
	}
	if cfg.RateLookupTimeout <= 0 {
		cfg.RateLookupTimeout = DefaultRateLookupTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressPaymentService{
		projectRepo: projectRepo,
		paymentRepo: paymentRepo,
		txScope:     txScope,
		rates:       rates,
		metrics:     noopMetrics{},
		cfg:         cfg,
		logger:      logger,
	}
}

// SetMetrics sets the billing metrics recorder
func (s *ProgressPaymentService) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// SetRenderer sets the certificate renderer used by ExportPayment
func (s *ProgressPaymentService) SetRenderer(r CertificateRenderer) {
	s.renderer = r
}

// SetArchive sets the store approved certificates are copied to on export
func (s *ProgressPaymentService) SetArchive(a CertificateArchive) {
	s.archive = a
}

// ListPayments lists a project's payments ordered by payment number
func (s *ProgressPaymentService) ListPayments(ctx context.Context, tenantID, projectID uuid.UUID) ([]PaymentSummary, error) {
	if _, err := s.projectRepo.FindByID(ctx, tenantID, projectID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindByProject(ctx, tenantID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress payments: %w", err)
	}
	result := make([]PaymentSummary, len(payments))
	for i := range payments {
		result[i] = ToPaymentSummary(&payments[i])
	}
	return result, nil
}

// GetPayment retrieves a payment with its detail rows
func (s *ProgressPaymentService) GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*PaymentDetail, error) {
	payment, err := s.paymentRepo.FindByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	detail := ToPaymentDetail(payment)
	return &detail, nil
}

// CreatePayment creates the next draft payment of a project.
// The exchange rate is resolved before the transaction; a lookup failure rejects the request.
// Number assignment runs under a project row lock and is retried on a unique-key conflict.
func (s *ProgressPaymentService) CreatePayment(ctx context.Context, tenantID, userID uuid.UUID, req CreatePaymentRequest) (*PaymentDetail, error) {
	proj, err := s.projectRepo.FindByID(ctx, tenantID, req.ProjectID)
	if err != nil {
		return nil, err
	}

	rate, err := s.lookupRate(ctx, tenantID, proj.Currency, req.Date)
	if err != nil {
		return nil, err
	}

	params := billing.NewPaymentParams{
		Date:                   req.Date,
		PeriodStart:            req.PeriodStart,
		PeriodEnd:              req.PeriodEnd,
		MaterialOnSiteAmount:   req.MaterialOnSiteAmount,
		AdvanceDeductionAmount: req.AdvanceDeductionAmount,
		IsExpense:              req.IsExpense,
		BaseCurrency:           s.baseCurrency(proj),
		ExchangeRate:           rate,
	}

	var created *billing.ProgressPayment
	for attempt := 1; ; attempt++ {
		err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			locked, err := repos.ProjectRepo().FindByIDForUpdate(ctx, tenantID, req.ProjectID)
			if err != nil {
				return err
			}
			maxNo, err := repos.PaymentRepo().MaxPaymentNo(ctx, tenantID, locked.ID)
			if err != nil {
				return fmt.Errorf("failed to read last payment number: %w", err)
			}
			baseline, err := repos.PaymentRepo().FindLastApproved(ctx, tenantID, locked.ID)
			if err != nil {
				return fmt.Errorf("failed to load baseline payment: %w", err)
			}

			payment, err := billing.NewProgressPayment(locked, billing.NextSequence(maxNo, baseline), params)
			if err != nil {
				return err
			}
			payment.SetCreatedBy(userID)
			if err := repos.PaymentRepo().Create(ctx, payment); err != nil {
				return err
			}
			created = payment
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, err
		}
		s.metrics.RecordNumberConflict(ctx, tenantID)
		s.logger.Warn("payment number conflict, retrying",
			zap.String("project_id", req.ProjectID.String()),
			zap.Int("attempt", attempt),
		)
		if attempt >= s.cfg.NumberRetryAttempts {
			return nil, shared.NewDomainError(shared.CodeConcurrencyConflict,
				fmt.Sprintf("could not assign a payment number after %d attempts", attempt))
		}
	}

	s.metrics.RecordPaymentCreated(ctx, tenantID)
	s.logger.Info("progress payment created",
		zap.String("payment_id", created.ID.String()),
		zap.String("project_id", created.ProjectID.String()),
		zap.Int("payment_no", created.PaymentNo),
		zap.String("exchange_rate", created.ExchangeRate.String()),
	)

	detail := ToPaymentDetail(created)
	return &detail, nil
}

// UpdateDetailQuantity sets the cumulative quantity of one detail row of a draft payment
func (s *ProgressPaymentService) UpdateDetailQuantity(ctx context.Context, tenantID, paymentID, detailID uuid.UUID, cumulative decimal.Decimal) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if err := payment.UpdateDetailQuantity(detailID, cumulative); err != nil {
			return err
		}
		return repos.PaymentRepo().SaveWithLock(ctx, payment)
	})
}

// UpdateDeductions replaces deduction inputs of a draft payment
func (s *ProgressPaymentService) UpdateDeductions(ctx context.Context, tenantID, paymentID uuid.UUID, req UpdateDeductionsRequest) (*PaymentDetail, error) {
	var updated *billing.ProgressPayment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		if err := payment.UpdateDeductions(billing.DeductionChanges{
			MaterialOnSiteAmount:   req.MaterialOnSiteAmount,
			AdvanceDeductionAmount: req.AdvanceDeductionAmount,
			SecurityDepositAmount:  req.SecurityDepositAmount,
			AdvanceRepaymentAmount: req.AdvanceRepaymentAmount,
		}); err != nil {
			return err
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}
		updated = payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	detail := ToPaymentDetail(updated)
	return &detail, nil
}

// Approve approves a draft payment, creating its invoice and retention receivable in the
// same transaction as the status change.
func (s *ProgressPaymentService) Approve(ctx context.Context, tenantID, userID, paymentID uuid.UUID) (*PaymentDetail, error) {
	var approved *billing.ProgressPayment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		payment, err := repos.PaymentRepo().FindByID(ctx, tenantID, paymentID)
		if err != nil {
			return err
		}
		proj, err := repos.ProjectRepo().FindByID(ctx, tenantID, payment.ProjectID)
		if err != nil {
			return err
		}

		workflow := billing.NewApprovalWorkflow(repos.Invoices(), repos.Receivables())
		if err := workflow.Approve(ctx, payment, proj, userID); err != nil {
			return err
		}
		if err := repos.PaymentRepo().SaveWithLock(ctx, payment); err != nil {
			return err
		}
		approved = payment
		return nil
	})
	if err != nil {
		s.metrics.RecordApprovalFailure(ctx, tenantID, errorCode(err))
		s.logger.Warn("progress payment approval failed",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordPaymentApproved(ctx, tenantID)
	s.logger.Info("progress payment approved",
		zap.String("payment_id", approved.ID.String()),
		zap.Int("payment_no", approved.PaymentNo),
		zap.String("net_payable", approved.NetPayableAmount.String()),
		zap.String("retention", approved.RetentionAmount.String()),
	)
	detail := ToPaymentDetail(approved)
	return &detail, nil
}

// ExportPayment renders the payment certificate in the requested format
func (s *ProgressPaymentService) ExportPayment(ctx context.Context, tenantID, paymentID uuid.UUID, format ExportFormat) (*ExportedDocument, error) {
	if s.renderer == nil {
		return nil, shared.NewInvalidStateError("certificate export is not configured")
	}
	payment, err := s.paymentRepo.FindByID(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	proj, err := s.projectRepo.FindByID(ctx, tenantID, payment.ProjectID)
	if err != nil {
		return nil, err
	}

	cert := Certificate{
		CompanyName:  s.cfg.CompanyName,
		ProjectCode:  proj.Code,
		ProjectName:  proj.Name,
		CustomerName: proj.CustomerName,
		Payment:      ToPaymentDetail(payment),
	}
	content, err := s.renderer.Render(ctx, format, cert)
	if err != nil {
		return nil, fmt.Errorf("failed to render payment certificate: %w", err)
	}
	doc := &ExportedDocument{
		Filename:    cert.Filename(format),
		ContentType: format.ContentType(),
		Content:     content,
	}

	// drafts still change, only approved certificates are archived
	if s.archive != nil && payment.Status == billing.PaymentStatusApproved {
		key := ArchiveKey(tenantID, proj.Code, doc.Filename)
		url, err := s.archive.Archive(ctx, key, doc.ContentType, content)
		if err != nil {
			s.logger.Warn("failed to archive payment certificate",
				zap.String("payment_id", paymentID.String()),
				zap.String("key", key),
				zap.Error(err),
			)
		} else {
			doc.ArchiveURL = url
		}
	}
	return doc, nil
}

// lookupRate resolves the payment-date rate from the contract currency to the base
// currency. Same currency is 1 without a lookup; any failure is a downstream failure.
func (s *ProgressPaymentService) lookupRate(ctx context.Context, tenantID uuid.UUID, from valueobject.Currency, asOf time.Time) (decimal.Decimal, error) {
	to := s.cfg.BaseCurrency
	if to.IsZero() || to == from {
		return decimal.NewFromInt(1), nil
	}
	if s.rates == nil {
		return decimal.Zero, shared.NewDownstreamError("no currency rate provider configured", nil)
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.RateLookupTimeout)
	defer cancel()

	rate, err := s.rates.GetRate(lookupCtx, tenantID, from, to, asOf)
	if err == nil && !rate.IsPositive() {
		err = fmt.Errorf("non-positive rate %s", rate.String())
	}
	if err != nil {
		s.metrics.RecordRateLookupFailure(ctx, tenantID)
		s.logger.Warn("currency rate lookup failed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
			zap.Time("as_of", asOf),
			zap.Error(err),
		)
		return decimal.Zero, shared.NewDownstreamError(
			fmt.Sprintf("currency rate lookup %s->%s failed", from, to), err)
	}
	return rate, nil
}

func (s *ProgressPaymentService) baseCurrency(proj *project.Project) valueobject.Currency {
	if s.cfg.BaseCurrency.IsZero() {
		return proj.Currency
	}
	return s.cfg.BaseCurrency
}

func errorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "INTERNAL"
}
