package finance

import (
	"context"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RateCacheInvalidator forgets cached lookups of a currency pair
type RateCacheInvalidator interface {
	InvalidatePair(ctx context.Context, tenantID uuid.UUID, from, to valueobject.Currency) error
}

// ExchangeRateService records the rates used to convert payments into the base currency
type ExchangeRateService struct {
	rateRepo    finance.ExchangeRateRepository
	invalidator RateCacheInvalidator
	logger      *zap.Logger
}

// NewExchangeRateService creates a new ExchangeRateService
func NewExchangeRateService(rateRepo finance.ExchangeRateRepository, logger *zap.Logger) *ExchangeRateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExchangeRateService{rateRepo: rateRepo, logger: logger}
}

// SetCacheInvalidator registers the rate cache to clear after a rate is recorded
func (s *ExchangeRateService) SetCacheInvalidator(inv RateCacheInvalidator) {
	s.invalidator = inv
}

// RecordExchangeRate stores a rate effective from the given day
func (s *ExchangeRateService) RecordExchangeRate(ctx context.Context, tenantID uuid.UUID, req RecordExchangeRateRequest) (*ExchangeRateResponse, error) {
	from, err := valueobject.ParseCurrency(req.FromCurrency)
	if err != nil {
		return nil, err
	}
	to, err := valueobject.ParseCurrency(req.ToCurrency)
	if err != nil {
		return nil, err
	}
	rate, err := finance.NewExchangeRate(tenantID, from, to, req.Rate, req.EffectiveDate)
	if err != nil {
		return nil, err
	}
	if err := s.rateRepo.Save(ctx, rate); err != nil {
		return nil, err
	}
	if s.invalidator != nil {
		if err := s.invalidator.InvalidatePair(ctx, tenantID, from, to); err != nil {
			s.logger.Warn("failed to invalidate cached rates",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
				zap.Error(err),
			)
		}
	}
	s.logger.Info("exchange rate recorded",
		zap.String("from", from.String()),
		zap.String("to", to.String()),
		zap.String("rate", rate.Rate.String()),
		zap.Time("effective_date", rate.EffectiveDate),
	)
	resp := ToExchangeRateResponse(rate)
	return &resp, nil
}
