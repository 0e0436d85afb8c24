package currency

import (
	"fmt"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/erp/progress-billing/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Providers bundles the configured rate provider and, when caching is on, its cache
type Providers struct {
	Rates billing.CurrencyRateProvider
	// Cache is nil when currency.cache_enabled is false
	Cache *CachedProvider
}

// NewProviders builds the rate provider chain from configuration. client may be nil,
// in which case caching only collapses concurrent lookups.
func NewProviders(cfg config.CurrencyConfig, keyPrefix string, rates finance.ExchangeRateRepository, client *redis.Client, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var base billing.CurrencyRateProvider
	switch cfg.Provider {
	case config.CurrencyProviderDatabase, "":
		base = NewDatabaseProvider(rates)
	case config.CurrencyProviderHTTP:
		p, err := NewHTTPProvider(HTTPProviderConfig{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		base = p
	default:
		return nil, fmt.Errorf("currency: unknown provider %q", cfg.Provider)
	}
	logger.Info("currency rate provider configured",
		zap.String("provider", cfg.Provider),
		zap.Bool("cache_enabled", cfg.CacheEnabled),
		zap.Bool("redis", client != nil),
	)

	if !cfg.CacheEnabled {
		return &Providers{Rates: base}, nil
	}

	var uc redis.UniversalClient
	if client != nil {
		uc = client
	}
	cached := NewCachedProvider(base, uc, keyPrefix, cfg.CacheTTL, logger)
	return &Providers{Rates: cached, Cache: cached}, nil
}
