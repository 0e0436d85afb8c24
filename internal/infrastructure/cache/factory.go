package cache

import (
	"context"
	"fmt"

	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Stores bundles the cache-backed components built from configuration
type Stores struct {
	// Client is nil when Redis is disabled or unreachable
	Client      *redis.Client
	Idempotency shared.IdempotencyStore
}

// Close releases the stores and the Redis client
func (s *Stores) Close() error {
	if err := s.Idempotency.Close(); err != nil {
		return err
	}
	if s.Client != nil {
		return s.Client.Close()
	}
	return nil
}

// NewStores connects to Redis when enabled. If Redis is unavailable and
// AllowInMemoryFallback is set, an in-memory idempotency store is used instead.
func NewStores(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Stores, error) {
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory idempotency store")
		return &Stores{Idempotency: NewInMemoryIdempotencyStore()}, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if !cfg.AllowInMemoryFallback {
			return nil, fmt.Errorf("redis required but unavailable: %w", err)
		}
		logger.Warn("redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
		return &Stores{Idempotency: NewInMemoryIdempotencyStore()}, nil
	}

	logger.Info("using redis idempotency store", zap.String("host", cfg.Host), zap.Int("port", cfg.Port))
	return &Stores{
		Client:      client,
		Idempotency: NewRedisIdempotencyStore(client, cfg.KeyPrefix),
	}, nil
}
