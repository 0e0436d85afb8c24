package currency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/shared/valueobject"
	"github.com/erp/progress-billing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedProvider collapses identical concurrent lookups and keeps results in Redis.
// A nil client disables the Redis layer; cache read and write failures fall through
// to the wrapped provider.
type CachedProvider struct {
	next      billing.CurrencyRateProvider
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
	group     singleflight.Group
	logger    *zap.Logger
}

// NewCachedProvider wraps next with request collapsing and an optional Redis cache
func NewCachedProvider(next billing.CurrencyRateProvider, client redis.UniversalClient, keyPrefix string, ttl time.Duration, logger *zap.Logger) *CachedProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedProvider{
		next:      next,
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
	}
}

func (p *CachedProvider) cacheKey(tenantID uuid.UUID, from, to valueobject.Currency, asOf time.Time) string {
	return fmt.Sprintf("%sfx:%s:%s:%s:%s", p.keyPrefix, tenantID, from, to, asOf.UTC().Format(time.DateOnly))
}

// GetRate serves from Redis when possible, otherwise asks the wrapped provider once per key
func (p *CachedProvider) GetRate(ctx context.Context, tenantID uuid.UUID, from, to valueobject.Currency, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "currency", "get_rate",
		telemetry.WithAttribute(telemetry.SpanAttrTenantID, tenantID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCurrency, from.String()+"/"+to.String()),
	)
	defer span.End()
	key := p.cacheKey(tenantID, from, to, asOf)

	if rate, ok := p.readCache(ctx, key); ok {
		telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, true)
		return rate, nil
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCacheHit, false)

	ch := p.group.DoChan(key, func() (any, error) {
		// The shared call outlives any single caller's cancellation.
		lookupCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			lookupCtx, cancel = context.WithDeadline(lookupCtx, deadline)
			defer cancel()
		}
		rate, err := p.next.GetRate(lookupCtx, tenantID, from, to, asOf)
		if err != nil {
			return nil, err
		}
		p.writeCache(lookupCtx, key, rate)
		return rate, nil
	})

	select {
	case <-ctx.Done():
		telemetry.RecordError(span, ctx.Err())
		return decimal.Zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			telemetry.RecordError(span, res.Err)
			return decimal.Zero, res.Err
		}
		return res.Val.(decimal.Decimal), nil
	}
}

func (p *CachedProvider) readCache(ctx context.Context, key string) (decimal.Decimal, bool) {
	if p.client == nil {
		return decimal.Zero, false
	}
	raw, err := p.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.logger.Warn("rate cache read failed", zap.String("key", key), zap.Error(err))
		}
		return decimal.Zero, false
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || !rate.IsPositive() {
		p.logger.Warn("discarding malformed cached rate", zap.String("key", key), zap.String("value", raw))
		return decimal.Zero, false
	}
	return rate, true
}

func (p *CachedProvider) writeCache(ctx context.Context, key string, rate decimal.Decimal) {
	if p.client == nil {
		return
	}
	if err := p.client.Set(ctx, key, rate.String(), p.ttl).Err(); err != nil {
		p.logger.Warn("rate cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidatePair drops every cached rate of a currency pair for a tenant. A newly
// recorded rate can change the answer for any later as-of date.
func (p *CachedProvider) InvalidatePair(ctx context.Context, tenantID uuid.UUID, from, to valueobject.Currency) error {
	if p.client == nil {
		return nil
	}
	pattern := fmt.Sprintf("%sfx:%s:%s:%s:*", p.keyPrefix, tenantID, from, to)
	iter := p.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached rates: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return p.client.Del(ctx, keys...).Err()
}
