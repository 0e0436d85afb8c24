package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/erp/progress-billing/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisIdempotencyStore(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisIdempotencyStore(client, "")
	ctx := context.Background()

	isNew, err := store.MarkProcessed(ctx, "notify:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.True(t, mr.Exists("billing:idempotency:notify:evt-1"))

	isNew, err = store.MarkProcessed(ctx, "notify:evt-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, isNew)

	mr.FastForward(2 * time.Hour)
	isNew, err = store.MarkProcessed(ctx, "notify:evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, isNew)

	require.NoError(t, store.Unmark(ctx, "notify:evt-1"))
	assert.False(t, mr.Exists("billing:idempotency:notify:evt-1"))
}

func TestRedisIdempotencyStore_ServerDown(t *testing.T) {
	mr, client := newMiniredis(t)
	store := NewRedisIdempotencyStore(client, "test:")
	mr.Close()

	_, err := store.MarkProcessed(context.Background(), "evt", time.Hour)
	assert.Error(t, err)
}

func TestNewStores(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("disabled", func(t *testing.T) {
		stores, err := NewStores(ctx, config.RedisConfig{}, logger)
		require.NoError(t, err)
		defer stores.Close()
		assert.Nil(t, stores.Client)
		assert.IsType(t, &InMemoryIdempotencyStore{}, stores.Idempotency)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		stores, err := NewStores(ctx, config.RedisConfig{
			Enabled: true,
			Host:    mr.Host(),
			Port:    mustPort(t, mr),
		}, logger)
		require.NoError(t, err)
		defer stores.Close()
		assert.NotNil(t, stores.Client)
		assert.IsType(t, &RedisIdempotencyStore{}, stores.Idempotency)
	})

	t.Run("unreachable without fallback", func(t *testing.T) {
		_, err := NewStores(ctx, config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}, logger)
		assert.Error(t, err)
	})

	t.Run("unreachable with fallback", func(t *testing.T) {
		stores, err := NewStores(ctx, config.RedisConfig{
			Enabled:               true,
			Host:                  "127.0.0.1",
			Port:                  1,
			AllowInMemoryFallback: true,
		}, logger)
		require.NoError(t, err)
		defer stores.Close()
		assert.Nil(t, stores.Client)
	})
}

func mustPort(t *testing.T, mr *miniredis.Miniredis) int {
	t.Helper()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)
	return port
}
