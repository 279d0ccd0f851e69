package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainRepo "github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestPlanCacheRepository_RoundTrip(t *testing.T) {
	client := newTestRedis(t)
	cache := NewPlanCacheRepository(client, "test:plan:", zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()
	t.Cleanup(func() { client.Del(context.Background(), "test:plan:"+userID.String()) })

	got, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, cache.Set(ctx, userID, domainRepo.CachedPlan{Plan: "pro", TranID: "T-1", ExpiresAt: &expires}))

	got, err = cache.Get(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pro", got.Plan)
	assert.Equal(t, "T-1", got.TranID)
	assert.True(t, expires.Equal(*got.ExpiresAt))

	ttl, err := client.TTL(ctx, "test:plan:"+userID.String()).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Hour)

	require.NoError(t, cache.Delete(ctx, userID))
	got, err = cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPlanCacheRepository_CorruptEntryIsMissing(t *testing.T) {
	client := newTestRedis(t)
	cache := NewPlanCacheRepository(client, "test:plan:", zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()
	key := "test:plan:" + userID.String()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	require.NoError(t, client.Set(ctx, key, "not json", 0).Err())

	got, err := cache.Get(ctx, userID)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestPlanTTL(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name      string
		expiresAt *time.Time
		ttl       time.Duration
		ok        bool
	}{
		{"future expiry", &future, time.Hour, true},
		{"exactly now", &now, 0, false},
		{"already lapsed", &past, -time.Hour, false},
		{"no expiry", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ttl, ok := planTTL(tt.expiresAt, now)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.ttl, ttl)
			}
		})
	}
}

func TestPlanCacheRepository_LapsedPlanIsNotStored(t *testing.T) {
	client := newTestRedis(t)
	cache := NewPlanCacheRepository(client, "test:plan:", zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()
	key := "test:plan:" + userID.String()
	t.Cleanup(func() { client.Del(context.Background(), key) })

	expires := time.Now().Add(time.Hour)
	require.NoError(t, cache.Set(ctx, userID, domainRepo.CachedPlan{Plan: "pro", TranID: "T-1", ExpiresAt: &expires}))

	lapsed := time.Now().Add(-time.Minute)
	require.NoError(t, cache.Set(ctx, userID, domainRepo.CachedPlan{Plan: "pro", TranID: "T-1", ExpiresAt: &lapsed}))

	exists, err := client.Exists(ctx, key).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
