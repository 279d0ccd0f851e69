package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

const defaultPlanKeyPrefix = "plan:"

type planCacheRepository struct {
	client    *redis.Client
	keyPrefix string
	logger    *zap.Logger
}

// NewPlanCacheRepository creates the Redis backed denormalized plan store
func NewPlanCacheRepository(client *redis.Client, keyPrefix string, logger *zap.Logger) repository.PlanCacheRepository {
	if keyPrefix == "" {
		keyPrefix = defaultPlanKeyPrefix
	}
	return &planCacheRepository{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (r *planCacheRepository) key(userID uuid.UUID) string {
	return r.keyPrefix + userID.String()
}

func (r *planCacheRepository) Get(ctx context.Context, userID uuid.UUID) (*repository.CachedPlan, error) {
	raw, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached plan: %w", err)
	}

	var plan repository.CachedPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		// A corrupt entry is treated as missing so repair overwrites it.
		r.logger.Warn("Discarding unreadable cached plan",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, nil
	}
	return &plan, nil
}

// Set stores the plan until its expiry. A plan without a future expiry is
// never cached; any previous entry for the user is removed instead.
func (r *planCacheRepository) Set(ctx context.Context, userID uuid.UUID, plan repository.CachedPlan) error {
	ttl, ok := planTTL(plan.ExpiresAt, time.Now())
	if !ok {
		r.logger.Debug("Skipping cache write for plan without a future expiry",
			zap.String("user_id", userID.String()),
			zap.String("tran_id", plan.TranID))
		return r.Delete(ctx, userID)
	}

	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal cached plan: %w", err)
	}

	if err := r.client.Set(ctx, r.key(userID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cached plan: %w", err)
	}
	return nil
}

// planTTL is the time left until expiresAt. Redis treats a zero TTL as no
// expiry, so ok is false unless the result is positive.
func planTTL(expiresAt *time.Time, now time.Time) (time.Duration, bool) {
	if expiresAt == nil {
		return 0, false
	}
	ttl := expiresAt.Sub(now)
	return ttl, ttl > 0
}

func (r *planCacheRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached plan: %w", err)
	}
	return nil
}
