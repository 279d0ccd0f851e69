package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CachedPlan is the denormalized plan indicator read by other services.
type CachedPlan struct {
	Plan      string     `json:"plan"`
	TranID    string     `json:"tran_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PlanCacheRepository stores the denormalized plan per user. It is a copy of
// ledger state and never a source of truth.
type PlanCacheRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*CachedPlan, error)
	Set(ctx context.Context, userID uuid.UUID, plan CachedPlan) error
	Delete(ctx context.Context, userID uuid.UUID) error
}
