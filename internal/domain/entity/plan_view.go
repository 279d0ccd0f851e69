package entity

import (
	"time"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
)

// FreePlan is the effective plan of a user without an entitling transaction.
const FreePlan = "free"

// UserPlanView is the read model derived from the ledger on every request.
type UserPlanView struct {
	Plan            string             `json:"plan"`
	IsExpired       bool               `json:"is_expired"`
	ExpiresAt       *time.Time         `json:"expires_at,omitempty"`
	NextBillingDate *time.Time         `json:"next_billing_date,omitempty"`
	AutoRenew       bool               `json:"auto_renew"`
	Transaction     *model.Transaction `json:"transaction,omitempty"`
}

// FreePlanView returns the view of a user on the free plan.
func FreePlanView() *UserPlanView {
	return &UserPlanView{Plan: FreePlan}
}

// HasAccess reports whether the view grants the paid plan right now.
// Access decisions must use this rather than Plan alone.
func (v *UserPlanView) HasAccess() bool {
	return v.Plan != FreePlan && !v.IsExpired
}
