package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

// PlanResolver derives the user facing plan from the ledger alone
type PlanResolver struct {
	txRepo repository.TransactionRepository
	logger *zap.Logger
	now    Clock
}

func NewPlanResolver(txRepo repository.TransactionRepository, logger *zap.Logger) *PlanResolver {
	return &PlanResolver{
		txRepo: txRepo,
		logger: logger,
		now:    utcNow,
	}
}

func (r *PlanResolver) WithClock(now Clock) *PlanResolver {
	r.now = now
	return r
}

// Resolve never fails: an anonymous caller or a ledger read error yields the
// free view.
func (r *PlanResolver) Resolve(ctx context.Context, userID uuid.UUID) *entity.UserPlanView {
	if userID == uuid.Nil {
		return entity.FreePlanView()
	}

	tx, err := r.txRepo.GetLatestSettled(ctx, userID)
	if err != nil {
		r.logger.Error("Failed to read ledger, resolving to free plan",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return entity.FreePlanView()
	}

	return DerivePlanView(tx, r.now())
}

// DerivePlanView computes the plan view of a user from their latest settled
// record. It has no side effects.
func DerivePlanView(tx *model.Transaction, now time.Time) *entity.UserPlanView {
	if tx == nil || tx.Status != model.TransactionStatusCompleted || tx.ExpiresAt == nil {
		return entity.FreePlanView()
	}

	view := &entity.UserPlanView{
		Plan:        tx.Plan,
		IsExpired:   now.After(*tx.ExpiresAt),
		ExpiresAt:   tx.ExpiresAt,
		AutoRenew:   tx.AutoRenew,
		Transaction: tx,
	}
	if tx.AutoRenew && !view.IsExpired {
		next := *tx.ExpiresAt
		view.NextBillingDate = &next
	}
	return view
}
