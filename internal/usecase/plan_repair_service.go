package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

// PlanRepairService keeps the denormalized plan cache in line with the ledger.
// It only ever raises the cached plan to the active one; it never writes free
// and never downgrades.
type PlanRepairService struct {
	txRepo repository.TransactionRepository
	cache  repository.PlanCacheRepository
	logger *zap.Logger
	now    Clock
}

// NewPlanRepairService creates the repair service. A nil cache turns every
// repair into a no-op.
func NewPlanRepairService(txRepo repository.TransactionRepository, cache repository.PlanCacheRepository, logger *zap.Logger) *PlanRepairService {
	return &PlanRepairService{
		txRepo: txRepo,
		cache:  cache,
		logger: logger,
		now:    utcNow,
	}
}

func (s *PlanRepairService) WithClock(now Clock) *PlanRepairService {
	s.now = now
	return s
}

// Repair returns the number of cache entries it rewrote for the user.
func (s *PlanRepairService) Repair(ctx context.Context, userID uuid.UUID) (int, error) {
	if s.cache == nil {
		return 0, nil
	}

	active, err := s.txRepo.ListActiveCompleted(ctx, userID, s.now())
	if err != nil {
		return 0, err
	}
	if len(active) == 0 {
		return 0, nil
	}

	// the record with the latest expiry is the effective one
	effective := active[0]

	cached, err := s.cache.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if cached != nil && cached.Plan != entity.FreePlan && cached.Plan == effective.Plan {
		return 0, nil
	}

	err = s.cache.Set(ctx, userID, repository.CachedPlan{
		Plan:      effective.Plan,
		TranID:    effective.TranID,
		ExpiresAt: effective.ExpiresAt,
	})
	if err != nil {
		return 0, err
	}

	previous := ""
	if cached != nil {
		previous = cached.Plan
	}
	s.logger.Info("Repaired cached plan",
		zap.String("user_id", userID.String()),
		zap.String("previous_plan", previous),
		zap.String("plan", effective.Plan),
		zap.String("tran_id", effective.TranID))

	return 1, nil
}

// RepairAll repairs every user holding an active plan. It keeps going past
// per-user failures and reports how many users failed.
func (s *PlanRepairService) RepairAll(ctx context.Context) (users, repairs int, err error) {
	if s.cache == nil {
		return 0, 0, nil
	}

	userIDs, err := s.txRepo.ListUsersWithActivePlans(ctx, s.now())
	if err != nil {
		return 0, 0, err
	}

	failed := 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return users, repairs, err
		}

		n, err := s.Repair(ctx, userID)
		if err != nil {
			failed++
			s.logger.Error("Failed to repair cached plan",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			continue
		}
		users++
		repairs += n
	}

	if failed > 0 {
		return users, repairs, fmt.Errorf("failed to repair %d of %d users", failed, len(userIDs))
	}
	return users, repairs, nil
}
