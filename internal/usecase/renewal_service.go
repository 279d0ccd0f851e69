package usecase

import (
	"context"

	"github.com/google/uuid"
	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

// RenewalService handles explicit user requests about renewal and downgrade
type RenewalService struct {
	txRepo repository.TransactionRepository
	guard  *TransitionGuard
	cache  repository.PlanCacheRepository
	logger *zap.Logger
	now    Clock
}

func NewRenewalService(
	txRepo repository.TransactionRepository,
	guard *TransitionGuard,
	cache repository.PlanCacheRepository,
	logger *zap.Logger,
) *RenewalService {
	return &RenewalService{
		txRepo: txRepo,
		guard:  guard,
		cache:  cache,
		logger: logger,
		now:    utcNow,
	}
}

func (s *RenewalService) WithClock(now Clock) *RenewalService {
	s.now = now
	return s
}

// CancelAutoRenew clears auto_renew only. Status and expiry are untouched, so
// the plan stays active until it expires.
func (s *RenewalService) CancelAutoRenew(ctx context.Context, userID uuid.UUID, tranID string) (*model.Transaction, error) {
	if _, err := loadOwned(ctx, s.txRepo, userID, tranID); err != nil {
		return nil, err
	}

	tx, err := s.txRepo.SetAutoRenew(ctx, tranID, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Auto-renew canceled",
		zap.String("tran_id", tranID),
		zap.String("user_id", userID.String()))
	return tx, nil
}

// EnableAutoRenew turns auto_renew back on for an active plan.
func (s *RenewalService) EnableAutoRenew(ctx context.Context, userID uuid.UUID, tranID string) (*model.Transaction, error) {
	tx, err := loadOwned(ctx, s.txRepo, userID, tranID)
	if err != nil {
		return nil, err
	}
	if !tx.IsActiveAt(s.now()) {
		return nil, domainErrors.ErrAutoRenewNotAllowed
	}

	tx, err = s.txRepo.SetAutoRenew(ctx, tranID, true)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Auto-renew enabled",
		zap.String("tran_id", tranID),
		zap.String("user_id", userID.String()))
	return tx, nil
}

// DowngradeToFree ends an active plan immediately. Anything but a completed
// unexpired record is rejected with ErrInvalidDowngrade and left untouched.
func (s *RenewalService) DowngradeToFree(ctx context.Context, userID uuid.UUID, tranID string) (*model.Transaction, error) {
	tx, err := loadOwned(ctx, s.txRepo, userID, tranID)
	if err != nil {
		return nil, err
	}
	if !tx.IsActiveAt(s.now()) {
		// the user is already on the free plan
		return nil, domainErrors.ErrInvalidDowngrade
	}

	expired, applied, err := s.guard.Expire(ctx, tranID, model.SourceOperator, model.DecisionDowngraded)
	if err != nil {
		return nil, err
	}
	if !applied {
		// settled differently between the read and the write
		return nil, domainErrors.ErrInvalidDowngrade
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, userID); err != nil {
			s.logger.Error("Failed to invalidate cached plan after downgrade",
				zap.String("user_id", userID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Downgraded to free plan",
		zap.String("tran_id", tranID),
		zap.String("user_id", userID.String()),
		zap.String("previous_plan", expired.Plan))
	return expired, nil
}
