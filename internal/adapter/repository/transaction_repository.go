package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTransactionRepository creates the gorm backed ledger
func NewTransactionRepository(db *gorm.DB, logger *zap.Logger) repository.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a pending transaction. A tran_id that already exists is
// reported as ErrDuplicateTransaction and the stored row is left untouched.
func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "tran_id"}}, DoNothing: true}).
		Create(tx)

	if result.Error != nil {
		r.logger.Error("Failed to create transaction",
			zap.String("tran_id", tx.TranID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to create transaction: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domainErrors.ErrDuplicateTransaction
	}

	return nil
}

// Get retrieves a transaction by gateway tran_id
func (r *transactionRepository) Get(ctx context.Context, tranID string) (*model.Transaction, error) {
	var tx model.Transaction

	err := r.db.WithContext(ctx).
		Where("tran_id = ?", tranID).
		First(&tx).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction",
			zap.String("tran_id", tranID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

// GetLatestPendingOrCompleted returns the newest pending or completed record of the user
func (r *transactionRepository) GetLatestPendingOrCompleted(ctx context.Context, userID uuid.UUID) (*model.Transaction, error) {
	return r.latest(ctx, userID, "created_at DESC",
		model.TransactionStatusPending, model.TransactionStatusCompleted)
}

// GetLatestSettled returns the newest completed or expired record of the user
func (r *transactionRepository) GetLatestSettled(ctx context.Context, userID uuid.UUID) (*model.Transaction, error) {
	return r.latest(ctx, userID, "transaction_date DESC, created_at DESC, tran_id DESC",
		model.TransactionStatusCompleted, model.TransactionStatusExpired)
}

func (r *transactionRepository) latest(ctx context.Context, userID uuid.UUID, order string, statuses ...model.TransactionStatus) (*model.Transaction, error) {
	var tx model.Transaction

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Order(order).
		First(&tx).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get latest transaction",
			zap.String("user_id", userID.String()),
			zap.Any("statuses", statuses),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get latest transaction: %w", err)
	}

	return &tx, nil
}

// ListActiveCompleted lists completed records of the user that have not expired at now
func (r *transactionRepository) ListActiveCompleted(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.Transaction, error) {
	var txs []*model.Transaction

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND expires_at >= ?", userID, model.TransactionStatusCompleted, now).
		Order("expires_at DESC").
		Find(&txs).Error

	if err != nil {
		r.logger.Error("Failed to list active transactions",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list active transactions: %w", err)
	}

	return txs, nil
}

// ListUsersWithActivePlans lists every user holding a completed unexpired record
func (r *transactionRepository) ListUsersWithActivePlans(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID

	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("status = ? AND expires_at >= ?", model.TransactionStatusCompleted, now).
		Distinct().
		Pluck("user_id", &userIDs).Error

	if err != nil {
		r.logger.Error("Failed to list users with active plans", zap.Error(err))
		return nil, fmt.Errorf("failed to list users with active plans: %w", err)
	}

	return userIDs, nil
}

// ApplyTransition is a compare-and-swap on status: the row is only updated
// while it is still pending. Concurrent callers race on this single UPDATE;
// the loser sees zero affected rows and gets the settled record back.
func (r *transactionRepository) ApplyTransition(ctx context.Context, tranID string, status model.TransactionStatus, effects repository.TransitionEffects) (*model.Transaction, bool, error) {
	updates := map[string]interface{}{
		"status": status,
	}
	if effects.Amount != nil {
		updates["amount"] = *effects.Amount
	}
	if effects.TransactionDate != nil {
		updates["transaction_date"] = *effects.TransactionDate
	}
	if effects.ExpiresAt != nil {
		updates["expires_at"] = *effects.ExpiresAt
	}
	if len(effects.Metadata) > 0 {
		updates["metadata"] = effects.Metadata
	}

	result := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("tran_id = ? AND status = ?", tranID, model.TransactionStatusPending).
		Updates(updates)

	if result.Error != nil {
		r.logger.Error("Failed to apply transition",
			zap.String("tran_id", tranID),
			zap.String("status", string(status)),
			zap.Error(result.Error))
		return nil, false, fmt.Errorf("failed to apply transition: %w", result.Error)
	}

	return r.reload(ctx, tranID, result.RowsAffected > 0)
}

// SetAutoRenew updates only the auto_renew flag
func (r *transactionRepository) SetAutoRenew(ctx context.Context, tranID string, autoRenew bool) (*model.Transaction, error) {
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("tran_id = ?", tranID).
		Update("auto_renew", autoRenew).Error

	if err != nil {
		r.logger.Error("Failed to update auto renew",
			zap.String("tran_id", tranID),
			zap.Bool("auto_renew", autoRenew),
			zap.Error(err))
		return nil, fmt.Errorf("failed to update auto renew: %w", err)
	}

	tx, _, err := r.reload(ctx, tranID, true)
	return tx, err
}

// ForceExpire ends a completed record at the given instant. A record that has
// already lapsed by then is left as it is.
func (r *transactionRepository) ForceExpire(ctx context.Context, tranID string, at time.Time) (*model.Transaction, bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("tran_id = ? AND status = ? AND expires_at >= ?", tranID, model.TransactionStatusCompleted, at).
		Updates(map[string]interface{}{
			"status":     model.TransactionStatusExpired,
			"expires_at": at,
		})

	if result.Error != nil {
		r.logger.Error("Failed to expire transaction",
			zap.String("tran_id", tranID),
			zap.Error(result.Error))
		return nil, false, fmt.Errorf("failed to expire transaction: %w", result.Error)
	}

	return r.reload(ctx, tranID, result.RowsAffected > 0)
}

func (r *transactionRepository) reload(ctx context.Context, tranID string, applied bool) (*model.Transaction, bool, error) {
	tx, err := r.Get(ctx, tranID)
	if err != nil {
		return nil, false, err
	}
	if tx == nil {
		return nil, false, domainErrors.ErrTransactionNotFound
	}
	return tx, applied, nil
}
