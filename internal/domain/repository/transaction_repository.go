package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"gorm.io/datatypes"
)

// TransitionEffects are the columns written together with a terminal status.
// Nil fields are left untouched.
type TransitionEffects struct {
	Amount          *decimal.Decimal
	TransactionDate *time.Time
	ExpiresAt       *time.Time
	Metadata        datatypes.JSON
}

// TransactionRepository is the ledger. Every mutation is a single-row
// conditional write keyed by tran_id. Lookups return nil, nil when absent.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	Get(ctx context.Context, tranID string) (*model.Transaction, error)
	GetLatestPendingOrCompleted(ctx context.Context, userID uuid.UUID) (*model.Transaction, error)
	// GetLatestSettled returns the newest completed or expired record.
	GetLatestSettled(ctx context.Context, userID uuid.UUID) (*model.Transaction, error)
	ListActiveCompleted(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.Transaction, error)
	ListUsersWithActivePlans(ctx context.Context, now time.Time) ([]uuid.UUID, error)

	// ApplyTransition moves a pending record to status. applied is false when
	// the record was no longer pending; the stored record is returned either way.
	ApplyTransition(ctx context.Context, tranID string, status model.TransactionStatus, effects TransitionEffects) (tx *model.Transaction, applied bool, err error)
	SetAutoRenew(ctx context.Context, tranID string, autoRenew bool) (*model.Transaction, error)
	// ForceExpire moves a completed record to expired with expires_at = at.
	ForceExpire(ctx context.Context, tranID string, at time.Time) (tx *model.Transaction, applied bool, err error)
}
