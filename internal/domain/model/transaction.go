package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionStatus is the lifecycle state of a checkout attempt
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCanceled  TransactionStatus = "canceled"
	TransactionStatusExpired   TransactionStatus = "expired"
)

// IsTerminal reports whether no further automatic transition can happen.
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusCanceled, TransactionStatusExpired:
		return true
	default:
		return false
	}
}

func (s TransactionStatus) Valid() bool {
	return s == TransactionStatusPending || s.IsTerminal()
}

// Scan implements sql.Scanner interface
func (s *TransactionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = TransactionStatus(v)
	case []byte:
		*s = TransactionStatus(v)
	default:
		*s = TransactionStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s TransactionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Transaction is one checkout attempt in the ledger. Rows are never deleted.
type Transaction struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TranID          string            `gorm:"column:tran_id;size:128;not null;uniqueIndex" json:"tran_id"`
	UserID          uuid.UUID         `gorm:"type:uuid;not null;index:idx_transactions_user_status,priority:1" json:"user_id"`
	Plan            string            `gorm:"size:64;not null" json:"plan"`
	Amount          decimal.Decimal   `gorm:"type:decimal(12,2);not null;default:0" json:"amount"`
	Currency        string            `gorm:"size:3" json:"currency,omitempty"`
	Status          TransactionStatus `gorm:"size:16;not null;default:'pending';index:idx_transactions_user_status,priority:2" json:"status"`
	AutoRenew       bool              `gorm:"not null;default:false" json:"auto_renew"`
	TransactionDate *time.Time        `json:"transaction_date,omitempty"`
	ExpiresAt       *time.Time        `gorm:"index" json:"expires_at,omitempty"`
	Metadata        datatypes.JSON    `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// IsActiveAt reports whether the record grants its plan at the given instant.
func (t *Transaction) IsActiveAt(now time.Time) bool {
	return t.Status == TransactionStatusCompleted && t.ExpiresAt != nil && !now.After(*t.ExpiresAt)
}

// BeforeCreate assigns the internal identifier when the caller did not.
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
