package database

import (
	"fmt"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(
		&model.Transaction{},
		&model.VerificationAudit{},
	); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return fmt.Errorf("failed to create custom indexes: %w", err)
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates partial indexes GORM doesn't handle.
// MySQL has no partial indexes and relies on idx_transactions_user_status.
func createCustomIndexes(db *gorm.DB) error {
	switch db.Dialector.Name() {
	case "postgres", "sqlite":
	default:
		return nil
	}

	// redirect lookups only ever scan a user's pending rows
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_transactions_user_pending ON transactions (user_id, created_at) WHERE status = 'pending'`).Error
}
