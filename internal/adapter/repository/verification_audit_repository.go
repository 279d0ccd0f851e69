package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type verificationAuditRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewVerificationAuditRepository creates a new verification audit repository
func NewVerificationAuditRepository(db *gorm.DB, logger *zap.Logger) repository.VerificationAuditRepository {
	return &verificationAuditRepository{
		db:     db,
		logger: logger,
	}
}

func (r *verificationAuditRepository) Record(ctx context.Context, audit *model.VerificationAudit) error {
	if err := r.db.WithContext(ctx).Create(audit).Error; err != nil {
		r.logger.Error("Failed to record verification audit",
			zap.String("tran_id", audit.TranID),
			zap.String("decision", string(audit.Decision)),
			zap.Error(err))
		return fmt.Errorf("failed to record verification audit: %w", err)
	}
	return nil
}

func (r *verificationAuditRepository) ListOpenAssumed(ctx context.Context, cutoff time.Time, limit int) ([]*model.VerificationAudit, error) {
	var audits []*model.VerificationAudit

	query := r.db.WithContext(ctx).
		Table("verification_audits AS a").
		Where("a.decision = ? AND a.created_at < ?", model.DecisionAssumed, cutoff).
		Where("NOT EXISTS (SELECT 1 FROM verification_audits c WHERE c.tran_id = a.tran_id AND c.decision IN ?)",
			[]model.VerificationDecision{model.DecisionReconfirmed, model.DecisionDisputed, model.DecisionUnverifiable}).
		Order("a.created_at ASC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&audits).Error; err != nil {
		r.logger.Error("Failed to list open assumed successes", zap.Error(err))
		return nil, fmt.Errorf("failed to list open assumed successes: %w", err)
	}

	return audits, nil
}

func (r *verificationAuditRepository) CountByDecision(ctx context.Context, since time.Time) (map[model.VerificationDecision]int64, error) {
	var rows []struct {
		Decision model.VerificationDecision
		Count    int64
	}

	err := r.db.WithContext(ctx).
		Model(&model.VerificationAudit{}).
		Select("decision, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("decision").
		Scan(&rows).Error

	if err != nil {
		r.logger.Error("Failed to count verification decisions", zap.Error(err))
		return nil, fmt.Errorf("failed to count verification decisions: %w", err)
	}

	counts := make(map[model.VerificationDecision]int64, len(rows))
	for _, row := range rows {
		counts[row.Decision] = row.Count
	}
	return counts, nil
}
