package repository

import (
	"context"
	"time"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
)

type VerificationAuditRepository interface {
	Record(ctx context.Context, audit *model.VerificationAudit) error
	// ListOpenAssumed returns assumed successes created before cutoff that no
	// reverify decision has concluded yet, oldest first.
	ListOpenAssumed(ctx context.Context, cutoff time.Time, limit int) ([]*model.VerificationAudit, error)
	CountByDecision(ctx context.Context, since time.Time) (map[model.VerificationDecision]int64, error)
}
