package usecase

import (
	"context"
	"time"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

const reverifyBatchSize = 500

// ReverifyService re-checks successes that were granted without gateway
// confirmation. It only records conclusions; revoking a plan stays an
// explicit downgrade.
type ReverifyService struct {
	audits    repository.VerificationAuditRepository
	checker   gateway.StatusChecker
	tolerance time.Duration
	logger    *zap.Logger
	now       Clock
}

func NewReverifyService(
	audits repository.VerificationAuditRepository,
	checker gateway.StatusChecker,
	tolerance time.Duration,
	logger *zap.Logger,
) *ReverifyService {
	return &ReverifyService{
		audits:    audits,
		checker:   checker,
		tolerance: tolerance,
		logger:    logger,
		now:       utcNow,
	}
}

func (s *ReverifyService) WithClock(now Clock) *ReverifyService {
	s.now = now
	return s
}

// Reverify checks assumed successes older than olderThan. One still
// indeterminate after tolerance is concluded unverifiable. A zero tolerance
// uses the configured one.
func (s *ReverifyService) Reverify(ctx context.Context, olderThan, tolerance time.Duration) (*entity.ReverifyReport, error) {
	if tolerance <= 0 {
		tolerance = s.tolerance
	}
	now := s.now()

	open, err := s.audits.ListOpenAssumed(ctx, now.Add(-olderThan), reverifyBatchSize)
	if err != nil {
		return nil, err
	}

	report := &entity.ReverifyReport{}
	for _, assumed := range open {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++

		result := s.checker.Check(ctx, assumed.TranID)

		var decision model.VerificationDecision
		switch {
		case result.Verdict == gateway.VerdictSuccess:
			decision = model.DecisionReconfirmed
			report.Reconfirmed++
		case result.Verdict == gateway.VerdictFailure:
			decision = model.DecisionDisputed
			report.Disputed++
			s.logger.Error("Assumed success disputed by gateway",
				zap.String("tran_id", assumed.TranID),
				zap.String("matched_shape", result.MatchedShape),
				zap.Time("assumed_at", assumed.CreatedAt))
		case now.Sub(assumed.CreatedAt) > tolerance:
			decision = model.DecisionUnverifiable
			report.Unverifiable++
			s.logger.Warn("Assumed success could not be verified within tolerance",
				zap.String("tran_id", assumed.TranID),
				zap.Duration("tolerance", tolerance),
				zap.String("error", result.ErrorString()))
		default:
			report.Pending++
			continue
		}

		err := s.audits.Record(ctx, &model.VerificationAudit{
			TranID:          assumed.TranID,
			UserID:          assumed.UserID,
			Source:          model.SourceReverify,
			Verdict:         string(result.Verdict),
			Decision:        decision,
			MatchedShape:    result.MatchedShape,
			AttemptedShapes: result.Attempted(),
			Error:           result.ErrorString(),
		})
		if err != nil {
			return report, err
		}
	}

	s.logger.Info("Re-verification finished",
		zap.Int("checked", report.Checked),
		zap.Int("reconfirmed", report.Reconfirmed),
		zap.Int("disputed", report.Disputed),
		zap.Int("unverifiable", report.Unverifiable),
		zap.Int("pending", report.Pending))

	return report, nil
}
