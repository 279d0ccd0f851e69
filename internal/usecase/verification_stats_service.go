package usecase

import (
	"context"
	"time"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

type VerificationStatsService struct {
	audits repository.VerificationAuditRepository
	logger *zap.Logger
}

func NewVerificationStatsService(audits repository.VerificationAuditRepository, logger *zap.Logger) *VerificationStatsService {
	return &VerificationStatsService{
		audits: audits,
		logger: logger,
	}
}

// Stats counts audit decisions since the given time
func (s *VerificationStatsService) Stats(ctx context.Context, since time.Time) (*entity.VerificationStats, error) {
	counts, err := s.audits.CountByDecision(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := &entity.VerificationStats{
		Since:     since,
		Decisions: make(map[string]int64, len(counts)),
	}
	for decision, n := range counts {
		stats.Decisions[string(decision)] = n
		stats.Total += n
	}

	assumed := counts[model.DecisionAssumed]
	if settled := assumed + counts[model.DecisionVerified]; settled > 0 {
		stats.AssumedRatio = float64(assumed) / float64(settled)
	}
	return stats, nil
}
