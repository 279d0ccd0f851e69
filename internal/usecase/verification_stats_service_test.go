package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
)

// MockAuditRepository is a mock implementation of VerificationAuditRepository
type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Record(ctx context.Context, audit *model.VerificationAudit) error {
	return m.Called(ctx, audit).Error(0)
}

func (m *MockAuditRepository) ListOpenAssumed(ctx context.Context, cutoff time.Time, limit int) ([]*model.VerificationAudit, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.VerificationAudit), args.Error(1)
}

func (m *MockAuditRepository) CountByDecision(ctx context.Context, since time.Time) (map[model.VerificationDecision]int64, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.VerificationDecision]int64), args.Error(1)
}

func TestVerificationStatsService_Stats(t *testing.T) {
	audits := new(MockAuditRepository)
	since := testNow.Add(-24 * time.Hour)
	audits.On("CountByDecision", mock.Anything, since).Return(map[model.VerificationDecision]int64{
		model.DecisionVerified:       6,
		model.DecisionAssumed:        2,
		model.DecisionAlreadySettled: 4,
	}, nil)

	stats, err := usecase.NewVerificationStatsService(audits, zap.NewNop()).Stats(context.Background(), since)
	require.NoError(t, err)

	assert.Equal(t, int64(12), stats.Total)
	assert.Equal(t, int64(2), stats.Decisions["assumed"])
	assert.InDelta(t, 0.25, stats.AssumedRatio, 1e-9)
	audits.AssertExpectations(t)
}

func TestVerificationStatsService_Empty(t *testing.T) {
	audits := new(MockAuditRepository)
	audits.On("CountByDecision", mock.Anything, mock.Anything).Return(map[model.VerificationDecision]int64{}, nil)

	stats, err := usecase.NewVerificationStatsService(audits, zap.NewNop()).Stats(context.Background(), testNow)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.AssumedRatio)
}

func TestVerificationStatsService_Error(t *testing.T) {
	audits := new(MockAuditRepository)
	audits.On("CountByDecision", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := usecase.NewVerificationStatsService(audits, zap.NewNop()).Stats(context.Background(), testNow)
	assert.Error(t, err)
}
