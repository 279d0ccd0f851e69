package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
)

func (l *ledger) assumedAt(t *testing.T, tranID string, at time.Time) {
	t.Helper()
	userID := uuid.New()
	require.NoError(t, l.audits.Record(context.Background(), &model.VerificationAudit{
		TranID:    tranID,
		UserID:    &userID,
		Source:    model.SourceRedirect,
		Verdict:   "indeterminate",
		Decision:  model.DecisionAssumed,
		CreatedAt: at,
	}))
}

func TestReverifyService_Reverify(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	l.assumedAt(t, "T-ok", testNow.Add(-2*time.Hour))
	l.assumedAt(t, "T-bad", testNow.Add(-3*time.Hour))
	l.assumedAt(t, "T-old", testNow.Add(-100*time.Hour))
	l.assumedAt(t, "T-young", testNow.Add(-5*time.Hour))
	l.assumedAt(t, "T-recent", testNow.Add(-10*time.Minute))

	l.checker.On("Check", mock.Anything, "T-ok").Return(successResult(`{"statusCode": 1000}`))
	l.checker.On("Check", mock.Anything, "T-bad").Return(successResult(`{"statusCode": 4004}`))
	l.checker.On("Check", mock.Anything, "T-old").Return(networkError())
	l.checker.On("Check", mock.Anything, "T-young").Return(networkError())

	svc := usecase.NewReverifyService(l.audits, l.checker, 72*time.Hour, zap.NewNop()).WithClock(fixedClock(testNow))

	report, err := svc.Reverify(ctx, time.Hour, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Checked)
	assert.Equal(t, 1, report.Reconfirmed)
	assert.Equal(t, 1, report.Disputed)
	assert.Equal(t, 1, report.Unverifiable)
	assert.Equal(t, 1, report.Pending)

	assert.Equal(t, []model.VerificationDecision{model.DecisionAssumed, model.DecisionReconfirmed}, l.decisions(t, "T-ok"))
	assert.Equal(t, []model.VerificationDecision{model.DecisionAssumed, model.DecisionDisputed}, l.decisions(t, "T-bad"))
	assert.Equal(t, []model.VerificationDecision{model.DecisionAssumed, model.DecisionUnverifiable}, l.decisions(t, "T-old"))
	assert.Equal(t, []model.VerificationDecision{model.DecisionAssumed}, l.decisions(t, "T-young"))
	l.checker.AssertNotCalled(t, "Check", mock.Anything, "T-recent")

	// concluded entries are not checked again
	report, err = svc.Reverify(ctx, time.Hour, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.Pending)
}

func TestReverifyService_ToleranceOverride(t *testing.T) {
	l := newLedger(t)
	l.assumedAt(t, "T-1", testNow.Add(-5*time.Hour))
	l.checker.On("Check", mock.Anything, "T-1").Return(networkError())

	svc := usecase.NewReverifyService(l.audits, l.checker, 72*time.Hour, zap.NewNop()).WithClock(fixedClock(testNow))

	report, err := svc.Reverify(context.Background(), time.Hour, 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Unverifiable)
}

func TestReverifyService_NeverTouchesLedger(t *testing.T) {
	l := newLedger(t)
	userID := uuid.New()
	l.completed(t, "T-1", userID, "pro", testNow.Add(testPeriod))
	l.assumedAt(t, "T-1", testNow.Add(-2*time.Hour))
	l.checker.On("Check", mock.Anything, "T-1").Return(successResult(`{"statusCode": 9999}`))

	svc := usecase.NewReverifyService(l.audits, l.checker, 72*time.Hour, zap.NewNop()).WithClock(fixedClock(testNow))

	report, err := svc.Reverify(context.Background(), time.Hour, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Disputed)

	assert.Equal(t, model.TransactionStatusCompleted, l.get(t, "T-1").Status)
	assert.Equal(t, "pro", l.resolver.Resolve(context.Background(), userID).Plan)
}
