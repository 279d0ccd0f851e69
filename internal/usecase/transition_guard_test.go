package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
)

func TestTransitionGuard_SettleCompleted(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	userID := uuid.New()
	l.pending(t, "T-1", userID, "pro")

	res, err := l.guard.Settle(ctx, usecase.SettleRequest{
		TranID:   "T-1",
		Status:   model.TransactionStatusCompleted,
		Source:   model.SourceRedirect,
		Decision: model.DecisionVerified,
		Result:   successResult(`{"data": {"payment_status": "success"}}`),
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Empty(t, res.Superseded)

	tx := l.get(t, "T-1")
	assert.Equal(t, model.TransactionStatusCompleted, tx.Status)
	require.NotNil(t, tx.TransactionDate)
	require.NotNil(t, tx.ExpiresAt)
	assert.True(t, testNow.Equal(*tx.TransactionDate))
	assert.True(t, testNow.Add(testPeriod).Equal(*tx.ExpiresAt))
	assert.JSONEq(t, `{"data": {"payment_status": "success"}}`, string(tx.Metadata))

	assert.Equal(t, []model.VerificationDecision{model.DecisionVerified}, l.decisions(t, "T-1"))
	l.publisher.AssertCalled(t, "PublishSettlement", mock.Anything, mock.MatchedBy(func(evt entity.SettlementEvent) bool {
		return evt.TranID == "T-1" && evt.Status == "completed" && evt.Decision == "verified" && evt.UserID == userID.String()
	}))
}

func TestTransitionGuard_SettleIsIdempotent(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.pending(t, "T-1", uuid.New(), "pro")

	first, err := l.guard.Settle(ctx, usecase.SettleRequest{
		TranID:   "T-1",
		Status:   model.TransactionStatusCompleted,
		Source:   model.SourceRedirect,
		Decision: model.DecisionVerified,
	})
	require.NoError(t, err)
	require.True(t, first.Applied)
	before := l.get(t, "T-1")

	for _, status := range []model.TransactionStatus{model.TransactionStatusCompleted, model.TransactionStatusCanceled} {
		again, err := l.guard.WithClock(fixedClock(testNow.Add(time.Hour))).Settle(ctx, usecase.SettleRequest{
			TranID:   "T-1",
			Status:   status,
			Source:   model.SourceWebhook,
			Decision: model.DecisionVerified,
		})
		require.NoError(t, err)
		assert.False(t, again.Applied)
		assert.Equal(t, model.TransactionStatusCompleted, again.Transaction.Status)
	}

	after := l.get(t, "T-1")
	assert.True(t, before.ExpiresAt.Equal(*after.ExpiresAt))
	assert.True(t, before.TransactionDate.Equal(*after.TransactionDate))
	assert.Equal(t, []model.VerificationDecision{
		model.DecisionVerified,
		model.DecisionAlreadySettled,
		model.DecisionAlreadySettled,
	}, l.decisions(t, "T-1"))
	l.publisher.AssertNumberOfCalls(t, "PublishSettlement", 1)
}

func TestTransitionGuard_ConcurrentSettleHasOneWinner(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	l.pending(t, "T-race", uuid.New(), "pro")

	const callers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < callers; i++ {
		status := model.TransactionStatusCompleted
		if i%2 == 1 {
			status = model.TransactionStatusCanceled
		}
		wg.Add(1)
		go func(status model.TransactionStatus) {
			defer wg.Done()
			res, err := l.guard.Settle(ctx, usecase.SettleRequest{
				TranID:   "T-race",
				Status:   status,
				Source:   model.SourceRedirect,
				Decision: model.DecisionVerified,
			})
			if assert.NoError(t, err) && res.Applied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}(status)
	}
	wg.Wait()

	assert.Equal(t, 1, applied)
	assert.True(t, l.get(t, "T-race").Status.IsTerminal())
	l.publisher.AssertNumberOfCalls(t, "PublishSettlement", 1)
	assert.Len(t, l.decisions(t, "T-race"), callers)
}

func TestTransitionGuard_SettleCanceledStripsExpiry(t *testing.T) {
	l := newLedger(t)
	l.pending(t, "T-2", uuid.New(), "basic")

	res, err := l.guard.Settle(context.Background(), usecase.SettleRequest{
		TranID:   "T-2",
		Status:   model.TransactionStatusCanceled,
		Source:   model.SourceRedirect,
		Decision: model.DecisionRejected,
		Result:   successResult(`{"statusCode": 2005}`),
	})
	require.NoError(t, err)
	assert.True(t, res.Applied)

	tx := l.get(t, "T-2")
	assert.Equal(t, model.TransactionStatusCanceled, tx.Status)
	assert.Nil(t, tx.ExpiresAt)
	assert.Nil(t, tx.TransactionDate)
}

func TestTransitionGuard_SupersedesActivePlan(t *testing.T) {
	tests := []struct {
		name            string
		previousPlan    string
		expectedExpires time.Time
	}{
		{
			name:            "same plan carries remaining time over",
			previousPlan:    "pro",
			expectedExpires: testNow.Add(testPeriod + 10*24*time.Hour),
		},
		{
			name:            "different plan starts fresh",
			previousPlan:    "basic",
			expectedExpires: testNow.Add(testPeriod),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			userID := uuid.New()
			l.completed(t, "T-old", userID, tt.previousPlan, testNow.Add(10*24*time.Hour))
			l.pending(t, "T-new", userID, "pro")

			res, err := l.guard.Settle(context.Background(), usecase.SettleRequest{
				TranID:   "T-new",
				Status:   model.TransactionStatusCompleted,
				Source:   model.SourceRedirect,
				Decision: model.DecisionVerified,
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"T-old"}, res.Superseded)

			old := l.get(t, "T-old")
			assert.Equal(t, model.TransactionStatusExpired, old.Status)
			assert.True(t, testNow.Equal(*old.ExpiresAt))
			assert.Equal(t, []model.VerificationDecision{model.DecisionSuperseded}, l.decisions(t, "T-old"))

			current := l.get(t, "T-new")
			assert.True(t, tt.expectedExpires.Equal(*current.ExpiresAt))

			active, err := l.txRepo.ListActiveCompleted(context.Background(), userID, testNow)
			require.NoError(t, err)
			require.Len(t, active, 1)
			assert.Equal(t, "T-new", active[0].TranID)
		})
	}
}

// stalledActiveReads holds the first n active-plan reads until all of them
// have happened, so every settling caller sees the set before any write.
type stalledActiveReads struct {
	repository.TransactionRepository
	mu      sync.Mutex
	reads   int
	n       int
	arrived sync.WaitGroup
}

func newStalledActiveReads(inner repository.TransactionRepository, n int) *stalledActiveReads {
	r := &stalledActiveReads{TransactionRepository: inner, n: n}
	r.arrived.Add(n)
	return r
}

func (r *stalledActiveReads) ListActiveCompleted(ctx context.Context, userID uuid.UUID, now time.Time) ([]*model.Transaction, error) {
	txs, err := r.TransactionRepository.ListActiveCompleted(ctx, userID, now)

	r.mu.Lock()
	read := r.reads
	r.reads++
	r.mu.Unlock()

	if read < r.n {
		r.arrived.Done()
		r.arrived.Wait()
	}
	return txs, err
}

func TestTransitionGuard_ConcurrentCompletionsKeepOneActivePlan(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()
	userID := uuid.New()
	l.pending(t, "T-A", userID, "pro")
	l.pending(t, "T-B", userID, "pro")

	repo := newStalledActiveReads(l.txRepo, 2)
	guard := usecase.NewTransitionGuard(repo, l.audits, l.publisher, l.catalog, zap.NewNop()).WithClock(fixedClock(testNow))

	var wg sync.WaitGroup
	for _, tranID := range []string{"T-A", "T-B"} {
		wg.Add(1)
		go func(tranID string) {
			defer wg.Done()
			res, err := guard.Settle(ctx, usecase.SettleRequest{
				TranID:   tranID,
				Status:   model.TransactionStatusCompleted,
				Source:   model.SourceWebhook,
				Decision: model.DecisionVerified,
			})
			if assert.NoError(t, err) {
				assert.True(t, res.Applied)
			}
		}(tranID)
	}
	wg.Wait()

	active, err := l.txRepo.ListActiveCompleted(ctx, userID, testNow)
	require.NoError(t, err)
	require.Len(t, active, 1)

	loser := "T-A"
	if active[0].TranID == "T-A" {
		loser = "T-B"
	}
	assert.Equal(t, model.TransactionStatusExpired, l.get(t, loser).Status)
	assert.Contains(t, l.decisions(t, loser), model.DecisionSuperseded)
	assert.Equal(t, "pro", l.resolver.Resolve(ctx, userID).Plan)
}

func TestTransitionGuard_SettleErrors(t *testing.T) {
	l := newLedger(t)

	_, err := l.guard.Settle(context.Background(), usecase.SettleRequest{
		TranID: "T-missing",
		Status: model.TransactionStatusCompleted,
	})
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)

	l.pending(t, "T-3", uuid.New(), "pro")
	_, err = l.guard.Settle(context.Background(), usecase.SettleRequest{
		TranID: "T-3",
		Status: model.TransactionStatusExpired,
	})
	assert.Error(t, err)
	assert.Equal(t, model.TransactionStatusPending, l.get(t, "T-3").Status)
}

func TestTransitionGuard_AssumedSuccessIsAuditedDistinctly(t *testing.T) {
	l := newLedger(t)
	l.pending(t, "T-4", uuid.New(), "pro")

	_, err := l.guard.Settle(context.Background(), usecase.SettleRequest{
		TranID:   "T-4",
		Status:   model.TransactionStatusCompleted,
		Source:   model.SourceRedirect,
		Decision: model.DecisionAssumed,
		Result:   networkError(),
	})
	require.NoError(t, err)

	var audit model.VerificationAudit
	require.NoError(t, l.db.Where("tran_id = ?", "T-4").First(&audit).Error)
	assert.Equal(t, model.DecisionAssumed, audit.Decision)
	assert.Equal(t, string(gateway.VerdictIndeterminate), audit.Verdict)
	assert.Contains(t, audit.Error, "connection refused")
}
