package usecase_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
)

func TestTransactionService_Register(t *testing.T) {
	l := newLedger(t)
	svc := usecase.NewTransactionService(l.txRepo, l.catalog, zap.NewNop())
	ctx := context.Background()
	userID := uuid.New()

	tx, err := svc.Register(ctx, userID, usecase.RegisterRequest{
		TranID: "T-1",
		Plan:   "pro",
	})
	require.NoError(t, err)

	assert.Equal(t, model.TransactionStatusPending, tx.Status)
	assert.True(t, decimal.RequireFromString("15.00").Equal(tx.Amount))
	assert.Equal(t, "USD", tx.Currency)
	assert.Empty(t, tx.Metadata)

	stored, err := svc.Get(ctx, userID, "T-1")
	require.NoError(t, err)
	assert.Equal(t, "pro", stored.Plan)

	_, err = svc.Register(ctx, userID, usecase.RegisterRequest{TranID: "T-1", Plan: "pro"})
	assert.ErrorIs(t, err, domainErrors.ErrDuplicateTransaction)
}

func TestTransactionService_RegisterGeneratesTranID(t *testing.T) {
	l := newLedger(t)
	svc := usecase.NewTransactionService(l.txRepo, l.catalog, zap.NewNop())

	tx, err := svc.Register(context.Background(), uuid.New(), usecase.RegisterRequest{
		Plan:     "pro-annual",
		Amount:   decimal.RequireFromString("120.00"),
		Currency: "eur",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(tx.TranID)
	assert.NoError(t, err)
	assert.Equal(t, "EUR", tx.Currency)
	assert.True(t, decimal.RequireFromString("120").Equal(tx.Amount))
}

func TestTransactionService_RegisterValidation(t *testing.T) {
	l := newLedger(t)
	svc := usecase.NewTransactionService(l.txRepo, l.catalog, zap.NewNop())

	tests := []struct {
		name string
		req  usecase.RegisterRequest
		err  error
	}{
		{name: "unknown plan", req: usecase.RegisterRequest{Plan: "enterprise"}, err: domainErrors.ErrUnknownPlan},
		{name: "price mismatch", req: usecase.RegisterRequest{Plan: "pro", Amount: decimal.RequireFromString("1.00")}, err: domainErrors.ErrInvalidAmount},
		{name: "negative amount", req: usecase.RegisterRequest{Plan: "pro-annual", Amount: decimal.RequireFromString("-1")}, err: domainErrors.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), uuid.New(), tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestTransactionService_GetOwnership(t *testing.T) {
	l := newLedger(t)
	svc := usecase.NewTransactionService(l.txRepo, l.catalog, zap.NewNop())
	owner := uuid.New()
	l.pending(t, "T-1", owner, "pro")

	_, err := svc.Get(context.Background(), uuid.New(), "T-1")
	assert.ErrorIs(t, err, domainErrors.ErrNotOwner)

	_, err = svc.Get(context.Background(), owner, "nope")
	assert.ErrorIs(t, err, domainErrors.ErrTransactionNotFound)
}
