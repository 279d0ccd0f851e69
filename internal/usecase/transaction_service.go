package usecase

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

// RegisterRequest describes a checkout attempt about to be sent to the gateway
type RegisterRequest struct {
	// TranID is generated when empty.
	TranID    string
	Plan      string
	Amount    decimal.Decimal
	Currency  string
	AutoRenew bool
}

// TransactionService registers pending checkout attempts and reads them back
type TransactionService struct {
	txRepo  repository.TransactionRepository
	catalog *entity.PlanCatalog
	logger  *zap.Logger
}

func NewTransactionService(txRepo repository.TransactionRepository, catalog *entity.PlanCatalog, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		txRepo:  txRepo,
		catalog: catalog,
		logger:  logger,
	}
}

// Register creates a pending transaction for a catalog plan. Metadata is left
// empty; only gateway payloads are stored there. The amount must
// match the list price when the catalog has one; a zero amount takes it.
func (s *TransactionService) Register(ctx context.Context, userID uuid.UUID, req RegisterRequest) (*model.Transaction, error) {
	spec, ok := s.catalog.Lookup(req.Plan)
	if !ok {
		return nil, domainErrors.ErrUnknownPlan
	}

	amount := req.Amount
	if spec.Amount != nil {
		if amount.IsZero() {
			amount = *spec.Amount
		} else if !amount.Equal(*spec.Amount) {
			return nil, domainErrors.ErrInvalidAmount
		}
	}
	if amount.IsNegative() {
		return nil, domainErrors.ErrInvalidAmount
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = spec.Currency
	}

	tranID := req.TranID
	if tranID == "" {
		tranID = uuid.NewString()
	}

	tx := &model.Transaction{
		TranID:    tranID,
		UserID:    userID,
		Plan:      spec.Name,
		Amount:    amount,
		Currency:  currency,
		Status:    model.TransactionStatusPending,
		AutoRenew: req.AutoRenew,
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Pending transaction registered",
		zap.String("tran_id", tx.TranID),
		zap.String("user_id", userID.String()),
		zap.String("plan", tx.Plan),
		zap.String("amount", tx.Amount.StringFixed(2)))

	return tx, nil
}

// Get returns a transaction owned by the user
func (s *TransactionService) Get(ctx context.Context, userID uuid.UUID, tranID string) (*model.Transaction, error) {
	return loadOwned(ctx, s.txRepo, userID, tranID)
}

func loadOwned(ctx context.Context, txRepo repository.TransactionRepository, userID uuid.UUID, tranID string) (*model.Transaction, error) {
	tx, err := txRepo.Get(ctx, tranID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domainErrors.ErrTransactionNotFound
	}
	if tx.UserID != userID {
		return nil, domainErrors.ErrNotOwner
	}
	return tx, nil
}
