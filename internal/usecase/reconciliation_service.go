package usecase

import (
	"context"
	"errors"

	"github.com/google/uuid"
	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

var outcomeMessages = map[entity.ReconcileOutcome]string{
	entity.OutcomeVerifiedSuccess:  "Payment confirmed. Your plan is active.",
	entity.OutcomeAssumedSuccess:   "Payment received. Your plan is active while we confirm it with the payment provider.",
	entity.OutcomeCanceled:         "Payment was canceled.",
	entity.OutcomeAlreadyProcessed: "This payment has already been processed.",
	entity.OutcomeNothingPending:   "No pending payment was found.",
}

// ReconciliationService turns a return-from-gateway redirect into at most one
// ledger transition. Steps run strictly in order: check, settle, repair, resolve.
type ReconciliationService struct {
	txRepo   repository.TransactionRepository
	checker  gateway.StatusChecker
	guard    *TransitionGuard
	repair   *PlanRepairService
	resolver *PlanResolver
	logger   *zap.Logger
}

func NewReconciliationService(
	txRepo repository.TransactionRepository,
	checker gateway.StatusChecker,
	guard *TransitionGuard,
	repair *PlanRepairService,
	resolver *PlanResolver,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		txRepo:   txRepo,
		checker:  checker,
		guard:    guard,
		repair:   repair,
		resolver: resolver,
		logger:   logger,
	}
}

func (s *ReconciliationService) Reconcile(ctx context.Context, in entity.RedirectInput) (*entity.ReconcileResult, error) {
	result, err := s.reconcile(ctx, in)
	if err != nil {
		return nil, err
	}

	if in.Success && !in.Canceled {
		repairs, err := s.repair.Repair(ctx, in.UserID)
		if err != nil {
			s.logger.Error("Plan repair after redirect failed",
				zap.String("user_id", in.UserID.String()),
				zap.Error(err))
		}
		result.Repairs = repairs
	}

	result.Plan = s.resolver.Resolve(ctx, in.UserID)
	result.Message = outcomeMessages[result.Outcome]

	s.logger.Info("Redirect reconciled",
		zap.String("user_id", in.UserID.String()),
		zap.String("tran_id", result.TranID),
		zap.String("outcome", string(result.Outcome)),
		zap.Int("repairs", result.Repairs),
		zap.String("plan", result.Plan.Plan))

	return result, nil
}

func (s *ReconciliationService) reconcile(ctx context.Context, in entity.RedirectInput) (*entity.ReconcileResult, error) {
	switch {
	case in.Canceled:
		return &entity.ReconcileResult{Outcome: entity.OutcomeCanceled, TranID: in.TranID}, nil
	case !in.Success:
		return &entity.ReconcileResult{Outcome: entity.OutcomeNothingPending, TranID: in.TranID}, nil
	case in.TranID == "":
		return s.reconcileLatest(ctx, in.UserID)
	case in.AlreadyHandled:
		return &entity.ReconcileResult{Outcome: entity.OutcomeAlreadyProcessed, TranID: in.TranID}, nil
	}

	tx, err := s.ownedTransaction(ctx, in.UserID, in.TranID)
	if err != nil {
		return nil, err
	}
	if tx.Status != model.TransactionStatusPending {
		return &entity.ReconcileResult{Outcome: entity.OutcomeAlreadyProcessed, TranID: tx.TranID, Transaction: tx}, nil
	}

	check := s.checker.Check(ctx, tx.TranID)

	req := SettleRequest{TranID: tx.TranID, Source: model.SourceRedirect, Result: check}
	outcome := entity.OutcomeVerifiedSuccess
	switch check.Verdict {
	case gateway.VerdictSuccess:
		req.Status, req.Decision = model.TransactionStatusCompleted, model.DecisionVerified
	case gateway.VerdictFailure:
		req.Status, req.Decision = model.TransactionStatusCanceled, model.DecisionRejected
		outcome = entity.OutcomeCanceled
	default:
		// the gateway could not be asked; trust the success redirect
		req.Status, req.Decision = model.TransactionStatusCompleted, model.DecisionAssumed
		outcome = entity.OutcomeAssumedSuccess
	}

	return s.settle(ctx, req, outcome)
}

// reconcileLatest handles a success redirect that carried no tran_id.
func (s *ReconciliationService) reconcileLatest(ctx context.Context, userID uuid.UUID) (*entity.ReconcileResult, error) {
	tx, err := s.txRepo.GetLatestPendingOrCompleted(ctx, userID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return &entity.ReconcileResult{Outcome: entity.OutcomeNothingPending}, nil
	}
	if tx.Status != model.TransactionStatusPending {
		return &entity.ReconcileResult{Outcome: entity.OutcomeAlreadyProcessed, TranID: tx.TranID, Transaction: tx}, nil
	}

	return s.settle(ctx, SettleRequest{
		TranID:   tx.TranID,
		Status:   model.TransactionStatusCompleted,
		Source:   model.SourceRedirectFallback,
		Decision: model.DecisionAssumed,
		Result:   gateway.Result{Verdict: gateway.VerdictIndeterminate},
	}, entity.OutcomeAssumedSuccess)
}

func (s *ReconciliationService) settle(ctx context.Context, req SettleRequest, outcome entity.ReconcileOutcome) (*entity.ReconcileResult, error) {
	settled, err := s.guard.Settle(ctx, req)
	if err != nil {
		return nil, err
	}
	if !settled.Applied {
		outcome = entity.OutcomeAlreadyProcessed
	}
	return &entity.ReconcileResult{
		Outcome:     outcome,
		TranID:      req.TranID,
		Transaction: settled.Transaction,
	}, nil
}

func (s *ReconciliationService) ownedTransaction(ctx context.Context, userID uuid.UUID, tranID string) (*model.Transaction, error) {
	tx, err := loadOwned(ctx, s.txRepo, userID, tranID)
	if errors.Is(err, domainErrors.ErrNotOwner) {
		s.logger.Warn("Redirect for a transaction owned by another user",
			zap.String("tran_id", tranID),
			zap.String("user_id", userID.String()))
	}
	return tx, err
}
