package usecase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
)

const signaturePrefix = "sha256="

// NotificationService settles transactions from gateway server-to-server
// notifications. Unlike the redirect it never trusts an undecided outcome;
// the notification is deferred so the gateway delivers it again.
type NotificationService struct {
	txRepo  repository.TransactionRepository
	audits  repository.VerificationAuditRepository
	checker gateway.StatusChecker
	guard   *TransitionGuard
	secret  []byte
	logger  *zap.Logger
}

func NewNotificationService(
	txRepo repository.TransactionRepository,
	audits repository.VerificationAuditRepository,
	checker gateway.StatusChecker,
	guard *TransitionGuard,
	webhookSecret string,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		txRepo:  txRepo,
		audits:  audits,
		checker: checker,
		guard:   guard,
		secret:  []byte(webhookSecret),
		logger:  logger,
	}
}

// VerifySignature checks the hex HMAC-SHA256 of the body. Without a
// configured secret every notification is rejected.
func (s *NotificationService) VerifySignature(body []byte, signature string) error {
	if len(s.secret) == 0 {
		return domainErrors.ErrInvalidSignature
	}

	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(signature), signaturePrefix))
	if err != nil || len(got) == 0 {
		return domainErrors.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return domainErrors.ErrInvalidSignature
	}
	return nil
}

// Handle verifies and settles one notification.
func (s *NotificationService) Handle(ctx context.Context, body []byte, signature string) (*entity.ReconcileResult, error) {
	if err := s.VerifySignature(body, signature); err != nil {
		s.logger.Warn("Rejected gateway notification with invalid signature")
		return nil, err
	}

	tranID := notificationTranID(body)
	if tranID == "" {
		return nil, domainErrors.ErrMissingTranID
	}

	tx, err := s.txRepo.Get(ctx, tranID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domainErrors.ErrTransactionNotFound
	}
	if tx.Status != model.TransactionStatusPending {
		return &entity.ReconcileResult{Outcome: entity.OutcomeAlreadyProcessed, TranID: tranID, Transaction: tx}, nil
	}

	result := gateway.ClassifyJSON(body)
	decision := model.DecisionVerified

	if result.Verdict == gateway.VerdictIndeterminate {
		result = s.checker.Check(ctx, tranID)
	}
	if result.Verdict == gateway.VerdictIndeterminate && len(tx.Metadata) > 0 {
		if hint := gateway.ClassifyJSON(tx.Metadata); hint.Verdict == gateway.VerdictSuccess {
			result = hint
			decision = model.DecisionMetadataHint
		}
	}

	req := SettleRequest{TranID: tranID, Source: model.SourceWebhook, Result: result, Decision: decision}
	outcome := entity.OutcomeVerifiedSuccess

	switch result.Verdict {
	case gateway.VerdictSuccess:
		req.Status = model.TransactionStatusCompleted
	case gateway.VerdictFailure:
		req.Status, req.Decision = model.TransactionStatusCanceled, model.DecisionRejected
		outcome = entity.OutcomeCanceled
	default:
		s.deferNotification(ctx, tx, result)
		return &entity.ReconcileResult{Outcome: entity.OutcomeDeferred, TranID: tranID, Transaction: tx}, nil
	}

	settled, err := s.guard.Settle(ctx, req)
	if err != nil {
		return nil, err
	}
	if !settled.Applied {
		outcome = entity.OutcomeAlreadyProcessed
	}

	return &entity.ReconcileResult{Outcome: outcome, TranID: tranID, Transaction: settled.Transaction}, nil
}

func (s *NotificationService) deferNotification(ctx context.Context, tx *model.Transaction, result gateway.Result) {
	s.logger.Warn("Deferred gateway notification without a decisive status",
		zap.String("tran_id", tx.TranID),
		zap.String("attempted_shapes", result.Attempted()),
		zap.String("error", result.ErrorString()))

	userID := tx.UserID
	err := s.audits.Record(ctx, &model.VerificationAudit{
		TranID:          tx.TranID,
		UserID:          &userID,
		Source:          model.SourceWebhook,
		Verdict:         string(result.Verdict),
		Decision:        model.DecisionDeferred,
		AttemptedShapes: result.Attempted(),
		Error:           result.ErrorString(),
	})
	if err != nil {
		s.logger.Error("Failed to record verification audit",
			zap.String("tran_id", tx.TranID),
			zap.Error(err))
	}
}

// notificationTranID reads tran_id from the top level or the data object.
func notificationTranID(body []byte) string {
	var envelope map[string]interface{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if id, ok := envelope["tran_id"].(string); ok && id != "" {
		return id
	}
	if data, ok := envelope["data"].(map[string]interface{}); ok {
		id, _ := data["tran_id"].(string)
		return id
	}
	return ""
}
