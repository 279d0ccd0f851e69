package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	domainErrors "github.com/wekeepgrowing/payment-reconciler/internal/domain/errors"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/event"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// SettleRequest asks the guard to move a pending transaction to a terminal state
type SettleRequest struct {
	TranID   string
	Status   model.TransactionStatus
	Source   model.VerificationSource
	Decision model.VerificationDecision
	// Result is the gateway evidence behind the decision.
	Result gateway.Result
}

// SettleResult reports what the guard did
type SettleResult struct {
	Transaction *model.Transaction
	// Applied is false when another caller settled the transaction first.
	Applied bool
	// Superseded lists tran_ids force expired because this completion replaced them.
	Superseded []string
}

// TransitionGuard is the only writer of transaction status. Every transition
// is a conditional write, so concurrent callers for the same tran_id produce
// exactly one winner.
type TransitionGuard struct {
	txRepo    repository.TransactionRepository
	audits    repository.VerificationAuditRepository
	publisher event.SettlementPublisher
	catalog   *entity.PlanCatalog
	logger    *zap.Logger
	now       Clock
}

func NewTransitionGuard(
	txRepo repository.TransactionRepository,
	audits repository.VerificationAuditRepository,
	publisher event.SettlementPublisher,
	catalog *entity.PlanCatalog,
	logger *zap.Logger,
) *TransitionGuard {
	return &TransitionGuard{
		txRepo:    txRepo,
		audits:    audits,
		publisher: publisher,
		catalog:   catalog,
		logger:    logger,
		now:       utcNow,
	}
}

func (g *TransitionGuard) WithClock(now Clock) *TransitionGuard {
	g.now = now
	return g
}

// Settle applies a completed or canceled transition.
func (g *TransitionGuard) Settle(ctx context.Context, req SettleRequest) (*SettleResult, error) {
	if req.Status != model.TransactionStatusCompleted && req.Status != model.TransactionStatusCanceled {
		return nil, fmt.Errorf("cannot settle transaction to status %q", req.Status)
	}

	tx, err := g.txRepo.Get(ctx, req.TranID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domainErrors.ErrTransactionNotFound
	}

	now := g.now()
	effects := repository.TransitionEffects{Metadata: metadataFrom(req.Result.Payload)}

	var active []*model.Transaction
	if req.Status == model.TransactionStatusCompleted {
		active, err = g.txRepo.ListActiveCompleted(ctx, tx.UserID, now)
		if err != nil {
			return nil, err
		}

		expiresAt := now.Add(g.catalog.Period(tx.Plan) + carryOver(active, tx, now))
		effects.TransactionDate = &now
		effects.ExpiresAt = &expiresAt
	}

	settled, applied, err := g.txRepo.ApplyTransition(ctx, req.TranID, req.Status, effects)
	if err != nil {
		return nil, err
	}

	if !applied {
		g.logger.Info("Transaction already settled",
			zap.String("tran_id", req.TranID),
			zap.String("status", string(settled.Status)),
			zap.String("source", string(req.Source)))
		g.record(ctx, settled, req.Source, model.DecisionAlreadySettled, req.Result)
		return &SettleResult{Transaction: settled}, nil
	}

	result := &SettleResult{Transaction: settled, Applied: true}

	if req.Status == model.TransactionStatusCompleted {
		g.supersede(ctx, result, req.Source, now)
	}

	fields := []zap.Field{
		zap.String("tran_id", settled.TranID),
		zap.String("user_id", settled.UserID.String()),
		zap.String("status", string(settled.Status)),
		zap.String("source", string(req.Source)),
		zap.String("decision", string(req.Decision)),
		zap.String("verdict", string(req.Result.Verdict)),
		zap.String("attempted_shapes", req.Result.Attempted()),
	}
	if req.Decision == model.DecisionAssumed {
		g.logger.Warn("Completed transaction on assumed success",
			append(fields, zap.String("error", req.Result.ErrorString()))...)
	} else {
		g.logger.Info("Transaction settled", fields...)
	}

	g.record(ctx, settled, req.Source, req.Decision, req.Result)
	g.publish(ctx, settled, req.Source, req.Decision, now)

	return result, nil
}

// supersede leaves the user with a single active record. The active set is
// read after the write, so two completions racing for the same user both
// converge on the newest record.
func (g *TransitionGuard) supersede(ctx context.Context, result *SettleResult, source model.VerificationSource, now time.Time) {
	settled := result.Transaction

	active, err := g.txRepo.ListActiveCompleted(ctx, settled.UserID, now)
	if err != nil {
		g.logger.Error("Failed to list active transactions for supersession",
			zap.String("tran_id", settled.TranID),
			zap.Error(err))
		return
	}
	if len(active) < 2 {
		return
	}

	sort.SliceStable(active, func(i, j int) bool {
		return newer(active[i], active[j])
	})
	keep := active[0]

	for _, other := range active[1:] {
		expired, ok, err := g.expire(ctx, other.TranID, now, source, model.DecisionSuperseded)
		if err != nil {
			g.logger.Error("Failed to supersede previous transaction",
				zap.String("tran_id", other.TranID),
				zap.String("superseded_by", keep.TranID),
				zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		result.Superseded = append(result.Superseded, other.TranID)
		if other.TranID == settled.TranID {
			result.Transaction = expired
		}
	}
}

// newer orders records by transaction date, then creation time, then tran_id.
func newer(a, b *model.Transaction) bool {
	if da, db := dateOf(a), dateOf(b); !da.Equal(db) {
		return da.After(db)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.TranID > b.TranID
}

func dateOf(tx *model.Transaction) time.Time {
	if tx.TransactionDate == nil {
		return time.Time{}
	}
	return *tx.TransactionDate
}

// Expire force expires a completed transaction at the current time. It is
// used by the forced downgrade; applied is false when the record was not
// completed.
func (g *TransitionGuard) Expire(ctx context.Context, tranID string, source model.VerificationSource, decision model.VerificationDecision) (*model.Transaction, bool, error) {
	return g.expire(ctx, tranID, g.now(), source, decision)
}

func (g *TransitionGuard) expire(ctx context.Context, tranID string, at time.Time, source model.VerificationSource, decision model.VerificationDecision) (*model.Transaction, bool, error) {
	tx, applied, err := g.txRepo.ForceExpire(ctx, tranID, at)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		return tx, false, nil
	}

	g.logger.Info("Transaction expired",
		zap.String("tran_id", tx.TranID),
		zap.String("user_id", tx.UserID.String()),
		zap.String("decision", string(decision)))

	g.record(ctx, tx, source, decision, gateway.Result{})
	g.publish(ctx, tx, source, decision, at)
	return tx, true, nil
}

// record appends the audit row. Audit failures never undo a settlement.
func (g *TransitionGuard) record(ctx context.Context, tx *model.Transaction, source model.VerificationSource, decision model.VerificationDecision, res gateway.Result) {
	userID := tx.UserID
	audit := &model.VerificationAudit{
		TranID:          tx.TranID,
		UserID:          &userID,
		Source:          source,
		Verdict:         string(res.Verdict),
		Decision:        decision,
		MatchedShape:    res.MatchedShape,
		AttemptedShapes: res.Attempted(),
		Error:           res.ErrorString(),
	}
	if err := g.audits.Record(ctx, audit); err != nil {
		g.logger.Error("Failed to record verification audit",
			zap.String("tran_id", tx.TranID),
			zap.String("decision", string(decision)),
			zap.Error(err))
	}
}

func (g *TransitionGuard) publish(ctx context.Context, tx *model.Transaction, source model.VerificationSource, decision model.VerificationDecision, at time.Time) {
	evt := entity.SettlementEvent{
		TranID:    tx.TranID,
		UserID:    tx.UserID.String(),
		Plan:      tx.Plan,
		Status:    string(tx.Status),
		Decision:  string(decision),
		Source:    string(source),
		SettledAt: at,
	}
	if err := g.publisher.PublishSettlement(ctx, evt); err != nil {
		g.logger.Warn("Failed to publish settlement event",
			zap.String("tran_id", tx.TranID),
			zap.Error(err))
	}
}

// carryOver sums the remaining time of active records on the same plan.
func carryOver(active []*model.Transaction, tx *model.Transaction, now time.Time) time.Duration {
	var total time.Duration
	for _, other := range active {
		if other.TranID == tx.TranID || other.Plan != tx.Plan || other.ExpiresAt == nil {
			continue
		}
		if remaining := other.ExpiresAt.Sub(now); remaining > 0 {
			total += remaining
		}
	}
	return total
}

func metadataFrom(payload json.RawMessage) datatypes.JSON {
	if len(payload) == 0 || !json.Valid(payload) {
		return nil
	}
	return datatypes.JSON(payload)
}
