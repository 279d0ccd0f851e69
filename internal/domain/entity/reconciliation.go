package entity

import (
	"github.com/google/uuid"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
)

// ReconcileOutcome is the terminal state of one reconciliation run
type ReconcileOutcome string

const (
	OutcomeVerifiedSuccess  ReconcileOutcome = "verified-success"
	OutcomeAssumedSuccess   ReconcileOutcome = "assumed-success"
	OutcomeCanceled         ReconcileOutcome = "canceled"
	OutcomeAlreadyProcessed ReconcileOutcome = "already-processed"
	OutcomeNothingPending   ReconcileOutcome = "nothing-pending"
	// OutcomeDeferred is only produced by gateway notifications that could
	// not be decided yet.
	OutcomeDeferred ReconcileOutcome = "deferred"
)

// IsSuccess reports whether the outcome left the user on a paid plan.
func (o ReconcileOutcome) IsSuccess() bool {
	return o == OutcomeVerifiedSuccess || o == OutcomeAssumedSuccess
}

// RedirectInput is the parsed return-from-gateway redirect.
type RedirectInput struct {
	UserID   uuid.UUID
	Success  bool
	Canceled bool
	TranID   string
	// AlreadyHandled is set when the client session already reconciled TranID.
	AlreadyHandled bool
}

// ReconcileResult is returned to the caller after a redirect is processed.
type ReconcileResult struct {
	Outcome     ReconcileOutcome   `json:"outcome"`
	TranID      string             `json:"tran_id,omitempty"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
	Repairs     int                `json:"repairs"`
	Plan        *UserPlanView      `json:"plan"`
	Message     string             `json:"message"`
}
