package model

import (
	"time"

	"github.com/google/uuid"
)

// VerificationSource identifies which trigger asked for a settlement
type VerificationSource string

const (
	SourceRedirect         VerificationSource = "redirect"
	SourceRedirectFallback VerificationSource = "redirect-fallback"
	SourceWebhook          VerificationSource = "webhook"
	SourceReverify         VerificationSource = "reverify"
	SourceOperator         VerificationSource = "operator"
)

// VerificationDecision is what the engine concluded from a verification attempt
type VerificationDecision string

const (
	DecisionVerified       VerificationDecision = "verified"
	DecisionAssumed        VerificationDecision = "assumed"
	DecisionRejected       VerificationDecision = "rejected"
	DecisionMetadataHint   VerificationDecision = "metadata-hint"
	DecisionAlreadySettled VerificationDecision = "already-settled"
	DecisionDeferred       VerificationDecision = "deferred"
	DecisionReconfirmed    VerificationDecision = "reconfirmed"
	DecisionDisputed       VerificationDecision = "disputed"
	DecisionUnverifiable   VerificationDecision = "unverifiable"
	DecisionDowngraded     VerificationDecision = "downgraded"
	DecisionSuperseded     VerificationDecision = "superseded"
)

// IsReverifyConclusion reports whether the decision closes an assumed success.
func (d VerificationDecision) IsReverifyConclusion() bool {
	return d == DecisionReconfirmed || d == DecisionDisputed || d == DecisionUnverifiable
}

// VerificationAudit is an append-only record of every verification and
// settlement decision, used to audit assumed versus verified successes.
type VerificationAudit struct {
	ID              int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	TranID          string               `gorm:"column:tran_id;size:128;not null;index" json:"tran_id"`
	UserID          *uuid.UUID           `gorm:"type:uuid" json:"user_id,omitempty"`
	Source          VerificationSource   `gorm:"size:32;not null" json:"source"`
	Verdict         string               `gorm:"size:16;not null" json:"verdict"`
	Decision        VerificationDecision `gorm:"size:32;not null;index" json:"decision"`
	MatchedShape    string               `gorm:"size:64" json:"matched_shape,omitempty"`
	AttemptedShapes string               `gorm:"size:255" json:"attempted_shapes,omitempty"`
	Error           string               `gorm:"type:text" json:"error,omitempty"`
	CreatedAt       time.Time            `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (VerificationAudit) TableName() string {
	return "verification_audits"
}
