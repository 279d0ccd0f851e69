package entity

import "time"

// VerificationStats summarises audit decisions since a point in time.
type VerificationStats struct {
	Since     time.Time        `json:"since"`
	Total     int64            `json:"total"`
	Decisions map[string]int64 `json:"decisions"`
	// AssumedRatio is assumed / (assumed + verified), zero when both are zero.
	AssumedRatio float64 `json:"assumed_ratio"`
}

// ReverifyReport summarises one re-verification sweep.
type ReverifyReport struct {
	Checked      int `json:"checked"`
	Reconfirmed  int `json:"reconfirmed"`
	Disputed     int `json:"disputed"`
	Unverifiable int `json:"unverifiable"`
	Pending      int `json:"pending"`
}

// SettlementEvent is published after a transaction reaches a terminal state.
type SettlementEvent struct {
	TranID    string    `json:"tran_id"`
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	Decision  string    `json:"decision"`
	Source    string    `json:"source"`
	SettledAt time.Time `json:"settled_at"`
}
