package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the normalized outcome of a gateway status check
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictFailure Verdict = "failure"
	// VerdictIndeterminate means the check neither confirmed nor denied the
	// payment. It must never be handled as a failure.
	VerdictIndeterminate Verdict = "indeterminate"
)

// StatusChecker asks the gateway about one transaction. Implementations do
// not retry and never return a Go error: transport problems are reported as
// an indeterminate Result carrying Err.
type StatusChecker interface {
	Check(ctx context.Context, tranID string) Result
	Name() string
}

// Result of classifying a gateway response
type Result struct {
	Verdict Verdict
	// MatchedShape is the shape that decided the verdict, empty when none did.
	MatchedShape string
	// AttemptedShapes lists the shapes evaluated, in priority order.
	AttemptedShapes []string
	// Payload is the raw gateway body, kept as transaction metadata.
	Payload json.RawMessage
	Err     error
}

// Attempted returns AttemptedShapes as a comma separated string for logs.
func (r Result) Attempted() string {
	return strings.Join(r.AttemptedShapes, ",")
}

// ErrorString returns the error text or an empty string.
func (r Result) ErrorString() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Indeterminate builds the result of a check that could not be completed.
func Indeterminate(err error, payload json.RawMessage) Result {
	return Result{Verdict: VerdictIndeterminate, Err: err, Payload: payload}
}

// CheckError describes why a status check could not produce a verdict
type CheckError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
}

func (e *CheckError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	CheckErrRequest   = "REQUEST_ERROR"
	CheckErrTransport = "TRANSPORT_ERROR"
	CheckErrUpstream  = "UPSTREAM_ERROR"
	CheckErrResponse  = "RESPONSE_ERROR"
	CheckErrParse     = "PARSE_ERROR"
	CheckErrAPI       = "API_ERROR"
)
