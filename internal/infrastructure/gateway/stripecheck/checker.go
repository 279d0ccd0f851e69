// Package stripecheck resolves checkout attempts made through Stripe Checkout.
// The tran_id is the Checkout Session id.
package stripecheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"go.uber.org/zap"
)

const providerName = "stripe"

// Options configures the Stripe checker
type Options struct {
	SecretKey string
	// APIURL overrides the Stripe API base url, used against stripe-mock.
	APIURL  string
	Timeout time.Duration
}

// Checker implements gateway.StatusChecker for Stripe Checkout Sessions
type Checker struct {
	sessions session.Client
	logger   *zap.Logger
}

// NewChecker creates a new Stripe checker. The backend never retries so one
// Check is exactly one API call.
func NewChecker(opts Options, logger *zap.Logger) *Checker {
	logger = logger.Named(providerName)

	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.Sugar(),
	}
	if opts.Timeout > 0 {
		cfg.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.APIURL != "" {
		cfg.URL = stripe.String(opts.APIURL)
	}

	return &Checker{
		sessions: session.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
			Key: opts.SecretKey,
		},
		logger: logger,
	}
}

func (c *Checker) Name() string {
	return providerName
}

// Check looks the session up and maps a finished session's payment_status
// onto the payment_status shape. Open sessions are still in progress and
// therefore indeterminate.
func (c *Checker) Check(ctx context.Context, tranID string) gateway.Result {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := c.sessions.Get(tranID, params)
	if err != nil {
		return gateway.Indeterminate(toCheckError(err), nil)
	}

	payload, _ := json.Marshal(s)

	if s.Status == stripe.CheckoutSessionStatusOpen || s.Status == "" {
		c.logger.Debug("Checkout session still open", zap.String("tran_id", tranID))
		return gateway.Indeterminate(nil, payload)
	}

	paymentStatus := string(s.PaymentStatus)
	if s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
		paymentStatus = string(stripe.CheckoutSessionPaymentStatusPaid)
	}

	result := gateway.Classify(map[string]interface{}{
		"data": map[string]interface{}{"payment_status": paymentStatus},
	})
	result.Payload = payload
	return result
}

func toCheckError(err error) *gateway.CheckError {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		code := gateway.CheckErrAPI
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			code = gateway.CheckErrUpstream
		}
		return &gateway.CheckError{
			Code:       code,
			Message:    stripeErr.Msg,
			Details:    string(stripeErr.Code),
			StatusCode: stripeErr.HTTPStatusCode,
		}
	}
	return &gateway.CheckError{
		Code:    gateway.CheckErrTransport,
		Message: "Stripe request failed",
		Details: err.Error(),
	}
}
