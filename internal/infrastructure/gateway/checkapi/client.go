// Package checkapi asks a transaction check endpoint for the status of a
// checkout attempt.
package checkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"go.uber.org/zap"
)

const (
	providerName   = "checkapi"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Options configures the check API client
type Options struct {
	BaseURL       string
	CheckPath     string
	StoreID       string
	StorePassword string
	Timeout       time.Duration
}

// Client implements gateway.StatusChecker against the check API
type Client struct {
	url           string
	storeID       string
	storePassword string
	client        *http.Client
	logger        *zap.Logger
}

// NewClient creates a new check API client
func NewClient(opts Options, logger *zap.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:           strings.TrimRight(opts.BaseURL, "/") + "/" + strings.TrimLeft(opts.CheckPath, "/"),
		storeID:       opts.StoreID,
		storePassword: opts.StorePassword,
		client:        &http.Client{Timeout: timeout},
		logger:        logger.Named(providerName),
	}
}

func (c *Client) Name() string {
	return providerName
}

// Check performs exactly one status request. Anything short of a readable
// 2xx JSON object yields an indeterminate result.
// POST {base_url}{check_path}
func (c *Client) Check(ctx context.Context, tranID string) gateway.Result {
	jsonBody, err := json.Marshal(map[string]string{"tran_id": tranID})
	if err != nil {
		return gateway.Indeterminate(&gateway.CheckError{
			Code:    gateway.CheckErrRequest,
			Message: "Failed to prepare request",
			Details: err.Error(),
		}, nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(jsonBody))
	if err != nil {
		return gateway.Indeterminate(&gateway.CheckError{
			Code:    gateway.CheckErrRequest,
			Message: "Failed to create request",
			Details: err.Error(),
		}, nil)
	}

	if c.storeID != "" {
		httpReq.SetBasicAuth(c.storeID, c.storePassword)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Warn("Status check request failed",
			zap.String("tran_id", tranID),
			zap.Error(err))
		return gateway.Indeterminate(&gateway.CheckError{
			Code:    gateway.CheckErrTransport,
			Message: "Check API request failed",
			Details: err.Error(),
		}, nil)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gateway.Indeterminate(&gateway.CheckError{
			Code:       gateway.CheckErrResponse,
			Message:    "Failed to read response",
			Details:    err.Error(),
			StatusCode: resp.StatusCode,
		}, nil)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		c.logger.Warn("Check API unavailable",
			zap.String("tran_id", tranID),
			zap.Int("status_code", resp.StatusCode))
		return gateway.Indeterminate(&gateway.CheckError{
			Code:       gateway.CheckErrUpstream,
			Message:    "Check API returned a server error",
			Details:    string(respBody),
			StatusCode: resp.StatusCode,
		}, respBody)
	}

	// A rejected request says nothing about the payment itself.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("Check API rejected status request",
			zap.String("tran_id", tranID),
			zap.Int("status_code", resp.StatusCode),
			zap.String("response", string(respBody)))
		return gateway.Indeterminate(&gateway.CheckError{
			Code:       gateway.CheckErrAPI,
			Message:    fmt.Sprintf("Check API responded with %d", resp.StatusCode),
			Details:    string(respBody),
			StatusCode: resp.StatusCode,
		}, respBody)
	}

	result := gateway.ClassifyJSON(respBody)

	c.logger.Debug("Status check classified",
		zap.String("tran_id", tranID),
		zap.String("verdict", string(result.Verdict)),
		zap.String("matched_shape", result.MatchedShape))

	return result
}
