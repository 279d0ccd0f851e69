package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func respond(t *testing.T, err error) (int, map[string]string) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, JSON(c, err))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestJSON(t *testing.T) {
	downgrade := NewAppError(ErrFailedPrecondition, "Only an active plan can be downgraded", nil).WithReason("INVALID_DOWNGRADE")

	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"reason", downgrade, http.StatusConflict, "INVALID_DOWNGRADE", "Only an active plan can be downgraded"},
		{"wrapped app error", fmt.Errorf("handler: %w", downgrade), http.StatusConflict, "INVALID_DOWNGRADE", "Only an active plan can be downgraded"},
		{"code without reason", NewAppError(ErrNotFound, "Transaction not found", nil), http.StatusNotFound, ErrNotFound, "Transaction not found"},
		{"plain error is hidden", New("pq: connection reset"), http.StatusInternalServerError, ErrInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := respond(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrTimeout, CodeOf(fmt.Errorf("outer: %w", NewAppError(ErrTimeout, "slow", nil))))
	assert.Equal(t, ErrInternal, CodeOf(New("boom")))
	assert.Equal(t, http.StatusInternalServerError, ToHTTPStatus("UNKNOWN"))
}

func TestLogError_Levels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	LogError(logger, NewAppError(ErrInvalidArgument, "bad", nil), "client")
	LogError(logger, New("boom"), "server")
	LogError(logger, nil, "ignored")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "INVALID_ARGUMENT", entries[0].ContextMap()["error_code"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}
