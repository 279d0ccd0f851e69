package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/payment-reconciler/internal/config"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/model"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/bootstrap"
)

const testConfig = `
service:
  name: payment
database:
  driver: sqlite
  path: %s
gateway:
  provider: checkapi
  base_url: http://127.0.0.1:1
  timeout: 1s
messaging:
  driver: none
plans:
  catalog:
    - name: pro
      period: 720h
      amount: "15.00"
      currency: USD
`

// writeConfig writes a sqlite config and seeds one active pro transaction.
func writeConfig(t *testing.T) (path string, userID uuid.UUID) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "payment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(testConfig, filepath.Join(dir, "ledger.db"))), 0o600))

	cfg, err := config.Parse([]byte(fmt.Sprintf(testConfig, filepath.Join(dir, "ledger.db"))))
	require.NoError(t, err)
	app, err := bootstrap.New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	userID = uuid.New()
	now := time.Now()
	expires := now.Add(10 * 24 * time.Hour)
	require.NoError(t, app.Repos.Transaction.Create(context.Background(), &model.Transaction{
		TranID:          "T-cli",
		UserID:          userID,
		Plan:            "pro",
		Amount:          decimal.RequireFromString("15.00"),
		Currency:        "USD",
		Status:          model.TransactionStatusCompleted,
		TransactionDate: &now,
		ExpiresAt:       &expires,
	}))
	return path, userID
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestResolve(t *testing.T) {
	path, userID := writeConfig(t)

	out, err := run(t, "--config", path, "resolve", "--user", userID.String())
	require.NoError(t, err)

	var view map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "pro", view["plan"])
	assert.Equal(t, true, view["has_access"])
}

func TestDowngrade(t *testing.T) {
	path, userID := writeConfig(t)

	out, err := run(t, "--config", path, "downgrade", "--user", userID.String(), "--tran-id", "T-cli")
	require.NoError(t, err)
	assert.Contains(t, out, `"plan": "free"`)

	_, err = run(t, "--config", path, "downgrade", "--user", userID.String(), "--tran-id", "T-cli")
	assert.Error(t, err)
}

func TestAuditStats(t *testing.T) {
	path, _ := writeConfig(t)

	out, err := run(t, "--config", path, "audit-stats", "--since", "1h")
	require.NoError(t, err)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.EqualValues(t, 0, stats["total"])
}

func TestFlagValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"resolve without user", []string{"resolve"}, "--user is required"},
		{"resolve bad user", []string{"resolve", "--user", "nope"}, "invalid --user"},
		{"repair without target", []string{"repair"}, "exactly one of --user or --all"},
		{"repair with both", []string{"repair", "--all", "--user", uuid.NewString()}, "exactly one of --user or --all"},
		{"reverify negative", []string{"reverify", "--older-than=-1h"}, "must not be negative"},
		{"audit-stats zero", []string{"audit-stats", "--since", "0s"}, "--since must be positive"},
		{"downgrade without tran", []string{"downgrade", "--user", uuid.NewString()}, "--tran-id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
