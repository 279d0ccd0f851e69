package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/payment-reconciler/internal/config"
	"go.uber.org/zap"
)

func TestMigrate_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "ledger.db"),
	}

	db, err := NewConnection(cfg, zap.NewNop())
	require.NoError(t, err)
	defer Close(db, zap.NewNop())

	require.NoError(t, Migrate(db, zap.NewNop()))
	// migrations are re-runnable
	require.NoError(t, Migrate(db, zap.NewNop()))

	assert.True(t, db.Migrator().HasTable("transactions"))
	assert.True(t, db.Migrator().HasTable("verification_audits"))
	assert.True(t, db.Migrator().HasIndex("transactions", "idx_transactions_user_pending"))
	assert.True(t, db.Migrator().HasIndex("transactions", "idx_transactions_user_status"))
}

func TestDialector_UnsupportedDriver(t *testing.T) {
	_, err := Dialector(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)

	d, err := Dialector(&config.DatabaseConfig{Driver: config.DriverMySQL, Host: "db", Port: 3306, Name: "payment"})
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())
}
