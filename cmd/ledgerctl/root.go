package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/wekeepgrowing/payment-reconciler/internal/config"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/bootstrap"
	"github.com/wekeepgrowing/payment-reconciler/pkg/logger"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Inspect and repair the payment transaction ledger",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path != "" {
				return os.Setenv("CONFIG_PATH", path)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (defaults to CONFIG_PATH or ./configs/payment.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log at debug level to stderr")

	rootCmd.AddCommand(resolveCmd())
	rootCmd.AddCommand(repairCmd())
	rootCmd.AddCommand(reverifyCmd())
	rootCmd.AddCommand(auditStatsCmd())
	rootCmd.AddCommand(downgradeCmd())
	rootCmd.AddCommand(watchCmd())

	return rootCmd
}

// withApp loads the configuration, wires the application and runs fn with it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	zapLogger, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	app, err := bootstrap.New(cfg, zapLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	return fn(cmd.Context(), app)
}

// newLogger keeps stdout for command output.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	logCfg := cfg.Log
	logCfg.Output = "stderr"
	logCfg.Format = "console"
	logCfg.Level = "warn"
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logCfg.Level = "debug"
	}
	return logger.NewZapLogger(logCfg)
}

func userFlag(cmd *cobra.Command) (uuid.UUID, error) {
	raw, _ := cmd.Flags().GetString("user")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("--user is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --user %q: %w", raw, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
