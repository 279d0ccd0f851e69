package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/bootstrap"
)

type planOutput struct {
	*entity.UserPlanView
	HasAccess bool `json:"has_access"`
}

func resolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print the effective plan of a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				view := app.Services.Resolver.Resolve(ctx, userID)
				return printJSON(cmd.OutOrStdout(), planOutput{UserPlanView: view, HasAccess: view.HasAccess()})
			})
		},
	}

	cmd.Flags().StringP("user", "u", "", "User ID")
	return cmd
}

func repairCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Rewrite cached plan entries that disagree with the ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, _ := cmd.Flags().GetBool("all")
			raw, _ := cmd.Flags().GetString("user")
			if all == (raw != "") {
				return fmt.Errorf("exactly one of --user or --all is required")
			}

			if all {
				return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
					users, repairs, err := app.Services.Repair.RepairAll(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), map[string]int{"users": users, "repairs": repairs})
				})
			}

			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				repairs, err := app.Services.Repair.Repair(ctx, userID)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]int{"repairs": repairs})
			})
		},
	}

	cmd.Flags().StringP("user", "u", "", "User ID")
	cmd.Flags().Bool("all", false, "Repair every user with an active transaction")
	return cmd
}

func reverifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reverify",
		Short: "Re-check assumed successes against the gateway",
		Long: `Re-check transactions that were settled on a trusted redirect while the
gateway was unreachable. Each one is recorded as reconfirmed, disputed or
unverifiable in the audit trail. The ledger itself is not changed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			olderThan, _ := cmd.Flags().GetDuration("older-than")
			tolerance, _ := cmd.Flags().GetDuration("tolerance")
			if olderThan < 0 || tolerance < 0 {
				return fmt.Errorf("durations must not be negative")
			}

			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				report, err := app.Services.Reverify.Reverify(ctx, olderThan, tolerance)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}

	cmd.Flags().Duration("older-than", time.Hour, "Only re-check assumed successes at least this old")
	cmd.Flags().Duration("tolerance", 0, "Age after which an indeterminate check is unverifiable (0 uses gateway.assumed_tolerance)")
	return cmd
}

func auditStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit-stats",
		Short: "Summarise verification decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			since, _ := cmd.Flags().GetDuration("since")
			if since <= 0 {
				return fmt.Errorf("--since must be positive")
			}

			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				stats, err := app.Services.Stats.Stats(ctx, time.Now().Add(-since))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), stats)
			})
		},
	}

	cmd.Flags().Duration("since", 24*time.Hour, "Window to summarise")
	return cmd
}

func downgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "downgrade",
		Short: "Expire a completed transaction immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userFlag(cmd)
			if err != nil {
				return err
			}
			tranID, _ := cmd.Flags().GetString("tran-id")
			if tranID == "" {
				return fmt.Errorf("--tran-id is required")
			}

			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				tx, err := app.Services.Renewals.DowngradeToFree(ctx, userID, tranID)
				if err != nil {
					return err
				}
				view := app.Services.Resolver.Resolve(ctx, userID)
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"transaction": tx,
					"plan":        planOutput{UserPlanView: view, HasAccess: view.HasAccess()},
				})
			})
		},
	}

	cmd.Flags().StringP("user", "u", "", "Owner user ID")
	cmd.Flags().String("tran-id", "", "Transaction ID")
	return cmd
}
