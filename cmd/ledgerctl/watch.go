package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/bootstrap"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/messaging"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream settlement events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				sub, err := messaging.NewSubscriber(&app.Config.Messaging, app.Redis, app.Logger)
				if err != nil {
					return err
				}
				defer sub.Close()

				ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
				defer stop()

				events, err := sub.Subscribe(ctx)
				if err != nil {
					return err
				}

				fmt.Fprintln(cmd.ErrOrStderr(), "Watching settlement events, press Ctrl+C to stop")
				for evt := range events {
					if err := printJSON(cmd.OutOrStdout(), evt); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}
