package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/calhub/calhub/internal/config"
	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/sms"
)

func newInviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <phone>",
		Short: "Send an SMS invite to a collaborator",
		Long: `Send the calhub invite text to a phone number via the configured SMS
gateway (termux-sms-send by default). On hosts without the gateway the
invite is skipped silently.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			metrics, flushMetrics := buildMetrics(ctx, logger)
			defer flushMetrics()

			return sendInvite(ctx, cfg, logger, metrics, args[0])
		},
	}
}

func sendInvite(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *instrumentation.Metrics, phone string) error {
	gateway := sms.NewGateway(cfg.SMS.Command, logger, sms.WithMetrics(metrics))
	if err := gateway.SendInvite(ctx, phone); err != nil {
		return err
	}
	if gateway.Available() {
		fmt.Printf("Invite sent to %s.\n", phone)
	} else {
		fmt.Printf("SMS gateway %q not available, invite skipped.\n", cfg.SMS.Command)
	}
	return nil
}
