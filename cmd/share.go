package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calhub/calhub/internal/google"
	"github.com/calhub/calhub/internal/schedule"
	"github.com/calhub/calhub/internal/share"
)

func newShareCmd() *cobra.Command {
	var (
		role   string
		invite bool
		phone  string
	)

	cmd := &cobra.Command{
		Use:   "share <email>",
		Short: "Share your Google calendar with a collaborator",
		Long: `Grant a collaborator access to your primary Google calendar. Requires
a signed-in Google session.

With --invite and --phone, an SMS invite is also sent to the collaborator.
The invite is best-effort: a missing SMS gateway never fails the share.`,
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

			mgr := buildAuthManager(ctx, cfg, logger)
			shares := share.NewManager(mgr, func(ctx context.Context, accessToken string) (share.GoogleSharer, error) {
				return google.NewClient(ctx, accessToken)
			}, logger, share.WithMetrics(metrics))

			grant, err := shares.Grant(ctx, "primary", args[0], schedule.Role(role))
			if err != nil {
				return err
			}
			fmt.Printf("Granted %s access to %s.\n", grant.Role, grant.Email)

			if invite {
				if phone == "" {
					return fmt.Errorf("--invite requires --phone")
				}
				return sendInvite(ctx, cfg, logger, metrics, phone)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(schedule.RoleReader), "Access level to grant: reader, writer or owner")
	cmd.Flags().BoolVar(&invite, "invite", false, "Also send an SMS invite to the collaborator")
	cmd.Flags().StringVar(&phone, "phone", "", "Collaborator phone number for the SMS invite (e.g. +15551234567)")
	return cmd
}
