package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calhub/calhub/internal/auth"
	"github.com/calhub/calhub/internal/google"
	"github.com/calhub/calhub/internal/provider"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider sign-in sessions",
	}
	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	return cmd
}

func parseProviderArg(arg string) (provider.Provider, error) {
	p := provider.Provider(arg)
	if !p.Valid() || p == provider.Device {
		return "", fmt.Errorf("unknown provider %q (expected google, outlook or apple)", arg)
	}
	return p, nil
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <provider>",
		Short: "Sign in to a calendar provider",
		Long: `Run the provider's interactive sign-in flow. Google and Outlook print
a consent URL and read the authorization code back from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProviderArg(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			logger := newLogger()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			metrics, flushMetrics := buildMetrics(ctx, logger)
			defer flushMetrics()

			mgr := buildAuthManager(ctx, cfg, logger, auth.WithMetrics(metrics))
			if token, ok := mgr.AccessToken(p); ok && token != "" {
				fmt.Printf("Already signed in to %s.\n", p)
				return nil
			}

			session, err := mgr.SignIn(ctx, p)
			if err != nil {
				return fmt.Errorf("sign-in failed: %w", err)
			}

			who := session.Identity.Email
			if who == "" && p == provider.Google {
				// The Google flow yields only tokens; resolve the profile
				// for display.
				if token, ok := mgr.AccessToken(p); ok {
					if client, err := google.NewClient(ctx, token); err == nil {
						if profile, err := client.Me(ctx); err == nil {
							who = profile.Email
						}
					}
				}
			}
			if who != "" {
				fmt.Printf("Signed in to %s as %s.\n", p, who)
			} else {
				fmt.Printf("Signed in to %s.\n", p)
			}
			return nil
		},
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <provider>",
		Short: "Sign out of a calendar provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseProviderArg(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			mgr := buildAuthManager(ctx, cfg, newLogger())
			if err := mgr.SignOut(ctx, p); err != nil {
				return err
			}
			fmt.Printf("Signed out of %s.\n", p)
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state of every provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			mgr := buildAuthManager(ctx, cfg, newLogger())
			for _, p := range []provider.Provider{provider.Google, provider.Outlook, provider.Apple} {
				session := mgr.Session(p)
				line := fmt.Sprintf("%-8s %s", p, session.State)
				if session.Identity.Email != "" {
					line += " (" + session.Identity.Email + ")"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
