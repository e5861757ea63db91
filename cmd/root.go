package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/calhub/calhub/internal/config"
)

// rootCmd represents the base command for the calhub application
var rootCmd = &cobra.Command{
	Use:   "calhub",
	Short: "Aggregates device, Google and Outlook calendars into one agenda",
	Long: `calhub merges your on-device calendar with Google Calendar and
Outlook into a single date-keyed agenda.

Sign in to the providers you use with "calhub auth login"; providers you
skip simply contribute nothing. A provider outage never hides the others'
events.`,
	SilenceUsage: true,
}

var (
	configPath string
	debugMode  bool
)

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calhub version %s\n" .Version}}`)

	// If no subcommand is provided, run the sync command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "sync")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file (default: ./calhub.toml, then ~/.config/calhub/calhub.toml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newShareCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newInviteCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// loadConfig reads the configuration honoring the --config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

// newLogger builds the process logger honoring the --debug flag.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
