package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/calhub/calhub/internal/device"
	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/schedule"
	"github.com/calhub/calhub/internal/server"
	"github.com/calhub/calhub/internal/syncer"
)

func newSyncCmd() *cobra.Command {
	var (
		watch       bool
		metricsAddr string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Merge all signed-in calendars into one agenda",
		Long: `Fetch events from the device calendar and every signed-in remote
provider, merge them into a date-keyed agenda, and print the upcoming
events. Providers that fail are reported and skipped; their outage never
hides the other providers' events.

With --watch, calhub keeps running and repeats the sync on the schedule
configured in calhub.toml, exposing Prometheus metrics while it runs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return runWatch(metricsAddr, limit)
			}
			return runSyncOnce(limit)
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and sync on the configured schedule")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Address for the Prometheus metrics endpoint in watch mode")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of upcoming events to print (0 prints all)")
	return cmd
}

func runSyncOnce(limit int) error {
	ctx := context.Background()
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mgr := buildAuthManager(ctx, cfg, logger)
	adapter, err := buildDeviceAdapter(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open device calendar: %w", err)
	}

	res, err := buildSyncer(cfg, mgr, adapter, logger).Run(ctx)
	if err != nil {
		return err
	}
	printResult(res, limit)
	return nil
}

func runWatch(metricsAddr string, limit int) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	instrProvider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		if err := instrProvider.Shutdown(context.Background()); err != nil {
			log.Printf("Error during instrumentation shutdown: %v", err)
		}
	}()

	var metricsServer *server.MetricsServer
	if instrProvider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsAddr,
			InstrumentationProvider: instrProvider,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Metrics server stopped: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				log.Printf("Error during metrics server shutdown: %v", err)
			}
		}()
	}

	mgr := buildAuthManager(shutdownCtx, cfg, logger)
	adapter, err := buildDeviceAdapter(shutdownCtx, cfg, logger,
		device.WithMetrics(instrProvider.Metrics()))
	if err != nil {
		return fmt.Errorf("failed to open device calendar: %w", err)
	}
	s := buildSyncer(cfg, mgr, adapter, logger,
		syncer.WithMetrics(instrProvider.Metrics()))

	runCycle := func() {
		res, err := s.Run(shutdownCtx)
		if err != nil {
			log.Printf("Sync cycle aborted: %v", err)
			return
		}
		printResult(res, limit)
	}

	// One cycle immediately, then on the configured schedule.
	runCycle()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Sync.WatchSchedule, runCycle); err != nil {
		return fmt.Errorf("invalid watch schedule %q: %w", cfg.Sync.WatchSchedule, err)
	}
	scheduler.Start()

	fmt.Printf("Watching calendars on schedule %q, metrics on %s. Press Ctrl+C to stop.\n",
		cfg.Sync.WatchSchedule, metricsAddr)
	<-shutdownCtx.Done()

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(server.DefaultShutdownTimeout):
		log.Printf("Timed out waiting for running sync to finish")
	}
	return nil
}

// printResult renders the upcoming agenda and any provider failures.
func printResult(res *syncer.Result, limit int) {
	now := time.Now()
	upcoming := schedule.Upcoming(res.Agenda, now, limit)

	if len(upcoming) == 0 {
		fmt.Println("No upcoming events.")
	}
	for _, ev := range upcoming {
		when := ev.Start.Format("Mon Jan 2 15:04")
		if ev.AllDay {
			when = ev.Start.Format("Mon Jan 2") + " (all day)"
		}
		fmt.Printf("%-24s %-50s [%s, in %d days]\n", when, ev.Title, ev.Provider, schedule.DaysUntil(ev, now))
	}

	for _, p := range res.Skipped {
		fmt.Fprintf(os.Stderr, "note: %s skipped, not signed in\n", p)
	}
	for p, err := range res.Failures {
		fmt.Fprintf(os.Stderr, "warning: %s failed: %v\n", p, err)
	}
}
