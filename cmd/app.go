package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	oauth2google "golang.org/x/oauth2/google"
	calendar_v3 "google.golang.org/api/calendar/v3"

	"github.com/calhub/calhub/internal/auth"
	"github.com/calhub/calhub/internal/config"
	"github.com/calhub/calhub/internal/device"
	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/logging"
	"github.com/calhub/calhub/internal/provider"
	"github.com/calhub/calhub/internal/syncer"
)

// googleScopes grants calendar read/write (needed for sharing) plus the
// email claim used for display.
var googleScopes = []string{
	calendar_v3.CalendarScope,
	"https://www.googleapis.com/auth/userinfo.email",
}

// outlookScopes grants Graph calendar access plus refresh tokens.
var outlookScopes = []string{
	"offline_access",
	"User.Read",
	"Calendars.Read",
}

// buildMetrics initializes the env-configured instrumentation and returns
// its recorder plus a flush func for the command to defer. Initialization
// failure degrades to the no-op recorder; a CLI command never fails on
// telemetry.
func buildMetrics(ctx context.Context, logger *slog.Logger) (*instrumentation.Metrics, func()) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	instrProvider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		logger.Warn("instrumentation init failed, metrics disabled", logging.Err(err))
		return &instrumentation.Metrics{}, func() {}
	}
	return instrProvider.Metrics(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = instrProvider.Shutdown(shutdownCtx)
	}
}

// buildAuthManager registers a flow for every provider the config holds
// credentials for and silently resumes cached sessions.
func buildAuthManager(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...auth.Option) *auth.Manager {
	m := auth.NewManager(logger, opts...)

	if cfg.Google.ClientID != "" {
		flow := &auth.GoogleFlow{
			Config: &oauth2.Config{
				ClientID:     cfg.Google.ClientID,
				ClientSecret: cfg.Google.ClientSecret,
				Endpoint:     oauth2google.Endpoint,
				RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
				Scopes:       googleScopes,
			},
			Authorizer: promptForCode,
		}
		if cache, err := auth.DefaultTokenCache("google"); err == nil {
			flow.Cache = cache
		}
		m.Register(provider.Google, flow)
	}

	if cfg.Outlook.ClientID != "" {
		flow := auth.NewOutlookFlow(cfg.Outlook.ClientID, cfg.Outlook.TenantID,
			cfg.Outlook.RedirectURI, outlookScopes)
		flow.Authorizer = promptForCode
		m.Register(provider.Outlook, flow)
	}

	// No Apple bridge on this platform: the flow reports unavailable.
	m.Register(provider.Apple, &auth.AppleFlow{})

	m.SignInSilently(ctx, provider.Google)
	return m
}

// promptForCode prints the consent URL and reads the code back from stdin.
func promptForCode(ctx context.Context, authURL string) (string, error) {
	fmt.Printf("Open this URL in your browser and authorize calhub:\n\n  %s\n\nEnter the authorization code: ", authURL)

	type answer struct {
		code string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		ch <- answer{strings.TrimSpace(line), err}
	}()

	select {
	case a := <-ch:
		if a.err != nil {
			return "", fmt.Errorf("reading authorization code: %w", a.err)
		}
		return a.code, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// buildDeviceAdapter opens the local calendar store and requests access.
func buildDeviceAdapter(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...device.Option) (*device.Adapter, error) {
	store := device.NewLocalStore(cfg.Device.StorePath)
	adapter := device.NewAdapter(store, cfg.Device.AppCalendar, logger, opts...)
	if err := adapter.RequestAccess(ctx); err != nil {
		return nil, err
	}
	return adapter, nil
}

// buildSyncer wires the device and remote branches into a Syncer.
func buildSyncer(cfg *config.Config, mgr *auth.Manager, adapter *device.Adapter, logger *slog.Logger, opts ...syncer.Option) *syncer.Syncer {
	windowDays := cfg.Sync.WindowDays
	all := append([]syncer.Option{
		syncer.WithDevice(&syncer.AdapterFetcher{Adapter: adapter}),
		syncer.WithRemote(&syncer.GoogleFetcher{}),
		syncer.WithRemote(&syncer.OutlookFetcher{}),
		syncer.WithWindow(func(now time.Time) provider.Window {
			return provider.Window{Start: now, End: now.AddDate(0, 0, windowDays)}
		}),
		syncer.WithTimeout(cfg.ProviderTimeoutDuration()),
	}, opts...)
	return syncer.New(mgr, logger, all...)
}
