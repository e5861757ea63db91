package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/logging"
	"github.com/calhub/calhub/internal/provider"
	"github.com/calhub/calhub/internal/schedule"
)

// TokenSource reports the current access token for a provider. The auth
// Manager satisfies it.
type TokenSource interface {
	AccessToken(p provider.Provider) (string, bool)
}

// Result is the outcome of one sync cycle. A cycle is partial-failure
// tolerant: providers that errored appear in Failures while everyone
// else's events still land in the Agenda.
type Result struct {
	Agenda        schedule.Agenda
	Sources       []schedule.Source
	Contributions []schedule.Contribution

	// Skipped lists remote providers that held no usable token when the
	// cycle started. Skipping is not failure.
	Skipped []provider.Provider

	// Failures maps each failed provider to its error.
	Failures map[provider.Provider]error
}

// OK reports whether every attempted branch succeeded.
func (r *Result) OK() bool {
	return len(r.Failures) == 0
}

// Syncer runs sync cycles: one goroutine per signed-in remote provider
// plus the device branch, all bounded by a per-cycle timeout.
type Syncer struct {
	tokens  TokenSource
	device  DeviceFetcher
	remotes []RemoteFetcher
	window  func(now time.Time) provider.Window
	timeout time.Duration
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithDevice attaches the device calendar branch.
func WithDevice(f DeviceFetcher) Option {
	return func(s *Syncer) { s.device = f }
}

// WithRemote attaches a remote provider branch. The branch only runs in
// cycles where its provider holds a token.
func WithRemote(f RemoteFetcher) Option {
	return func(s *Syncer) { s.remotes = append(s.remotes, f) }
}

// WithWindow overrides the aggregation window computed per cycle.
func WithWindow(fn func(now time.Time) provider.Window) Option {
	return func(s *Syncer) { s.window = fn }
}

// WithTimeout bounds each provider branch within a cycle.
func WithTimeout(d time.Duration) Option {
	return func(s *Syncer) { s.timeout = d }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

// New creates a Syncer. tokens supplies per-provider access tokens at
// cycle time, so sessions established after construction are picked up.
func New(tokens TokenSource, logger *slog.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Syncer{
		tokens:  tokens,
		window:  provider.DefaultWindow,
		timeout: 30 * time.Second,
		logger:  logger,
		metrics: &instrumentation.Metrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one sync cycle and returns its Result. The returned error
// is non-nil only when the surrounding context was cancelled; provider
// failures are reported in Result.Failures instead.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	window := s.window(started)

	ctx, span := instrumentation.StartSyncSpan(ctx)
	defer span.End()

	cycleCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := &Result{Failures: make(map[provider.Provider]error)}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	record := func(p provider.Provider, fetch Fetch, err error, took time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			res.Failures[p] = err
			s.metrics.RecordProviderFetch(ctx, string(p), instrumentation.StatusError, took)
			logging.WithProvider(logging.WithOperation(s.logger, "sync"), p).
				Warn("provider fetch failed", logging.Status(logging.StatusError), logging.Err(err))
			return
		}
		res.Contributions = append(res.Contributions, fetch.Contribution)
		res.Sources = append(res.Sources, fetch.Sources...)
		s.metrics.RecordProviderFetch(ctx, string(p), instrumentation.StatusSuccess, took)
		logging.WithProvider(logging.WithOperation(s.logger, "sync"), p).
			Debug("provider fetch complete",
				slog.Int("events", len(fetch.Contribution.Events)),
				logging.Status(logging.StatusSuccess))
	}

	if s.device != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			branchStart := time.Now()
			fetch, err := s.device.Fetch(cycleCtx, window)
			record(provider.Device, fetch, err, time.Since(branchStart))
		}()
	}

	for _, remote := range s.remotes {
		p := remote.Provider()
		token, ok := s.tokens.AccessToken(p)
		if !ok {
			res.Skipped = append(res.Skipped, p)
			s.metrics.RecordProviderFetch(ctx, string(p), instrumentation.StatusSkipped, 0)
			logging.WithProvider(logging.WithOperation(s.logger, "sync"), p).
				Debug("provider skipped, not signed in", logging.Status(logging.StatusSkipped))
			continue
		}

		wg.Add(1)
		go func(remote RemoteFetcher, p provider.Provider, token string) {
			defer wg.Done()
			branchStart := time.Now()
			spanCtx, fetchSpan := instrumentation.StartProviderSpan(cycleCtx, string(p), "fetch")
			fetch, err := remote.Fetch(spanCtx, token, window)
			if err != nil {
				instrumentation.SetSpanError(fetchSpan, err)
			} else {
				fetchSpan.SetAttributes(attribute.Int(instrumentation.SpanAttrEventCount,
					len(fetch.Contribution.Events)))
				instrumentation.SetSpanSuccess(fetchSpan)
			}
			fetchSpan.End()
			record(p, fetch, err, time.Since(branchStart))
		}(remote, p, token)
	}

	wg.Wait()

	res.Agenda = schedule.BuildAgenda(res.Contributions)

	status := instrumentation.StatusSuccess
	if !res.OK() {
		status = instrumentation.StatusError
	}
	s.metrics.RecordSyncCycle(ctx, status, time.Since(started))
	logging.WithOperation(s.logger, "sync").Info("cycle complete",
		slog.Int("events", res.Agenda.Len()),
		slog.Int("failures", len(res.Failures)),
		slog.Duration(logging.KeyDuration, time.Since(started)))

	return res, ctx.Err()
}
