package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/logging"
	"github.com/calhub/calhub/internal/provider"
)

// Store is the platform calendar API the adapter sits on: permission
// dialog, calendar enumeration, calendar creation against a source, and
// window-bounded event access. The local ICS store implements it; tests
// substitute fakes.
type Store interface {
	// RequestAccess shows the platform permission dialog and reports
	// whether the user granted calendar access.
	RequestAccess(ctx context.Context) (bool, error)

	// Calendars enumerates all event calendars in the store.
	Calendars(ctx context.Context) ([]Calendar, error)

	// DefaultSource returns the platform-supplied source new calendars are
	// created against.
	DefaultSource(ctx context.Context) (string, error)

	// CreateCalendar creates a calendar against the given source and
	// returns its ID.
	CreateCalendar(ctx context.Context, title, source string) (string, error)

	// Events returns raw events from the given calendars whose span
	// intersects the window.
	Events(ctx context.Context, calendarIDs []string, window provider.Window) ([]Event, error)

	// CreateEvent stores a new event and returns its ID.
	CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error)
}

type permissionState int

const (
	permissionNotRequested permissionState = iota
	permissionDenied
	permissionGranted
)

// Adapter wraps the device calendar store with permission tracking and
// app-calendar resolution.
type Adapter struct {
	store       Store
	appCalendar string
	logger      *slog.Logger
	metrics     *instrumentation.Metrics

	mu   sync.Mutex
	perm permissionState
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Adapter) { a.metrics = m }
}

// NewAdapter creates an adapter over the given store. appCalendar is the
// display name of the app-owned calendar resolved by EnsureAppCalendar.
func NewAdapter(store Store, appCalendar string, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{
		store:       store,
		appCalendar: appCalendar,
		logger:      logging.WithProvider(logger, provider.Device),
		metrics:     &instrumentation.Metrics{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RequestAccess asks the platform for calendar permission. It returns
// ErrPermissionDenied if the user declines; calling it again later is
// allowed (the user may grant access from settings).
func (a *Adapter) RequestAccess(ctx context.Context) error {
	granted, err := a.store.RequestAccess(ctx)
	if err != nil {
		return &StoreError{Op: "requestAccess", Err: err}
	}

	a.mu.Lock()
	if granted {
		a.perm = permissionGranted
	} else {
		a.perm = permissionDenied
	}
	a.mu.Unlock()

	if !granted {
		a.logger.Warn("calendar access denied", logging.Operation("requestAccess"))
		return ErrPermissionDenied
	}
	return nil
}

// checkPermission distinguishes "never asked" from "asked and declined" so
// the caller can decide whether to prompt or to point at settings.
func (a *Adapter) checkPermission() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.perm {
	case permissionNotRequested:
		return ErrPermissionNotRequested
	case permissionDenied:
		return ErrPermissionDenied
	}
	return nil
}

// ListCalendars enumerates the device calendars. Requires granted
// permission.
func (a *Adapter) ListCalendars(ctx context.Context) ([]Calendar, error) {
	if err := a.checkPermission(); err != nil {
		return nil, err
	}
	calendars, err := a.store.Calendars(ctx)
	if err != nil {
		return nil, &StoreError{Op: "calendars", Err: err}
	}
	return calendars, nil
}

// EnsureAppCalendar resolves the app-owned calendar by name, creating it
// against the platform default source when absent. If creation fails it
// falls back to the first calendar that allows modifications; callers are
// never blocked from adding events merely because creation failed. Only
// when nothing writable exists does it fail, with ErrNoWritableCalendar.
func (a *Adapter) EnsureAppCalendar(ctx context.Context) (string, error) {
	if err := a.checkPermission(); err != nil {
		return "", err
	}

	calendars, err := a.store.Calendars(ctx)
	if err != nil {
		return "", &StoreError{Op: "calendars", Err: err}
	}

	for _, cal := range calendars {
		if cal.Title == a.appCalendar {
			return cal.ID, nil
		}
	}

	id, createErr := a.createAppCalendar(ctx)
	if createErr == nil {
		a.logger.Info("created app calendar",
			logging.Operation("ensureAppCalendar"), logging.CalendarID(id))
		return id, nil
	}

	a.logger.Warn("app calendar creation failed, falling back to writable calendar",
		logging.Operation("ensureAppCalendar"), logging.Err(createErr))

	for _, cal := range calendars {
		if cal.AllowsModifications {
			return cal.ID, nil
		}
	}

	return "", ErrNoWritableCalendar
}

func (a *Adapter) createAppCalendar(ctx context.Context) (string, error) {
	source, err := a.store.DefaultSource(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve default source: %w", err)
	}
	id, err := a.store.CreateCalendar(ctx, a.appCalendar, source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}
	return id, nil
}

// FetchEvents returns raw device events from the given calendars. A zero
// window defaults to one year starting now.
func (a *Adapter) FetchEvents(ctx context.Context, calendarIDs []string, window provider.Window) ([]Event, error) {
	if err := a.checkPermission(); err != nil {
		return nil, err
	}
	if window.Start.IsZero() && window.End.IsZero() {
		window = provider.DefaultWindow(time.Now())
	}

	events, err := a.store.Events(ctx, calendarIDs, window)
	if err != nil {
		return nil, &StoreError{Op: "events", Err: err}
	}
	return events, nil
}

// CreateEvent stores a new event and returns its ID. The cached event list
// is deliberately not refreshed here; callers re-fetch to observe the new
// event. Creation is never retried: there is no client-supplied dedup key,
// so a blind retry risks duplicates.
func (a *Adapter) CreateEvent(ctx context.Context, calendarID string, ev Event) (string, error) {
	if err := a.checkPermission(); err != nil {
		return "", err
	}
	if ev.End.Before(ev.Start) {
		return "", &StoreError{Op: "createEvent", Err: fmt.Errorf("%w: event ends before it starts", ErrCreateFailed)}
	}

	id, err := a.store.CreateEvent(ctx, calendarID, ev)
	if err != nil {
		return "", &StoreError{Op: "createEvent", Err: fmt.Errorf("%w: %v", ErrCreateFailed, err)}
	}

	a.metrics.RecordDeviceEventCreated(ctx)
	a.logger.Info("event created",
		logging.Operation("createEvent"), logging.CalendarID(calendarID))
	return id, nil
}
