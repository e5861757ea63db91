// Package share grants collaborators access to remote calendars.
//
// Only Google supports sharing today; the Manager validates everything it
// can locally (authentication, email syntax, role) before any network
// call is made.
package share

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/logging"
	"github.com/calhub/calhub/internal/provider"
	"github.com/calhub/calhub/internal/schedule"
)

var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrInvalidEmail     = errors.New("invalid collaborator email")
	ErrInvalidRole      = errors.New("invalid sharing role")
)

// RequestError wraps a grant that was rejected remotely.
type RequestError struct {
	CalendarID string
	Email      string
	Err        error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("sharing %s with %s: %v", e.CalendarID, logging.AnonymizeEmail(e.Email), e.Err)
}

// Unwrap implements the errors.Unwrap interface.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// GoogleSharer inserts an access-control entry on a Google calendar.
// *google.Client satisfies it.
type GoogleSharer interface {
	ShareCalendar(ctx context.Context, calendarID, email string, role schedule.Role) (*schedule.ShareGrant, error)
}

// TokenSource reports the current access token for a provider. The auth
// Manager satisfies it.
type TokenSource interface {
	AccessToken(p provider.Provider) (string, bool)
}

// Manager validates and submits share grants.
type Manager struct {
	tokens  TokenSource
	sharers func(ctx context.Context, accessToken string) (GoogleSharer, error)
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// NewManager builds a Manager. newSharer constructs a Google client for
// the given access token; it is a factory so each grant uses the token
// current at call time.
func NewManager(tokens TokenSource, newSharer func(ctx context.Context, accessToken string) (GoogleSharer, error), logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{tokens: tokens, sharers: newSharer, logger: logger, metrics: &instrumentation.Metrics{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Grant shares calendarID with email at the given role. Validation
// failures and a missing Google session are reported before any request
// leaves the process.
func (m *Manager) Grant(ctx context.Context, calendarID, email string, role schedule.Role) (*schedule.ShareGrant, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEmail, err)
	}

	tok, ok := m.tokens.AccessToken(provider.Google)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotAuthenticated, provider.Google)
	}

	sharer, err := m.sharers(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("building sharing client: %w", err)
	}

	log := logging.WithProvider(logging.WithOperation(m.logger, "share"), provider.Google)
	grant, err := sharer.ShareCalendar(ctx, calendarID, addr.Address, role)
	if err != nil {
		m.metrics.RecordShareRequest(ctx, string(role), instrumentation.StatusError)
		log.Error("share request failed",
			logging.CalendarID(calendarID),
			logging.Status(logging.StatusError),
			logging.Err(err))
		return nil, &RequestError{CalendarID: calendarID, Email: addr.Address, Err: err}
	}

	m.metrics.RecordShareRequest(ctx, string(role), instrumentation.StatusSuccess)
	log.Info("calendar shared",
		logging.CalendarID(calendarID),
		slog.String(logging.KeyUserHash, logging.AnonymizeEmail(addr.Address)),
		logging.Status(logging.StatusSuccess))
	return grant, nil
}
