package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/logging"
	"github.com/calhub/calhub/internal/provider"
)

// Flow performs an interactive sign-in for one provider. Implementations
// block until the user completes or abandons the consent step; ctx
// cancellation aborts the flow.
type Flow interface {
	SignIn(ctx context.Context) (Credentials, error)
}

// SilentFlow resumes a previously established session without user
// interaction. Flows that cannot resume return ErrNoPriorSession.
type SilentFlow interface {
	SignInSilently(ctx context.Context) (Credentials, error)
}

// CodeExchanger completes a sign-in from an externally obtained
// authorization code, e.g. one delivered by a redirect the caller captured.
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code, verifier string) (Credentials, error)
}

// RevokeFlow tears down provider-side state on sign-out. Revocation
// failures are logged and otherwise ignored: local sign-out always wins.
type RevokeFlow interface {
	Revoke(ctx context.Context, creds Credentials) error
}

// Manager owns one auth session per provider and serializes interactive
// sign-ins so a provider never has two flows racing. All methods are safe
// for concurrent use.
type Manager struct {
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu       sync.Mutex
	flows    map[provider.Provider]Flow
	sessions map[provider.Provider]*Session
	inFlight map[provider.Provider]bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// NewManager creates a Manager with no registered flows. Every provider
// starts signed out.
func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		logger:   logger,
		metrics:  &instrumentation.Metrics{},
		flows:    make(map[provider.Provider]Flow),
		sessions: make(map[provider.Provider]*Session),
		inFlight: make(map[provider.Provider]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register installs the sign-in flow for a provider, replacing any
// previous one. Registering while that provider's sign-in is in flight is
// a caller bug; the running flow keeps its old implementation.
func (m *Manager) Register(p provider.Provider, f Flow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows[p] = f
}

// SignIn runs the provider's interactive flow and, on success, replaces
// the provider's session. A concurrent sign-in for the same provider is
// rejected with ErrInProgress. Cancellation or failure leaves the existing
// session untouched.
func (m *Manager) SignIn(ctx context.Context, p provider.Provider) (Session, error) {
	flow, err := m.begin(p, "signIn")
	if err != nil {
		return m.Session(p), err
	}
	defer m.end(p)

	log := logging.WithProvider(logging.WithOperation(m.logger, "signIn"), p)

	creds, err := flow.SignIn(ctx)
	if err != nil {
		err = m.classify(ctx, p, "signIn", err)
		m.metrics.RecordAuthAttempt(ctx, string(p), authResult(err))
		log.Info("sign-in failed", logging.Status(logging.StatusError), logging.Err(err))
		return m.Session(p), err
	}

	s := m.commit(p, creds)
	m.metrics.RecordAuthAttempt(ctx, string(p), instrumentation.AuthResultSuccess)
	log.Info("sign-in complete",
		logging.Status(logging.StatusSuccess),
		slog.String(logging.KeyUserHash, logging.AnonymizeEmail(creds.Identity.Email)))
	return s, nil
}

// SignInSilently attempts a non-interactive resume of the provider's
// session. Failures are swallowed: they are logged and the previous
// session state is kept, so callers can fire this at startup without
// error handling. Returns the resulting session snapshot.
func (m *Manager) SignInSilently(ctx context.Context, p provider.Provider) Session {
	flow, err := m.begin(p, "signInSilently")
	if err != nil {
		return m.Session(p)
	}
	defer m.end(p)

	log := logging.WithProvider(logging.WithOperation(m.logger, "signInSilently"), p)

	silent, ok := flow.(SilentFlow)
	if !ok {
		log.Debug("silent sign-in not supported", logging.Status(logging.StatusSkipped))
		return m.Session(p)
	}

	creds, err := silent.SignInSilently(ctx)
	if err != nil {
		if errors.Is(err, ErrNoPriorSession) {
			log.Debug("no prior session to resume", logging.Status(logging.StatusSkipped))
		} else {
			log.Warn("silent sign-in failed", logging.Status(logging.StatusError), logging.Err(err))
		}
		return m.Session(p)
	}

	s := m.commit(p, creds)
	log.Info("session resumed",
		logging.Status(logging.StatusSuccess),
		slog.String(logging.KeyUserHash, logging.AnonymizeEmail(creds.Identity.Email)))
	return s
}

// ExchangeAuthorizationCode completes a sign-in from an authorization code
// the caller obtained out of band. verifier is the PKCE code verifier that
// produced the challenge in the authorization request; pass "" for
// providers that do not use PKCE.
func (m *Manager) ExchangeAuthorizationCode(ctx context.Context, p provider.Provider, code, verifier string) (Session, error) {
	flow, err := m.begin(p, "exchange")
	if err != nil {
		return m.Session(p), err
	}
	defer m.end(p)

	ex, ok := flow.(CodeExchanger)
	if !ok {
		return m.Session(p), &Error{Provider: p, Op: "exchange", Err: ErrUnavailable}
	}

	creds, err := ex.ExchangeCode(ctx, code, verifier)
	if err != nil {
		err = m.classify(ctx, p, "exchange", err)
		m.metrics.RecordAuthAttempt(ctx, string(p), authResult(err))
		return m.Session(p), err
	}
	m.metrics.RecordAuthAttempt(ctx, string(p), instrumentation.AuthResultSuccess)
	return m.commit(p, creds), nil
}

// AccessToken returns the provider's current access token. The second
// return is false when the provider is signed out, identity-only, or the
// token has expired; expiry flips the session state to Expired.
func (m *Manager) AccessToken(p provider.Provider) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[p]
	if !ok || s.State != SignedIn || s.Token == nil {
		return "", false
	}
	if !s.Token.Expiry.IsZero() && !s.Token.Expiry.After(time.Now()) {
		s.State = Expired
		return "", false
	}
	return s.Token.AccessToken, true
}

// SignOut discards the provider's session. Provider-side revocation is
// attempted when the flow supports it, but its failure never blocks the
// local sign-out. Signing out an already signed-out provider is a no-op.
func (m *Manager) SignOut(ctx context.Context, p provider.Provider) error {
	m.mu.Lock()
	s := m.sessions[p]
	flow := m.flows[p]
	delete(m.sessions, p)
	m.mu.Unlock()

	if s == nil {
		return nil
	}

	if rf, ok := flow.(RevokeFlow); ok {
		if err := rf.Revoke(ctx, Credentials{Identity: s.Identity, Token: s.Token}); err != nil {
			logging.WithProvider(logging.WithOperation(m.logger, "signOut"), p).
				Warn("revocation failed", logging.Err(err))
		}
	}
	return nil
}

// Session returns a snapshot of the provider's session. Providers with no
// session report SignedOut; a provider with a sign-in in flight reports
// SigningIn over its committed state.
func (m *Manager) Session(p provider.Provider) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight[p] {
		return Session{Provider: p, State: SigningIn}
	}
	s, ok := m.sessions[p]
	if !ok {
		return Session{Provider: p, State: SignedOut}
	}
	return *s
}

// SignedIn lists the remote providers that currently hold a usable token,
// in stable order.
func (m *Manager) SignedIn() []provider.Provider {
	var out []provider.Provider
	for _, p := range []provider.Provider{provider.Google, provider.Outlook, provider.Apple} {
		if _, ok := m.AccessToken(p); ok {
			out = append(out, p)
		}
	}
	return out
}

// begin claims the provider's in-flight slot and resolves its flow.
func (m *Manager) begin(p provider.Provider, op string) (Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight[p] {
		return nil, &Error{Provider: p, Op: op, Err: ErrInProgress}
	}
	flow, ok := m.flows[p]
	if !ok {
		return nil, &Error{Provider: p, Op: op, Err: ErrUnavailable}
	}
	m.inFlight[p] = true
	return flow, nil
}

func (m *Manager) end(p provider.Provider) {
	m.mu.Lock()
	delete(m.inFlight, p)
	m.mu.Unlock()
}

func (m *Manager) commit(p provider.Provider, creds Credentials) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &Session{Provider: p, Identity: creds.Identity, Token: creds.Token, State: SignedIn}
	m.sessions[p] = s
	return *s
}

// authResult maps a classified sign-in error to its metric label.
func authResult(err error) string {
	if errors.Is(err, ErrCancelled) {
		return instrumentation.AuthResultCancelled
	}
	return instrumentation.AuthResultFailure
}

// classify normalizes flow errors: context cancellation maps to
// ErrCancelled, everything else keeps its sentinel if it has one.
func (m *Manager) classify(ctx context.Context, p provider.Provider, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		err = ErrCancelled
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Provider: p, Op: op, Err: err}
}
