package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"golang.org/x/oauth2"

	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/provider"
)

// fakeFlow is a scriptable Flow. release, when set, blocks SignIn until
// the channel is closed so tests can hold a sign-in in flight.
type fakeFlow struct {
	creds   Credentials
	err     error
	release chan struct{}

	silentCreds Credentials
	silentErr   error

	revoked int
}

func (f *fakeFlow) SignIn(ctx context.Context) (Credentials, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return Credentials{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Credentials{}, f.err
	}
	return f.creds, nil
}

func (f *fakeFlow) SignInSilently(ctx context.Context) (Credentials, error) {
	if f.silentErr != nil {
		return Credentials{}, f.silentErr
	}
	return f.silentCreds, nil
}

func (f *fakeFlow) Revoke(ctx context.Context, creds Credentials) error {
	f.revoked++
	return nil
}

func token(access string, expiry time.Time) *oauth2.Token {
	return &oauth2.Token{AccessToken: access, Expiry: expiry}
}

func TestSignInCommitsSession(t *testing.T) {
	m := NewManager(nil)
	m.Register(provider.Google, &fakeFlow{creds: Credentials{
		Identity: Identity{Email: "user@example.com"},
		Token:    token("tok-1", time.Now().Add(time.Hour)),
	}})

	s, err := m.SignIn(context.Background(), provider.Google)
	require.NoError(t, err)
	assert.Equal(t, SignedIn, s.State)
	assert.Equal(t, "user@example.com", s.Identity.Email)

	got, ok := m.AccessToken(provider.Google)
	require.True(t, ok)
	assert.Equal(t, "tok-1", got)
}

func TestSignInUnregisteredProvider(t *testing.T) {
	m := NewManager(nil)

	_, err := m.SignIn(context.Background(), provider.Outlook)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, SignedOut, m.Session(provider.Outlook).State)
}

func TestSignInCancelledLeavesSessionUntouched(t *testing.T) {
	m := NewManager(nil)
	flow := &fakeFlow{release: make(chan struct{})}
	m.Register(provider.Google, flow)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.SignIn(ctx, provider.Google)
		done <- err
	}()

	// Wait until the flow is actually in flight before cancelling.
	require.Eventually(t, func() bool {
		return m.Session(provider.Google).State == SigningIn
	}, time.Second, time.Millisecond)

	cancel()
	err := <-done
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, SignedOut, m.Session(provider.Google).State)

	// A subsequent attempt is accepted, not rejected as in-progress.
	flow.release = nil
	flow.creds = Credentials{Token: token("tok-2", time.Now().Add(time.Hour))}
	s, err := m.SignIn(context.Background(), provider.Google)
	require.NoError(t, err)
	assert.Equal(t, SignedIn, s.State)
}

func TestSignInRejectsConcurrentAttempt(t *testing.T) {
	m := NewManager(nil)
	release := make(chan struct{})
	m.Register(provider.Google, &fakeFlow{
		release: release,
		creds:   Credentials{Token: token("tok-1", time.Now().Add(time.Hour))},
	})

	done := make(chan error, 1)
	go func() {
		_, err := m.SignIn(context.Background(), provider.Google)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return m.Session(provider.Google).State == SigningIn
	}, time.Second, time.Millisecond)

	_, err := m.SignIn(context.Background(), provider.Google)
	assert.ErrorIs(t, err, ErrInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, SignedIn, m.Session(provider.Google).State)
}

func TestSignInFailureKeepsPreviousSession(t *testing.T) {
	m := NewManager(nil)
	flow := &fakeFlow{creds: Credentials{Token: token("tok-1", time.Now().Add(time.Hour))}}
	m.Register(provider.Google, flow)

	_, err := m.SignIn(context.Background(), provider.Google)
	require.NoError(t, err)

	flow.err = errors.New("consent dismissed")
	_, err = m.SignIn(context.Background(), provider.Google)
	require.Error(t, err)

	got, ok := m.AccessToken(provider.Google)
	require.True(t, ok, "previous session must survive a failed re-auth")
	assert.Equal(t, "tok-1", got)
}

func TestSignInSilentlySwallowsFailures(t *testing.T) {
	m := NewManager(nil)
	m.Register(provider.Google, &fakeFlow{silentErr: errors.New("refresh rejected")})

	s := m.SignInSilently(context.Background(), provider.Google)
	assert.Equal(t, SignedOut, s.State)

	// No prior session is the quiet path too.
	m.Register(provider.Outlook, &fakeFlow{silentErr: ErrNoPriorSession})
	s = m.SignInSilently(context.Background(), provider.Outlook)
	assert.Equal(t, SignedOut, s.State)
}

func TestSignInSilentlyResumes(t *testing.T) {
	m := NewManager(nil)
	m.Register(provider.Google, &fakeFlow{silentCreds: Credentials{
		Token: token("cached", time.Now().Add(time.Hour)),
	}})

	s := m.SignInSilently(context.Background(), provider.Google)
	assert.Equal(t, SignedIn, s.State)

	got, ok := m.AccessToken(provider.Google)
	require.True(t, ok)
	assert.Equal(t, "cached", got)
}

func TestAccessTokenExpiryFlipsState(t *testing.T) {
	m := NewManager(nil)
	m.Register(provider.Google, &fakeFlow{creds: Credentials{
		Token: token("stale", time.Now().Add(-time.Minute)),
	}})

	_, err := m.SignIn(context.Background(), provider.Google)
	require.NoError(t, err)

	_, ok := m.AccessToken(provider.Google)
	assert.False(t, ok)
	assert.Equal(t, Expired, m.Session(provider.Google).State)
}

func TestAccessTokenIdentityOnlySession(t *testing.T) {
	m := NewManager(nil)
	m.Register(provider.Apple, &fakeFlow{creds: Credentials{
		Identity: Identity{DisplayName: "A. User"},
	}})

	_, err := m.SignIn(context.Background(), provider.Apple)
	require.NoError(t, err)

	_, ok := m.AccessToken(provider.Apple)
	assert.False(t, ok, "identity-only sessions hold no token")
	assert.Equal(t, SignedIn, m.Session(provider.Apple).State)
}

func TestSignOutRevokesAndIsIdempotent(t *testing.T) {
	m := NewManager(nil)
	flow := &fakeFlow{creds: Credentials{Token: token("tok", time.Now().Add(time.Hour))}}
	m.Register(provider.Google, flow)

	_, err := m.SignIn(context.Background(), provider.Google)
	require.NoError(t, err)

	require.NoError(t, m.SignOut(context.Background(), provider.Google))
	assert.Equal(t, 1, flow.revoked)
	assert.Equal(t, SignedOut, m.Session(provider.Google).State)

	require.NoError(t, m.SignOut(context.Background(), provider.Google))
	assert.Equal(t, 1, flow.revoked, "signing out twice must not revoke twice")
}

func TestExchangeAuthorizationCodeUnsupported(t *testing.T) {
	m := NewManager(nil)
	m.Register(provider.Apple, &AppleFlow{})

	_, err := m.ExchangeAuthorizationCode(context.Background(), provider.Apple, "code", "")
	assert.ErrorIs(t, err, ErrUnavailable)
}

// newRecordingMetrics returns a live recorder plus a reader for asserting
// what landed in auth_attempts_total.
func newRecordingMetrics(t *testing.T) (*instrumentation.Metrics, func(result string) int64) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := instrumentation.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return metrics, func(result string) int64 {
		var rm metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &rm))
		var total int64
		for _, scope := range rm.ScopeMetrics {
			for _, m := range scope.Metrics {
				if m.Name != "auth_attempts_total" {
					continue
				}
				sum, ok := m.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				for _, dp := range sum.DataPoints {
					if v, ok := dp.Attributes.Value("result"); ok && v.AsString() == result {
						total += dp.Value
					}
				}
			}
		}
		return total
	}
}

func TestSignInRecordsAttemptOutcomes(t *testing.T) {
	metrics, attempts := newRecordingMetrics(t)
	m := NewManager(nil, WithMetrics(metrics))
	flow := &fakeFlow{creds: Credentials{Token: token("tok", time.Now().Add(time.Hour))}}
	m.Register(provider.Google, flow)

	_, err := m.SignIn(context.Background(), provider.Google)
	require.NoError(t, err)
	assert.Equal(t, int64(1), attempts(instrumentation.AuthResultSuccess))

	flow.err = errors.New("consent dismissed")
	_, err = m.SignIn(context.Background(), provider.Google)
	require.Error(t, err)
	assert.Equal(t, int64(1), attempts(instrumentation.AuthResultFailure))

	flow.err = context.Canceled
	_, err = m.SignIn(context.Background(), provider.Google)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, int64(1), attempts(instrumentation.AuthResultCancelled))
}

func TestSignedInListsTokenHolders(t *testing.T) {
	m := NewManager(nil)
	m.Register(provider.Google, &fakeFlow{creds: Credentials{
		Token: token("g", time.Now().Add(time.Hour)),
	}})
	m.Register(provider.Apple, &fakeFlow{creds: Credentials{
		Identity: Identity{Subject: "apple-user"},
	}})

	_, err := m.SignIn(context.Background(), provider.Google)
	require.NoError(t, err)
	_, err = m.SignIn(context.Background(), provider.Apple)
	require.NoError(t, err)

	assert.Equal(t, []provider.Provider{provider.Google}, m.SignedIn())
}
