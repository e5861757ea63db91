package share

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/calhub/calhub/internal/instrumentation"
	"github.com/calhub/calhub/internal/provider"
	"github.com/calhub/calhub/internal/schedule"
)

type fakeTokens struct {
	token string
}

func (f *fakeTokens) AccessToken(p provider.Provider) (string, bool) {
	if p == provider.Google && f.token != "" {
		return f.token, true
	}
	return "", false
}

type countingSharer struct {
	calls int
	err   error
}

func (c *countingSharer) ShareCalendar(ctx context.Context, calendarID, email string, role schedule.Role) (*schedule.ShareGrant, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &schedule.ShareGrant{CalendarID: calendarID, Email: email, Role: role}, nil
}

func newTestManager(tokens *fakeTokens, sharer *countingSharer) *Manager {
	return NewManager(tokens, func(ctx context.Context, accessToken string) (GoogleSharer, error) {
		return sharer, nil
	}, nil)
}

func TestGrant(t *testing.T) {
	sharer := &countingSharer{}
	m := newTestManager(&fakeTokens{token: "tok"}, sharer)

	grant, err := m.Grant(context.Background(), "primary", "friend@example.com", schedule.RoleWriter)
	require.NoError(t, err)
	assert.Equal(t, "friend@example.com", grant.Email)
	assert.Equal(t, schedule.RoleWriter, grant.Role)
	assert.Equal(t, 1, sharer.calls)
}

func TestGrantRequiresSession(t *testing.T) {
	sharer := &countingSharer{}
	m := newTestManager(&fakeTokens{}, sharer)

	_, err := m.Grant(context.Background(), "primary", "friend@example.com", schedule.RoleReader)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, sharer.calls, "no request may be issued without a session")
}

func TestGrantRejectsBadEmail(t *testing.T) {
	sharer := &countingSharer{}
	m := newTestManager(&fakeTokens{token: "tok"}, sharer)

	for _, email := range []string{"", "not-an-email", "spaces in@example.com"} {
		_, err := m.Grant(context.Background(), "primary", email, schedule.RoleReader)
		assert.ErrorIs(t, err, ErrInvalidEmail, "email %q", email)
	}
	assert.Zero(t, sharer.calls)
}

func TestGrantRejectsBadRole(t *testing.T) {
	sharer := &countingSharer{}
	m := newTestManager(&fakeTokens{token: "tok"}, sharer)

	_, err := m.Grant(context.Background(), "primary", "friend@example.com", schedule.Role("admin"))
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Zero(t, sharer.calls)
}

func TestGrantWrapsRemoteFailure(t *testing.T) {
	sharer := &countingSharer{err: provider.ErrRateLimited}
	m := newTestManager(&fakeTokens{token: "tok"}, sharer)

	_, err := m.Grant(context.Background(), "primary", "friend@example.com", schedule.RoleReader)
	require.Error(t, err)

	var re *RequestError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "primary", re.CalendarID)
	assert.ErrorIs(t, err, provider.ErrRateLimited)
}

func TestGrantRecordsRequests(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := instrumentation.NewMetrics(mp.Meter("test"))
	require.NoError(t, err)

	sharer := &countingSharer{}
	m := NewManager(&fakeTokens{token: "tok"}, func(ctx context.Context, accessToken string) (GoogleSharer, error) {
		return sharer, nil
	}, nil, WithMetrics(metrics))

	_, err = m.Grant(context.Background(), "primary", "friend@example.com", schedule.RoleReader)
	require.NoError(t, err)

	sharer.err = provider.ErrRateLimited
	_, err = m.Grant(context.Background(), "primary", "friend@example.com", schedule.RoleReader)
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, metric := range scope.Metrics {
			if metric.Name != "share_requests_total" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	assert.Equal(t, int64(2), total, "both grant outcomes must be counted")
}
