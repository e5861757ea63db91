package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	attrProvider = "provider"
	attrStatus   = "status"
	attrResult   = "result"
	attrRole     = "role"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a no-op recorder: every method checks initialization.
type Metrics struct {
	// Sync cycle metrics
	syncCyclesTotal   metric.Int64Counter
	syncCycleDuration metric.Float64Histogram

	// Provider fetch metrics
	providerFetchTotal    metric.Int64Counter
	providerFetchDuration metric.Float64Histogram

	// Auth metrics
	authAttemptsTotal metric.Int64Counter

	// Sharing and invite metrics
	shareRequestsTotal metric.Int64Counter
	invitesSentTotal   metric.Int64Counter

	// Device calendar metrics
	deviceEventsCreatedTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.syncCyclesTotal, err = meter.Int64Counter(
		"sync_cycles_total",
		metric.WithDescription("Total number of sync cycles"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_cycles_total counter: %w", err)
	}

	m.syncCycleDuration, err = meter.Float64Histogram(
		"sync_cycle_duration_seconds",
		metric.WithDescription("Sync cycle duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync_cycle_duration_seconds histogram: %w", err)
	}

	m.providerFetchTotal, err = meter.Int64Counter(
		"provider_fetch_total",
		metric.WithDescription("Total number of per-provider fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider_fetch_total counter: %w", err)
	}

	m.providerFetchDuration, err = meter.Float64Histogram(
		"provider_fetch_duration_seconds",
		metric.WithDescription("Per-provider fetch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider_fetch_duration_seconds histogram: %w", err)
	}

	m.authAttemptsTotal, err = meter.Int64Counter(
		"auth_attempts_total",
		metric.WithDescription("Total number of sign-in attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth_attempts_total counter: %w", err)
	}

	m.shareRequestsTotal, err = meter.Int64Counter(
		"share_requests_total",
		metric.WithDescription("Total number of calendar share requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create share_requests_total counter: %w", err)
	}

	m.invitesSentTotal, err = meter.Int64Counter(
		"invites_sent_total",
		metric.WithDescription("Total number of SMS invites sent"),
		metric.WithUnit("{invite}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invites_sent_total counter: %w", err)
	}

	m.deviceEventsCreatedTotal, err = meter.Int64Counter(
		"device_events_created_total",
		metric.WithDescription("Total number of events created in the device calendar"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create device_events_created_total counter: %w", err)
	}

	return m, nil
}

// RecordSyncCycle records one completed sync cycle with its overall status
// and duration. Status should be "success" or "error".
func (m *Metrics) RecordSyncCycle(ctx context.Context, status string, duration time.Duration) {
	if m.syncCyclesTotal == nil || m.syncCycleDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
	}

	m.syncCyclesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.syncCycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordProviderFetch records one provider's fetch attempt within a sync
// cycle. Status should be one of "success", "error", "skipped".
func (m *Metrics) RecordProviderFetch(ctx context.Context, providerName, status string, duration time.Duration) {
	if m.providerFetchTotal == nil || m.providerFetchDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, providerName),
		attribute.String(attrStatus, status),
	}

	m.providerFetchTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.providerFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordAuthAttempt records a sign-in attempt with result.
// Result should be one of: "success", "failure", "cancelled"
func (m *Metrics) RecordAuthAttempt(ctx context.Context, providerName, result string) {
	if m.authAttemptsTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, providerName),
		attribute.String(attrResult, result),
	}

	m.authAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordShareRequest records a calendar share request with its role and status.
func (m *Metrics) RecordShareRequest(ctx context.Context, role, status string) {
	if m.shareRequestsTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrRole, role),
		attribute.String(attrStatus, status),
	}

	m.shareRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordInviteSent records an SMS invite attempt.
// Status should be one of "success", "error", "skipped".
func (m *Metrics) RecordInviteSent(ctx context.Context, status string) {
	if m.invitesSentTotal == nil {
		return // Instrumentation not initialized
	}

	m.invitesSentTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordDeviceEventCreated records an event written to the device calendar.
func (m *Metrics) RecordDeviceEventCreated(ctx context.Context) {
	if m.deviceEventsCreatedTotal == nil {
		return // Instrumentation not initialized
	}

	m.deviceEventsCreatedTotal.Add(ctx, 1)
}
