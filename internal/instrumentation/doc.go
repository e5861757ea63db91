// Package instrumentation provides OpenTelemetry metrics and tracing for
// calhub.
//
// A Provider wires exporters (Prometheus by default, OTLP or stdout via
// configuration) into global meter and tracer providers and hands out a
// Metrics recorder for the domain's counters and histograms: sync cycles,
// per-provider fetches, sign-in attempts, share requests, invites, and
// device writes.
//
// Instrumentation is optional end to end: with INSTRUMENTATION_ENABLED=false
// the Provider is inert and the zero-value Metrics recorder makes every
// recording call a no-op, so callers never condition on whether telemetry
// is configured.
package instrumentation
