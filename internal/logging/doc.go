// Package logging provides structured logging helpers built on log/slog.
//
// It defines the canonical attribute keys used across the codebase so that
// log output stays queryable (provider, operation, status, ...), nil-safe
// error attributes, and PII-safe helpers for logging user emails and OAuth
// tokens. Share and auth flows must never log raw emails or token contents;
// use UserHash and SanitizeToken instead.
package logging
