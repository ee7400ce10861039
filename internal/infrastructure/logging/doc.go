// Package logging provides structured logging for Dispatch Core.
//
// It wraps log/slog with configuration-driven handler selection (JSON or
// text), level filtering, and default service/version fields attached to
// every record. Components receive a *Logger and derive child loggers via
// With for per-component context.
package logging
