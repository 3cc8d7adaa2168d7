// Package logging assembles the structured slog loggers used across gigsnap.
//
// It centralizes level and output plumbing, exposes attribute helpers so
// pipeline code tags log lines with media item IDs and stages consistently,
// and provides a no-op logger for tests and wiring code that cannot fail.
package logging
