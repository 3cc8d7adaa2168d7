// Package config loads, normalizes, and validates the TOML configuration for
// gigsnap.
//
// Loading happens in three phases: defaults, file decode, then
// normalize/validate. Path fields are expanded (~ and relative paths) so the
// rest of the codebase can treat them as absolute. Secrets may also arrive via
// environment variables so config files can stay checked in without keys.
package config
