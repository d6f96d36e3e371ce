// Package logging configures the process-wide structured logger.
//
// Saturn logs through the standard library's log/slog. Setup builds a
// handler from the telemetry configuration and installs it as
// slog.Default, so packages obtain component-scoped loggers with
// slog.Default().With("component", ...).
package logging
