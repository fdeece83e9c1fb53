// Package logging builds slog loggers for the daemon and CLI.
//
// Loggers write to stdout plus the configured log file, format records as
// JSON or human-readable console lines, and carry standardized attribute
// keys (component, session_id, step) so session activity can be traced
// across packages. Context helpers lift session and request identifiers
// stored by the services package into log attributes.
package logging
