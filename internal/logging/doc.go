// Package logging configures slog for the daemon and CLI.
//
// It provides a console handler for interactive use, a JSON handler for
// machine-readable logs, attr helpers with standardized field keys, and
// context-aware logger derivation so every record carries the session, stage,
// and kind it belongs to.
package logging
