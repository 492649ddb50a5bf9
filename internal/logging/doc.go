// Package logging configures slog handlers and shared structured logging
// helpers for the autolib daemon and CLI.
package logging
