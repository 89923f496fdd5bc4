// Package logging wires slog with the console and JSON handlers used across
// the daemon and CLI, plus the standardized field names and context helpers
// that keep structured output consistent between components.
package logging
