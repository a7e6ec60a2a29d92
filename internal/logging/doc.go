// Package logging assembles structured slog loggers and formatting helpers used
// across subforge components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so translation and archive code can tag
// log lines with run identifiers, operations, and chunk positions. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the toolkit.
package logging
