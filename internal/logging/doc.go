// Package logging assembles structured slog loggers and formatting helpers used
// across leadlens.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and tags records with the request and capture session IDs carried
// on the context. The package also provides a no-op logger for tests and
// wiring code that cannot fail, plus an email attribute that masks the local
// part of lead addresses.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
