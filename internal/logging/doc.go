// Package logging assembles the structured slog loggers used by photomerge.
//
// It owns the console and JSON handlers, level parsing, output fan-out to
// stdout and per-run log files, and the attribute helpers that keep log
// lines uniform across the archive, dedup, and merge packages. Context
// helpers tag lines with the run, archive, and entry currently being
// processed. NewNop returns a logger for tests and optional wiring.
package logging
