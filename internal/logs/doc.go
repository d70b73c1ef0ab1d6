// Package logs reads per-run log files for the "runs log" command.
//
// Last returns the final lines of a file with bounded memory; Follow polls
// from an offset and emits complete lines as the merge appends them.
package logs
