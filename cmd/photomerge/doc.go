// Package main hosts the photomerge CLI.
//
// The Cobra command tree loads configuration once, then hands off to the
// internal packages: merge runs drive internal/merge, while the dedup and
// runs commands inspect the dedup store and the run journal.
package main
