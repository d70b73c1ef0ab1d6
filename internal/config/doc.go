// Package config loads, normalizes, and validates photomerge configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts),
// reads TOML files, and honours the PHOTOMERGE_OUTPUT_DIR environment
// fallback. The Config type gathers the output, dedup store, journal, and
// logging settings so the CLI and the merge pipeline discover them in one
// pass.
package config
