// Package merge drives a Takeout-to-collection run: it pairs archive
// entries with their sidecars, skips content already recorded in the dedup
// store, derives tags from each sidecar, encodes them with the configured
// codec and writes the result into the output directory.
package merge
