// Package dedup remembers which media content has already been written.
//
// A Store maps the BLAKE3-256 hex digest of raw content bytes to the
// location the content was last written to. Stores are either purely
// in-memory (New) or file-backed (Open), in which case the mapping is
// persisted as a single gzip-compressed JSON object:
//
//	{"<hex digest>": "<output location>", ...}
//
// Save writes a complete snapshot to a temporary file beside the target and
// renames it into place, so an interrupted save leaves the previous file
// intact. A persisted file that cannot be decoded is a hard error rather
// than an empty store: silently losing dedup history would re-process
// every item.
//
// A Store is not safe for concurrent use. Seen followed by Add is a
// check-then-act sequence; callers sharing a store across goroutines must
// serialise access themselves.
package dedup
