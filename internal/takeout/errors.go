package takeout

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a Set after Close.
	ErrClosed = errors.New("takeout archive set is closed")
	// ErrForeignPair is returned by Extract for a pair another Set produced.
	ErrForeignPair = errors.New("pair was not produced by this archive set")
	// ErrSidecarTooLarge is returned by Extract when a sidecar exceeds
	// Options.MaxSidecarBytes.
	ErrSidecarTooLarge = errors.New("sidecar exceeds size limit")
)

// ArchiveError reports an archive that could not be opened, decompressed or
// read. It is never io.EOF and ends iteration.
type ArchiveError struct {
	Path string
	Op   string
	Err  error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("%s archive %s: %v", e.Op, e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// MetadataMissingError reports a media entry with no "<name>.json" sidecar in
// any archive of the set. Iteration continues with the next call to Next.
type MetadataMissingError struct {
	Name    string
	Archive string
}

func (e *MetadataMissingError) Error() string {
	return fmt.Sprintf("no metadata sidecar for %s (from %s)", e.Name, e.Archive)
}

// IsMetadataMissing reports whether err is a *MetadataMissingError.
func IsMetadataMissing(err error) bool {
	var missing *MetadataMissingError
	return errors.As(err, &missing)
}
