package dedup

import (
	"errors"
	"fmt"
)

// ErrNoPath is returned by Save on a store created without a backing file.
var ErrNoPath = errors.New("dedup store has no backing file")

// DuplicateKeyError reports an Add for a hash that is already recorded.
// Location is the new location that collided; the stored record is
// unchanged.
type DuplicateKeyError struct {
	Hash     string
	Location string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("content %s already recorded (attempted location %q)", e.Hash, e.Location)
}

// IsDuplicateKey reports whether err is a *DuplicateKeyError.
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}

// CorruptStoreError reports a persisted store that exists but cannot be
// decoded.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("dedup store %s is unreadable: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }
