package dedup

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrLocked is returned by Lock when another process holds the store.
var ErrLocked = errors.New("dedup store is in use by another photomerge process")

// LockPath returns the advisory lock file used for the store at path.
func LockPath(path string) string {
	return path + ".lock"
}

// Lock takes a non-blocking exclusive advisory lock beside the store file so
// two runs cannot interleave saves. Release it with Unlock.
func Lock(path string) (*flock.Flock, error) {
	lock := flock.New(LockPath(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire dedup store lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock file %s)", ErrLocked, lock.Path())
	}
	return lock, nil
}
