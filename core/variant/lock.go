package variant

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process already manages the output root.
var ErrLocked = errors.New("output root is locked by another process")

// LockPath returns the lock file guarding an output root. It sits next to the root
// so that wiping the output never removes it.
func LockPath(output string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".lock")
}

// Lock is an exclusive advisory lock on an output root.
type Lock struct {
	flock *flock.Flock
}

// AcquireLock takes the lock for output without blocking.
func AcquireLock(output string) (*Lock, error) {
	path := LockPath(output)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &Lock{flock: fl}, nil
}

// Release drops the lock. Calling it on a nil Lock is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.flock.Unlock()
}
