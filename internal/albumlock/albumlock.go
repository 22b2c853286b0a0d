// Package albumlock prevents two crchecker processes from verifying the same
// album directory at once. Decoding writes transient files into the album,
// so concurrent runs would collide on them.
package albumlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ErrLocked reports that another process holds the album lock.
var ErrLocked = errors.New("album is being verified by another crchecker process")

// Lock is a held advisory lock on one album directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// PathFor returns the lock file for albumDir inside lockDir. The name is a
// SHA-1 name-based UUID of the absolute album path, so every process derives
// the same file without storing the path itself.
func PathFor(lockDir, albumDir string) (string, error) {
	abs, err := filepath.Abs(albumDir)
	if err != nil {
		return "", fmt.Errorf("resolve album path: %w", err)
	}
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(abs)))
	return filepath.Join(lockDir, id.String()+".lock"), nil
}

// Acquire takes the lock for albumDir without blocking.
func Acquire(lockDir, albumDir string) (*Lock, error) {
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	path, err := PathFor(lockDir, albumDir)
	if err != nil {
		return nil, err
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (%s)", ErrLocked, albumDir)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}
