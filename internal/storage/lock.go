package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock provides cross-process file locking using gofrs/flock, guarding
// the SQLite database directory against concurrent consolidation runs from
// more than one Meridian process. Works on Unix, Linux, macOS, and Windows.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a new file lock for the given directory. The lock
// file is created at <dir>/.meridian.lock.
func NewFileLock(dir string) *FileLock {
	lockPath := filepath.Join(dir, ".meridian.lock")
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires an exclusive lock, blocking until it is available.
func (l *FileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking. Returns true if
// the lock was acquired, false if another process holds it.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times or when unlocked.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		l.locked = false
		return fmt.Errorf("failed to release lock: %w", err)
	}

	l.locked = false
	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}

// IsLocked returns true if the lock is currently held by this process.
func (l *FileLock) IsLocked() bool {
	return l.locked
}
