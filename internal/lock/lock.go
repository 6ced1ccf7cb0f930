// Package lock provides advisory file locks that serialize keel writers.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrHeld indicates the lock is held by another process.
var ErrHeld = errors.New("lock is held by another process")

// Lock represents a file-based lock.
type Lock struct {
	path      string
	operation string
	file      *os.File
}

// New creates a lock for operation inside dir. The lock file is dir/.<operation>.lock.
func New(dir, operation string) *Lock {
	return &Lock{
		path:      filepath.Join(dir, "."+operation+".lock"),
		operation: operation,
	}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking.
// Returns an error wrapping ErrHeld if another process holds it.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		l.file = nil
		if errors.Is(err, unix.EWOULDBLOCK) {
			return fmt.Errorf("another %s operation is already running: %w", l.operation, ErrHeld)
		}
		return fmt.Errorf("acquire lock: %w", err)
	}

	// PID for debugging a stuck lock.
	_ = f.Truncate(0)
	_, _ = f.Seek(0, 0)
	fmt.Fprintf(f, "%d\n", os.Getpid())

	l.file = f
	return nil
}

// Release unlocks and removes the lock file. It is safe to call without Acquire.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}

	// Remove before unlocking so a waiter never locks a file about to vanish.
	os.Remove(l.path)

	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}

	return nil
}

// WithLock executes fn while holding the lock for operation in dir.
func WithLock(dir, operation string, fn func() error) error {
	lock := New(dir, operation)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	return fn()
}

