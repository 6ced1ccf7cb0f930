// Package fileutil stages files next to their destination and renames them into place.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCommitted indicates a staged file was already committed or discarded.
var ErrCommitted = errors.New("staged file already finalized")

// Staged is a fully written, synced temp file waiting to be renamed onto its
// destination. Until Commit, the destination is untouched.
type Staged struct {
	tmpPath string
	dst     string
	done    bool
}

// Stage writes data to a hidden temp file next to dst. The temp file lives in
// the same directory so the later rename is atomic.
func Stage(dst string, data []byte, perm os.FileMode) (*Staged, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create parent directories: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return nil, fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return nil, fmt.Errorf("set permissions: %w", err)
	}

	success = true
	return &Staged{tmpPath: tmpPath, dst: dst}, nil
}

// Path returns the final destination.
func (s *Staged) Path() string {
	return s.dst
}

// Commit renames the temp file onto the destination.
func (s *Staged) Commit() error {
	if s.done {
		return ErrCommitted
	}
	if err := os.Rename(s.tmpPath, s.dst); err != nil {
		return fmt.Errorf("rename to destination: %w", err)
	}
	s.done = true
	return nil
}

// Discard removes the temp file. Calling it after Commit is a no-op.
func (s *Staged) Discard() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := os.Remove(s.tmpPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}
