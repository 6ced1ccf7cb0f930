package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	lock := New("/tmp/out", "write")
	assert.Equal(t, "/tmp/out/.write.lock", lock.Path())
}

func TestLock_AcquireRelease(t *testing.T) {
	tmpDir := t.TempDir()
	lock := New(tmpDir, "write")

	require.NoError(t, lock.Acquire())

	lockPath := filepath.Join(tmpDir, ".write.lock")
	content, err := os.ReadFile(lockPath)
	require.NoError(t, err)
	assert.NotEmpty(t, content)

	require.NoError(t, lock.Release())

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err))
}

func TestLock_CreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "target", "kubernetes")
	lock := New(dir, "write")

	require.NoError(t, lock.Acquire())
	defer lock.Release()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLock_DoubleAcquire(t *testing.T) {
	tmpDir := t.TempDir()
	lock1 := New(tmpDir, "write")
	lock2 := New(tmpDir, "write")

	require.NoError(t, lock1.Acquire())
	defer lock1.Release()

	err := lock2.Acquire()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrHeld))
	assert.Contains(t, err.Error(), "another write operation is already running")
}

func TestLock_ReacquireAfterRelease(t *testing.T) {
	tmpDir := t.TempDir()
	lock1 := New(tmpDir, "write")
	lock2 := New(tmpDir, "write")

	require.NoError(t, lock1.Acquire())
	require.NoError(t, lock1.Release())

	require.NoError(t, lock2.Acquire())
	require.NoError(t, lock2.Release())
}

func TestLock_ReleaseWithoutAcquire(t *testing.T) {
	lock := New(t.TempDir(), "write")
	assert.NoError(t, lock.Release())
}

func TestWithLock(t *testing.T) {
	tmpDir := t.TempDir()

	executed := false
	err := WithLock(tmpDir, "write", func() error {
		executed = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, executed)

	_, err = os.Stat(filepath.Join(tmpDir, ".write.lock"))
	assert.True(t, os.IsNotExist(err))
}

func TestWithLock_PropagatesError(t *testing.T) {
	want := errors.New("boom")
	err := WithLock(t.TempDir(), "write", func() error {
		return want
	})
	assert.ErrorIs(t, err, want)
}

func TestWithLock_Blocked(t *testing.T) {
	tmpDir := t.TempDir()
	lock := New(tmpDir, "write")

	require.NoError(t, lock.Acquire())
	defer lock.Release()

	called := false
	err := WithLock(tmpDir, "write", func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrHeld)
	assert.False(t, called)
}
