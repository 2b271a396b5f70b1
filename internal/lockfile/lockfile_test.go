// Package lockfile_test tests overlap detection via lock files.
package lockfile_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promopipe/promokeeper/internal/lockfile"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.lock")

	lock, err := lockfile.Acquire(path, time.Hour)
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.NoError(t, lock.Release())
	assert.NoFileExists(t, path)

	// Releasing twice is harmless.
	require.NoError(t, lock.Release())
}

func TestContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.lock")

	lock, err := lockfile.Acquire(path, time.Hour)
	require.NoError(t, err)
	defer func() { require.NoError(t, lock.Release()) }()

	_, err = lockfile.Acquire(path, time.Hour)
	assert.ErrorIs(t, err, lockfile.ErrLocked)
}

func TestReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.lock")

	lock, err := lockfile.Acquire(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, lock.Release())

	lock2, err := lockfile.Acquire(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, lock2.Release())
}

func TestStaleLockReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.lock")

	// Leftover from a crashed run, hours old.
	require.NoError(t, os.WriteFile(path, []byte("12345\n"), 0o600))
	old := time.Now().Add(-6 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	lock, err := lockfile.Acquire(path, time.Hour)
	require.NoError(t, err)
	require.NoError(t, lock.Release())
}

func TestFreshLockNotStolen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pass.lock")
	require.NoError(t, os.WriteFile(path, []byte("12345\n"), 0o600))

	_, err := lockfile.Acquire(path, time.Hour)
	assert.ErrorIs(t, err, lockfile.ErrLocked)
}
