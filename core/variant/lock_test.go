package variant

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/work", ".src.lock"), LockPath("/work/src"))
}

func TestAcquireLock(t *testing.T) {
	output := filepath.Join(t.TempDir(), "src")

	lock, err := AcquireLock(output)
	require.NoError(t, err)

	_, err = AcquireLock(output)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, lock.Release())

	again, err := AcquireLock(output)
	require.NoError(t, err)
	assert.NoError(t, again.Release())
}

func TestReleaseNilLock(t *testing.T) {
	var lock *Lock
	assert.NoError(t, lock.Release())
}
