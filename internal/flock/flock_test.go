//go:build unix

package flock_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/injecteur/internal/errors"
	"github.com/mrz1836/injecteur/internal/flock"
)

func openLockFile(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- test code using safe temp dir
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExclusive(t *testing.T) {
	t.Parallel()

	t.Run("second holder is refused", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "rotation.lock")
		f1 := openLockFile(t, path)
		f2 := openLockFile(t, path)

		require.NoError(t, flock.Exclusive(f1.Fd()))
		require.Error(t, flock.Exclusive(f2.Fd()))

		require.NoError(t, flock.Unlock(f1.Fd()))
		require.NoError(t, flock.Exclusive(f2.Fd()))
		require.NoError(t, flock.Unlock(f2.Fd()))
	})
}

func TestAcquire(t *testing.T) {
	t.Parallel()

	t.Run("acquire and release", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "rotation.lock")

		lock, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release())
		require.NoError(t, lock.Release(), "second release is a no-op")

		again, err := flock.Acquire(context.Background(), path, time.Second)
		require.NoError(t, err)
		require.NoError(t, again.Release())
	})

	t.Run("times out while held", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "rotation.lock")
		holder := openLockFile(t, path)
		require.NoError(t, flock.Exclusive(holder.Fd()))
		defer func() { _ = flock.Unlock(holder.Fd()) }()

		start := time.Now()
		_, err := flock.Acquire(context.Background(), path, 120*time.Millisecond)
		require.ErrorIs(t, err, errors.ErrLockTimeout)
		assert.GreaterOrEqual(t, time.Since(start), 120*time.Millisecond)
	})

	t.Run("waits for release", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "rotation.lock")
		holder := openLockFile(t, path)
		require.NoError(t, flock.Exclusive(holder.Fd()))

		go func() {
			time.Sleep(100 * time.Millisecond)
			_ = flock.Unlock(holder.Fd())
		}()

		lock, err := flock.Acquire(context.Background(), path, 2*time.Second)
		require.NoError(t, err)
		require.NoError(t, lock.Release())
	})

	t.Run("context canceled", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "rotation.lock")
		holder := openLockFile(t, path)
		require.NoError(t, flock.Exclusive(holder.Fd()))
		defer func() { _ = flock.Unlock(holder.Fd()) }()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := flock.Acquire(ctx, path, time.Second)
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		_, err := flock.Acquire(context.Background(), filepath.Join(t.TempDir(), "absent", "x.lock"), time.Second)
		require.Error(t, err)
	})

	t.Run("nil lock release", func(t *testing.T) {
		t.Parallel()
		var lock *flock.Lock
		assert.NoError(t, lock.Release())
	})
}
