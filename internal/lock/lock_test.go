package lock

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/penwyp/dorkbox/internal/errors"
)

func newTestLock(t *testing.T) *Lock {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "nested", ".dorkbox.lock"), zaptest.NewLogger(t))
}

func TestExclusive_RunsFn(t *testing.T) {
	l := newTestLock(t)
	called := false

	err := l.Exclusive(context.Background(), func() error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	assert.FileExists(t, l.Path())
}

func TestExclusive_ReturnsFnError(t *testing.T) {
	l := newTestLock(t)

	err := l.Exclusive(context.Background(), func() error { return assert.AnError })
	assert.ErrorIs(t, err, assert.AnError)

	// Released after the error.
	require.NoError(t, l.TryExclusive(func() error { return nil }))
}

func TestExclusive_ReleasesOnPanic(t *testing.T) {
	l := newTestLock(t)

	assert.Panics(t, func() {
		_ = l.Exclusive(context.Background(), func() error { panic("boom") })
	})
	require.NoError(t, l.TryExclusive(func() error { return nil }))
}

func TestExclusive_MutualExclusion(t *testing.T) {
	l := newTestLock(t)
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := New(l.Path(), nil).Exclusive(ctx, func() error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestTryExclusive_FailsWhileHeld(t *testing.T) {
	l := newTestLock(t)

	err := l.Exclusive(context.Background(), func() error {
		inner := l.TryExclusive(func() error {
			t.Fatal("must not run while the lock is held")
			return nil
		})
		assert.ErrorIs(t, inner, errors.ErrLockUnavailable)
		assert.Equal(t, errors.ExitCodeLockUnavailable, errors.ExitCode(inner))
		return nil
	})
	require.NoError(t, err)
}

func TestExclusive_DeadlineWhileHeld(t *testing.T) {
	l := newTestLock(t)

	err := l.Exclusive(context.Background(), func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		ran := false
		inner := New(l.Path(), nil).Exclusive(ctx, func() error {
			ran = true
			return nil
		})
		assert.False(t, ran)
		assert.ErrorIs(t, inner, errors.ErrTimeout)
		assert.ErrorIs(t, inner, context.DeadlineExceeded)
		return nil
	})
	require.NoError(t, err)
}

func TestExclusive_WaitsForRelease(t *testing.T) {
	l := newTestLock(t)
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- l.Exclusive(context.Background(), func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	acquired := make(chan struct{})
	go func() {
		_ = New(l.Path(), nil).Exclusive(context.Background(), func() error {
			close(acquired)
			return nil
		})
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired while the first still held the lock")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	select {
	case <-acquired:
	case <-time.After(5 * time.Second):
		t.Fatal("second holder never acquired the lock")
	}
}
