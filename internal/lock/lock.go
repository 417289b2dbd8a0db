// Package lock provides mutual exclusion scoped to a filesystem path.
//
// Locks are advisory flock(2) locks on a dedicated file. Every acquisition
// opens its own file description, so two holders in the same process
// exclude each other exactly like two processes do. Locks are not
// reentrant: acquiring a lock already held by the caller blocks forever
// (or until the context expires).
package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/penwyp/dorkbox/internal/errors"
)

// PollInterval is how often a cancellable Exclusive retries the lock.
const PollInterval = 50 * time.Millisecond

// Lock guards a path. The zero value is not usable; call New.
type Lock struct {
	path   string
	logger *zap.Logger
}

// New returns a lock backed by the file at path. The file is created on
// first acquisition.
func New(path string, logger *zap.Logger) *Lock {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lock{path: path, logger: logger}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Exclusive runs fn while holding the lock, waiting for other holders.
// When ctx can be cancelled the wait is a poll, and expiry is reported as
// a timeout wrapping ctx.Err().
func (l *Lock) Exclusive(ctx context.Context, fn func() error) error {
	fl, err := l.open()
	if err != nil {
		return err
	}

	if ctx.Done() == nil {
		if err := fl.Lock(); err != nil {
			return fmt.Errorf("acquire lock %s: %w", l.path, err)
		}
	} else {
		locked, err := fl.TryLockContext(ctx, PollInterval)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return errors.Wrap(errors.ErrTypeTimeout, fmt.Sprintf("waiting for lock %s", l.path), ctxErr)
			}
			return fmt.Errorf("acquire lock %s: %w", l.path, err)
		}
		if !locked {
			return errors.Wrap(errors.ErrTypeTimeout, fmt.Sprintf("waiting for lock %s", l.path), ctx.Err())
		}
	}
	return l.run(fl, fn)
}

// TryExclusive runs fn while holding the lock, or fails at once with
// errors.ErrLockUnavailable when someone else holds it.
func (l *Lock) TryExclusive(fn func() error) error {
	fl, err := l.open()
	if err != nil {
		return err
	}
	locked, err := fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !locked {
		return errors.Wrap(errors.ErrTypeLockUnavailable, "lock already acquired", nil).
			WithSuggestion(fmt.Sprintf("Another dorkbox process holds %s", l.path))
	}
	return l.run(fl, fn)
}

func (l *Lock) open() (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	return flock.New(l.path), nil
}

// run releases on every exit path, including a panic in fn.
func (l *Lock) run(fl *flock.Flock, fn func() error) error {
	l.logger.Debug("Lock acquired", zap.String("path", l.path))
	defer func() {
		if err := fl.Unlock(); err != nil {
			l.logger.Warn("Failed to release lock", zap.String("path", l.path), zap.Error(err))
			return
		}
		l.logger.Debug("Lock released", zap.String("path", l.path))
	}()
	return fn()
}
