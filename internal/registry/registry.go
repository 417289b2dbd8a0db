// Package registry persists the set of repositories under batch sync.
//
// Every operation runs under a global lock at <registry file>.lock, so
// concurrent dorkbox processes never lose each other's updates.
package registry

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/lock"
)

// LockSuffix is appended to the registry path to name its lock file.
const LockSuffix = ".lock"

// Registry is the tracked-path set.
type Registry struct {
	store  *fileStore
	lock   *lock.Lock
	logger *zap.Logger
}

// New returns a registry stored at path.
func New(path string, logger *zap.Logger) (*Registry, error) {
	if path == "" {
		return nil, errors.New(errors.ErrTypeConfig, "registry path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTypeConfig, "resolve registry path", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:  newFileStore(abs),
		lock:   lock.New(abs+LockSuffix, logger),
		logger: logger,
	}, nil
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return r.store.path
}

// Track adds path. Tracking a path twice is a no-op.
func (r *Registry) Track(ctx context.Context, path string) error {
	abs, err := canonical(path)
	if err != nil {
		return errors.Wrap(errors.ErrTypeRegistry, "resolve path", err)
	}
	return r.update(ctx, func(paths []string) []string {
		for _, p := range paths {
			if p == abs {
				return paths
			}
		}
		r.logger.Info("Tracking repository", zap.String("path", abs))
		return append(paths, abs)
	})
}

// Untrack removes path. Untracking an unknown path is a no-op.
func (r *Registry) Untrack(ctx context.Context, path string) error {
	abs, err := canonical(path)
	if err != nil {
		return errors.Wrap(errors.ErrTypeRegistry, "resolve path", err)
	}
	return r.update(ctx, func(paths []string) []string {
		kept := paths[:0]
		for _, p := range paths {
			if p == abs {
				r.logger.Info("Untracking repository", zap.String("path", abs))
				continue
			}
			kept = append(kept, p)
		}
		return kept
	})
}

// Cleanup drops entries whose directory no longer exists and returns them.
func (r *Registry) Cleanup(ctx context.Context) ([]string, error) {
	var removed []string
	err := r.update(ctx, func(paths []string) []string {
		kept := paths[:0]
		for _, p := range paths {
			if info, err := os.Stat(p); err == nil && info.IsDir() {
				kept = append(kept, p)
				continue
			}
			removed = append(removed, p)
		}
		return kept
	})
	if err != nil {
		return nil, err
	}
	for _, p := range removed {
		r.logger.Info("Removed missing repository from registry", zap.String("path", p))
	}
	return removed, nil
}

// List returns a snapshot of the tracked paths, sorted.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.lock.Exclusive(ctx, func() error {
		doc, err := r.store.load()
		if err != nil {
			return err
		}
		paths = dedupe(doc.Track)
		return nil
	})
	if err != nil {
		return nil, wrapRegistryErr("read registry", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// update is the load/mutate/persist cycle shared by every mutation.
func (r *Registry) update(ctx context.Context, mutate func([]string) []string) error {
	err := r.lock.Exclusive(ctx, func() error {
		doc, err := r.store.load()
		if err != nil {
			return err
		}
		doc.Track = dedupe(mutate(dedupe(doc.Track)))
		return r.store.save(doc)
	})
	if err != nil {
		return wrapRegistryErr("update registry", err)
	}
	return nil
}

// canonical makes path absolute and, when it exists, resolves symlinks so
// one directory is tracked once however it is reached.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

func wrapRegistryErr(op string, err error) error {
	if errors.GetType(err) == errors.ErrTypeTimeout {
		return err
	}
	return errors.Wrap(errors.ErrTypeRegistry, op, err)
}

func dedupe(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
