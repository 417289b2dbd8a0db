// Package repository implements dorkbox-enabled repositories: creating or
// connecting a clone, opening an existing one, and the sync protocol that
// keeps it converged with the shared remote.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/git"
	"github.com/penwyp/dorkbox/internal/identity"
	"github.com/penwyp/dorkbox/internal/lock"
)

const (
	// LockFileName is the per-repository sync lock.
	LockFileName = ".dorkbox.lock"
	// ConflictMarkerName pauses syncing while it exists in the root.
	ConflictMarkerName = "CONFLICT_MUST_MANUALLY_MERGE"
	// IgnoreFileName lists the two files above so they never get committed.
	IgnoreFileName = ".gitignore"
	// RemoteName is the remote every client pushes to.
	RemoteName = "dorkbox"

	AutoCommitMessage      = "Automatic dorkbox commit"
	BootstrapCommitMessage = "enabling dorkbox"
)

// RemoteMaster is the remote-tracking ref merged on every sync.
var RemoteMaster = RemoteName + "/" + git.MainBranch

// Tracker is the part of the tracking registry a repository needs.
type Tracker interface {
	Track(ctx context.Context, path string) error
	Untrack(ctx context.Context, path string) error
}

// BackendFactory builds a backend scoped to root.
type BackendFactory func(root string) (git.Backend, error)

// Options carries the collaborators of a Repository. Zero values get
// working defaults, except Registry: without one, tracking is skipped by
// Create/Connect and refused by Track/Untrack.
type Options struct {
	Logger   *zap.Logger
	Backends BackendFactory
	Registry Tracker
	Identity identity.Generator
	Now      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Backends == nil {
		logger := o.Logger
		o.Backends = func(root string) (git.Backend, error) {
			return git.NewCLI(root, git.NewExecRunner(logger), git.WithLogger(logger))
		}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Repository is an opened dorkbox-enabled clone. Values are only produced
// by Open, Create and Connect, all of which validate the git metadata.
type Repository struct {
	root     string
	backend  git.Backend
	clientID string
	marker   string
	syncLock *lock.Lock
	registry Tracker
	logger   *zap.Logger
	now      func() time.Time
}

// Open validates path and loads its client identity.
func Open(ctx context.Context, path string, opts Options) (*Repository, error) {
	opts = opts.withDefaults()

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, notARepository(path, err)
	}
	if err := validateLayout(root); err != nil {
		return nil, notARepository(root, err)
	}

	backend, err := opts.Backends(root)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	clientID, err := identity.Read(ctx, backend)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Wrap(errors.ErrTypeTimeout, "reading client id", ctxErr)
		}
		return nil, notARepository(root, fmt.Errorf("no client id: %w", err))
	}

	logger := opts.Logger.With(zap.String("repository", root))
	return &Repository{
		root:     root,
		backend:  backend,
		clientID: clientID,
		marker:   filepath.Join(root, ConflictMarkerName),
		syncLock: lock.New(filepath.Join(root, LockFileName), logger),
		registry: opts.Registry,
		logger:   logger,
		now:      opts.Now,
	}, nil
}

// validateLayout checks the directory and its metadata without running git.
// Refs are not read: a concurrent sync may be rewriting them.
func validateLayout(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", root)
	}
	if err := checkAccess(root); err != nil {
		return fmt.Errorf("insufficient permissions: %w", err)
	}
	meta, err := os.Stat(filepath.Join(root, git.MetadataDir))
	if err != nil || !meta.IsDir() {
		return fmt.Errorf("no %s directory", git.MetadataDir)
	}
	return git.Validate(root)
}

func notARepository(path string, cause error) error {
	return errors.Wrap(errors.ErrTypeNotARepository,
		fmt.Sprintf("%s is not a valid dorkbox-enabled repository", path), cause).
		WithSuggestion("Run 'dorkbox create' or 'dorkbox connect' first")
}

// Root returns the absolute repository root.
func (r *Repository) Root() string {
	return r.root
}

// ClientID returns the identity of this clone.
func (r *Repository) ClientID() string {
	return r.clientID
}

// Backend returns the version-control backend scoped to the root.
func (r *Repository) Backend() git.Backend {
	return r.backend
}

// MarkerPath returns the conflict marker location.
func (r *Repository) MarkerPath() string {
	return r.marker
}

// Track adds the repository to the registry.
func (r *Repository) Track(ctx context.Context) error {
	if r.registry == nil {
		return errors.New(errors.ErrTypeConfig, "no tracking registry configured")
	}
	return r.registry.Track(ctx, r.root)
}

// Untrack removes the repository from the registry.
func (r *Repository) Untrack(ctx context.Context) error {
	if r.registry == nil {
		return errors.New(errors.ErrTypeConfig, "no tracking registry configured")
	}
	return r.registry.Untrack(ctx, r.root)
}
