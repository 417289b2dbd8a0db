package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/git"
	"github.com/penwyp/dorkbox/internal/identity"
)

// Create turns path into a new dorkbox repository publishing to remoteURL,
// which should point at an existing, empty repository.
func Create(ctx context.Context, path, remoteURL string, opts Options) (*Repository, error) {
	opts = opts.withDefaults()
	root, backend, err := prepare(path, opts)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger.With(zap.String("repository", root), zap.String("remote", remoteURL))
	logger.Info("Creating new dorkbox repository")

	if err := backend.Init(ctx); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := appendIgnoreEntries(root); err != nil {
		return nil, err
	}
	if err := backend.Add(ctx, IgnoreFileName); err != nil {
		return nil, fmt.Errorf("stage %s: %w", IgnoreFileName, err)
	}
	if err := backend.Commit(ctx, BootstrapCommitMessage); err != nil {
		return nil, fmt.Errorf("bootstrap commit: %w", err)
	}
	if err := backend.AddRemote(ctx, RemoteName, remoteURL); err != nil {
		return nil, fmt.Errorf("add remote: %w", err)
	}
	return configure(ctx, root, backend, opts, logger)
}

// Connect clones an existing dorkbox remote into path as a new client.
func Connect(ctx context.Context, path, remoteURL string, opts Options) (*Repository, error) {
	opts = opts.withDefaults()
	root, backend, err := prepare(path, opts)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger.With(zap.String("repository", root), zap.String("remote", remoteURL))
	logger.Info("Connecting to existing dorkbox repository")

	if err := backend.Init(ctx); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	if err := backend.AddRemote(ctx, RemoteName, remoteURL); err != nil {
		return nil, fmt.Errorf("add remote: %w", err)
	}
	if err := backend.FetchAll(ctx); err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if err := backend.Checkout(ctx, git.MainBranch); err != nil {
		return nil, fmt.Errorf("checkout %s: %w", git.MainBranch, err)
	}
	return configure(ctx, root, backend, opts, logger)
}

// prepare refuses directories that already hold git metadata.
func prepare(path string, opts Options) (string, git.Backend, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, err := os.Stat(filepath.Join(root, git.MetadataDir)); err == nil {
		return "", nil, errors.Wrap(errors.ErrTypeAlreadyExists,
			fmt.Sprintf("preexisting git repository found in %s", root), nil).
			WithSuggestion("Choose a directory without a .git folder")
	}
	backend, err := opts.Backends(root)
	if err != nil {
		return "", nil, fmt.Errorf("create backend: %w", err)
	}
	return root, backend, nil
}

// configure gives the clone its identity, publishes master and the client
// branch, opens the result and tracks it.
func configure(ctx context.Context, root string, backend git.Backend, opts Options, logger *zap.Logger) (*Repository, error) {
	clientID, err := opts.Identity.Generate(ctx, backend)
	if err != nil {
		return nil, fmt.Errorf("configure client id: %w", err)
	}
	if err := identity.AlignBranch(ctx, backend, clientID); err != nil {
		return nil, fmt.Errorf("create client branch: %w", err)
	}
	if err := backend.PushSetUpstream(ctx, RemoteName, git.MainBranch, clientID); err != nil {
		return nil, fmt.Errorf("initial push: %w", err)
	}

	// Reuse the backend that was just configured.
	opts.Backends = func(string) (git.Backend, error) { return backend, nil }
	repo, err := Open(ctx, root, opts)
	if err != nil {
		return nil, err
	}

	if opts.Registry != nil {
		if err := repo.Track(ctx); err != nil {
			return nil, fmt.Errorf("track: %w", err)
		}
	}
	logger.Info("Repository ready", zap.String("client_id", clientID))
	return repo, nil
}

func appendIgnoreEntries(root string) error {
	f, err := os.OpenFile(filepath.Join(root, IgnoreFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", IgnoreFileName, err)
	}
	_, werr := fmt.Fprintf(f, "%s\n%s\n", ConflictMarkerName, LockFileName)
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("write %s: %w", IgnoreFileName, werr)
	}
	if cerr != nil {
		return fmt.Errorf("write %s: %w", IgnoreFileName, cerr)
	}
	return nil
}
