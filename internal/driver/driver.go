// Package driver syncs every repository in the tracking registry.
package driver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/repository"
)

// Lister yields the tracked repository paths.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Syncer is one repository ready to sync.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Opener opens the repository at path.
type Opener func(ctx context.Context, path string) (Syncer, error)

// RepositoryOpener opens real repositories with opts.
func RepositoryOpener(opts repository.Options) Opener {
	return func(ctx context.Context, path string) (Syncer, error) {
		return repository.Open(ctx, path, opts)
	}
}

// Result is the outcome for one path. Err is nil on success.
type Result struct {
	Path     string
	Err      error
	Duration time.Duration
}

// Report collects the results of a SyncAll run.
type Report struct {
	Results []Result
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Succeeded counts the successful results.
func (r *Report) Succeeded() int {
	return len(r.Results) - len(r.Failed())
}

// Driver syncs tracked repositories one after another.
type Driver struct {
	registry Lister
	open     Opener
	logger   *zap.Logger
}

// New creates a Driver.
func New(registry Lister, open Opener, logger *zap.Logger) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{registry: registry, open: open, logger: logger}
}

// SyncAll opens and syncs every tracked repository. A failing repository
// is logged and recorded in the report; the others still run. The only
// error returned is a failure to read the registry.
func (d *Driver) SyncAll(ctx context.Context) (*Report, error) {
	paths, err := d.registry.List(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Results: make([]Result, 0, len(paths))}
	for _, path := range paths {
		start := time.Now()
		err := d.syncOne(ctx, path)
		res := Result{Path: path, Err: err, Duration: time.Since(start)}
		report.Results = append(report.Results, res)

		if err != nil {
			d.logger.Error("Error while syncing repository",
				zap.String("path", path),
				zap.String("error_type", errors.GetType(err).String()),
				zap.Error(err))
			continue
		}
		d.logger.Debug("Repository synced", zap.String("path", path), zap.Duration("duration", res.Duration))
	}

	d.logger.Info("Sync run finished",
		zap.Int("repositories", len(report.Results)),
		zap.Int("failed", len(report.Failed())))
	return report, nil
}

// syncOne turns a panic in one repository into an error so the run goes on.
func (d *Driver) syncOne(ctx context.Context, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while syncing: %v", r)
		}
	}()

	repo, err := d.open(ctx, path)
	if err != nil {
		return err
	}
	return repo.Sync(ctx)
}
