package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/git"
	"github.com/penwyp/dorkbox/internal/identity"
)

// Sync runs one round of the sync protocol under the repository's sync
// lock, waiting for any sync already in progress.
//
// Local changes are committed and master is fast-forwarded to the remote
// master before master and the client branch are pushed. A failed merge,
// alignment or push leaves the conflict marker behind and returns a
// *errors.ConflictError. Every later Sync returns a conflict without
// touching git until an operator removes the marker.
func (r *Repository) Sync(ctx context.Context) error {
	return r.syncLock.Exclusive(ctx, func() error {
		return r.syncLocked(ctx)
	})
}

func (r *Repository) syncLocked(ctx context.Context) error {
	conflicted, err := r.Conflicted()
	if err != nil {
		return err
	}
	if conflicted {
		r.logger.Warn("Conflict found, not syncing", zap.String("marker", r.marker))
		return &errors.ConflictError{Cause: errors.CauseMarkerPresent, Marker: r.marker}
	}

	if err := r.backend.FetchAll(ctx); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	if err := r.backend.StageAll(ctx); err != nil {
		return fmt.Errorf("stage: %w", err)
	}
	diff, err := r.backend.DiffStaged(ctx)
	if err != nil {
		return fmt.Errorf("diff: %w", err)
	}
	if strings.TrimSpace(diff) != "" {
		if err := r.backend.Commit(ctx, AutoCommitMessage); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		r.logger.Debug("Committed local changes")
	}

	if err := r.backend.MergeFastForwardOnly(ctx, RemoteMaster); err != nil {
		return r.conflict(ctx, classifyMerge(err), err)
	}
	if err := identity.AlignBranch(ctx, r.backend, r.clientID); err != nil {
		return r.conflict(ctx, errors.CauseAlignFailed, err)
	}
	if err := r.backend.Push(ctx, RemoteName, git.MainBranch, r.clientID); err != nil {
		return r.conflict(ctx, classifyPush(err), err)
	}

	r.logger.Info("Sync succeeded", zap.String("client_id", r.clientID))
	return nil
}

// conflict writes the marker and builds the tagged result. A command that
// died because ctx expired is reported as a timeout and leaves no marker.
func (r *Repository) conflict(ctx context.Context, cause errors.ConflictCause, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(errors.ErrTypeTimeout, "sync interrupted", err)
	}

	r.logger.Error("Error while syncing, stopping until solved",
		zap.Stringer("cause", cause), zap.Error(err))

	if werr := r.writeMarker(cause, err); werr != nil {
		r.logger.Error("Failed to write conflict marker", zap.String("marker", r.marker), zap.Error(werr))
		err = stderrors.Join(err, werr)
	}
	return &errors.ConflictError{Cause: cause, Marker: r.marker, Err: err}
}

func (r *Repository) writeMarker(cause errors.ConflictCause, err error) error {
	body := fmt.Sprintf("cause: %s\ntime: %s\nclient: %s\n\n%v\n",
		cause, r.now().UTC().Format(time.RFC3339), r.clientID, err)
	return os.WriteFile(r.marker, []byte(body), 0o644)
}

// Conflicted reports whether the conflict marker exists.
func (r *Repository) Conflicted() (bool, error) {
	_, err := os.Stat(r.marker)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("check conflict marker: %w", err)
	}
}

// ClearConflict removes the marker once an operator has merged by hand.
// It waits for a running sync and never merges anything itself. Returns
// whether a marker was removed.
func (r *Repository) ClearConflict(ctx context.Context) (bool, error) {
	removed := false
	err := r.syncLock.Exclusive(ctx, func() error {
		err := os.Remove(r.marker)
		switch {
		case err == nil:
			removed = true
			r.logger.Info("Conflict marker removed")
			return nil
		case os.IsNotExist(err):
			return nil
		default:
			return fmt.Errorf("remove conflict marker: %w", err)
		}
	})
	return removed, err
}

var (
	notFastForwardOutput = []string{
		"not possible to fast-forward",
		"diverging branches can't be fast-forwarded",
		"not a fast-forward",
	}
	pushRejectedOutput = []string{
		"[rejected]",
		"[remote rejected]",
		"non-fast-forward",
		"fetch first",
	}
)

func classifyMerge(err error) errors.ConflictCause {
	var cmdErr *git.CommandError
	if stderrors.As(err, &cmdErr) && cmdErr.OutputContains(notFastForwardOutput...) {
		return errors.CauseNotFastForward
	}
	return errors.CauseMergeFailed
}

func classifyPush(err error) errors.ConflictCause {
	var cmdErr *git.CommandError
	if stderrors.As(err, &cmdErr) && cmdErr.OutputContains(pushRejectedOutput...) {
		return errors.CausePushRejected
	}
	return errors.CausePushFailed
}
