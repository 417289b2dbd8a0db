package repository

import (
	"context"

	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/git"
)

// State is the sync state of a tracked repository.
type State string

const (
	StateReady      State = "ready"
	StateConflicted State = "conflicted"
	StateMissing    State = "missing"
)

// Status summarizes a repository for operators.
type Status struct {
	Root      string
	ClientID  string
	State     State
	RemoteURL string
	// Published is true when the local client branch points at master,
	// i.e. the last sync finished its push step.
	Published bool
	// Syncing is true when another caller holds the sync lock.
	Syncing bool
}

// Status reads the repository state. It never waits for a running sync:
// the sync lock is only probed.
func (r *Repository) Status(ctx context.Context) (*Status, error) {
	st := &Status{Root: r.root, ClientID: r.clientID, State: StateReady}

	err := r.syncLock.TryExclusive(func() error { return nil })
	switch {
	case err == nil:
	case errors.Is(err, errors.ErrLockUnavailable):
		st.Syncing = true
	default:
		return nil, err
	}

	conflicted, err := r.Conflicted()
	if err != nil {
		return nil, err
	}
	if conflicted {
		st.State = StateConflicted
	}

	remotes, err := r.backend.Remotes(ctx)
	if err != nil {
		return nil, err
	}
	for _, rm := range remotes {
		if rm.Name == RemoteName {
			st.RemoteURL = rm.FetchURL
			break
		}
	}

	if snap, err := git.Inspect(r.root); err == nil {
		st.Published = snap.InSync(r.clientID)
	}
	return st, nil
}
