package errors

import "fmt"

// ConflictCause says why a repository entered the conflicted state.
type ConflictCause int

const (
	// CauseMarkerPresent: a previous sync already left the marker behind.
	CauseMarkerPresent ConflictCause = iota
	// CauseNotFastForward: local and remote master diverged.
	CauseNotFastForward
	// CauseMergeFailed: the fast-forward merge failed for another reason.
	CauseMergeFailed
	// CauseAlignFailed: the client branch could not be moved to master.
	CauseAlignFailed
	// CausePushRejected: the remote refused the update.
	CausePushRejected
	// CausePushFailed: the push did not reach the remote (network, auth, ...).
	CausePushFailed
)

func (c ConflictCause) String() string {
	switch c {
	case CauseMarkerPresent:
		return "marker-present"
	case CauseNotFastForward:
		return "not-fast-forward"
	case CauseMergeFailed:
		return "merge-failed"
	case CauseAlignFailed:
		return "align-failed"
	case CausePushRejected:
		return "push-rejected"
	case CausePushFailed:
		return "push-failed"
	default:
		return "unknown"
	}
}

// ConflictError is the tagged ConflictDetected result of a sync.
type ConflictError struct {
	Cause  ConflictCause
	Marker string
	Err    error
}

func (e *ConflictError) Error() string {
	if e.Cause == CauseMarkerPresent {
		return fmt.Sprintf("conflict found, not syncing (marker %s)", e.Marker)
	}
	if e.Err != nil {
		return fmt.Sprintf("conflict found, syncing stopped (%s): %v", e.Cause, e.Err)
	}
	return fmt.Sprintf("conflict found, syncing stopped (%s)", e.Cause)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConflict) hold for every cause.
func (e *ConflictError) Is(target error) bool {
	de, ok := target.(*DorkboxError)
	return ok && de.Type == ErrTypeConflict
}

// GetConflictCause extracts the cause from a conflict error.
func GetConflictCause(err error) (ConflictCause, bool) {
	var ce *ConflictError
	if As(err, &ce) {
		return ce.Cause, true
	}
	return 0, false
}
