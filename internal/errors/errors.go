package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies dorkbox failures.
type ErrorType int

const (
	// ErrTypeUnknown is used for errors that did not originate in dorkbox.
	ErrTypeUnknown ErrorType = iota
	// ErrTypeNotARepository means the directory is missing, inaccessible or not dorkbox-enabled.
	ErrTypeNotARepository
	// ErrTypeAlreadyExists means create/connect found existing git metadata.
	ErrTypeAlreadyExists
	// ErrTypeLockUnavailable is returned by the non-blocking lock only.
	ErrTypeLockUnavailable
	// ErrTypeConflict means the repository is paused until a human merges.
	ErrTypeConflict
	// ErrTypeCommand means a git invocation exited non-zero.
	ErrTypeCommand
	// ErrTypeConfig covers settings and flag problems.
	ErrTypeConfig
	// ErrTypeRegistry covers reading and writing the tracking registry.
	ErrTypeRegistry
	// ErrTypeTimeout means a bounded wait expired.
	ErrTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeNotARepository:
		return "not-a-repository"
	case ErrTypeAlreadyExists:
		return "already-exists"
	case ErrTypeLockUnavailable:
		return "lock-unavailable"
	case ErrTypeConflict:
		return "conflict"
	case ErrTypeCommand:
		return "command"
	case ErrTypeConfig:
		return "config"
	case ErrTypeRegistry:
		return "registry"
	case ErrTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// DorkboxError is the common error structure.
type DorkboxError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Suggestion string
}

// Error implements error.
func (e *DorkboxError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap supports errors.Is and errors.As.
func (e *DorkboxError) Unwrap() error {
	return e.Cause
}

// Is matches any *DorkboxError of the same type, so the predefined
// values below work as sentinels.
func (e *DorkboxError) Is(target error) bool {
	var t *DorkboxError
	if !errors.As(target, &t) {
		return false
	}
	return t == e || (t.Type == e.Type && t.Type != ErrTypeUnknown)
}

// WithSuggestion attaches a hint for the operator.
func (e *DorkboxError) WithSuggestion(suggestion string) *DorkboxError {
	e.Suggestion = suggestion
	return e
}

// New creates a DorkboxError.
func New(errType ErrorType, message string) *DorkboxError {
	return &DorkboxError{
		Type:    errType,
		Message: message,
	}
}

// Wrap wraps an existing error.
func Wrap(errType ErrorType, message string, cause error) *DorkboxError {
	return &DorkboxError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Sentinels. Compare with errors.Is; the match is by type.
var (
	ErrNotARepository  = New(ErrTypeNotARepository, "not a dorkbox-enabled repository").WithSuggestion("Run 'dorkbox create' or 'dorkbox connect' first")
	ErrAlreadyExists   = New(ErrTypeAlreadyExists, "preexisting git repository found").WithSuggestion("Choose an empty directory")
	ErrLockUnavailable = New(ErrTypeLockUnavailable, "lock already acquired")
	ErrConflict        = New(ErrTypeConflict, "conflict found, syncing stopped").WithSuggestion("Merge dorkbox/master by hand, then run 'dorkbox resolved'")
	ErrCommand         = New(ErrTypeCommand, "git command failed")
	ErrConfig          = New(ErrTypeConfig, "invalid configuration")
	ErrRegistry        = New(ErrTypeRegistry, "tracking registry unavailable")
	ErrTimeout         = New(ErrTypeTimeout, "operation timed out")
)

// Is forwards to the standard library.
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// As forwards to the standard library.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetType returns the type of the outermost classified error in the chain.
func GetType(err error) ErrorType {
	var de *DorkboxError
	if errors.As(err, &de) {
		return de.Type
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ErrTypeConflict
	}
	var ct classifiedType
	if errors.As(err, &ct) {
		return ct.ErrorType()
	}
	return ErrTypeUnknown
}

// classifiedType lets errors defined in other packages (git.CommandError)
// report their type without importing this package's structs.
type classifiedType interface {
	error
	ErrorType() ErrorType
}

// GetSuggestion returns the first suggestion found in the chain.
func GetSuggestion(err error) string {
	var de *DorkboxError
	if errors.As(err, &de) && de.Suggestion != "" {
		return de.Suggestion
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ErrConflict.Suggestion
	}
	return ""
}

// FormatError renders the error with its suggestion, if any.
func FormatError(err error) string {
	msg := err.Error()
	if s := GetSuggestion(err); s != "" {
		msg += fmt.Sprintf("\n💡 %s", s)
	}
	return msg
}
