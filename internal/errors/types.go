package errors

import (
	"context"
	"errors"
)

// Exit codes for the CLI.
const (
	ExitCodeSuccess         = 0
	ExitCodeGenericError    = 1
	ExitCodeNotARepository  = 2
	ExitCodeAlreadyExists   = 3
	ExitCodeLockUnavailable = 4
	ExitCodeConflict        = 5
	ExitCodeGitError        = 6
	ExitCodeConfigError     = 7
	ExitCodeTimeout         = 124 // Standard timeout exit code
)

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitCodeSuccess
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ExitCodeTimeout
	}
	switch GetType(err) {
	case ErrTypeNotARepository:
		return ExitCodeNotARepository
	case ErrTypeAlreadyExists:
		return ExitCodeAlreadyExists
	case ErrTypeLockUnavailable:
		return ExitCodeLockUnavailable
	case ErrTypeConflict:
		return ExitCodeConflict
	case ErrTypeCommand:
		return ExitCodeGitError
	case ErrTypeConfig, ErrTypeRegistry:
		return ExitCodeConfigError
	case ErrTypeTimeout:
		return ExitCodeTimeout
	default:
		return ExitCodeGenericError
	}
}
