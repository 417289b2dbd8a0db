package git

import (
	"fmt"
	"strings"

	"github.com/penwyp/dorkbox/internal/errors"
)

// CommandError reports a git invocation that exited non-zero.
type CommandError struct {
	Args     []string
	ExitCode int
	// Output holds captured stdout followed by stderr.
	Output string
	Err    error
}

func (e *CommandError) Error() string {
	cmdline := strings.Join(e.Args, " ")
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("%s: exit status %d", cmdline, e.ExitCode)
	}
	return fmt.Sprintf("%s: exit status %d: %s", cmdline, e.ExitCode, out)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ErrorType classifies the error as ErrTypeCommand.
func (e *CommandError) ErrorType() errors.ErrorType {
	return errors.ErrTypeCommand
}

// Is lets errors.Is(err, errors.ErrCommand) match.
func (e *CommandError) Is(target error) bool {
	de, ok := target.(*errors.DorkboxError)
	return ok && de.Type == errors.ErrTypeCommand
}

// OutputContains reports whether the captured output mentions any of the
// given fragments, case-insensitively.
func (e *CommandError) OutputContains(fragments ...string) bool {
	out := strings.ToLower(e.Output)
	for _, f := range fragments {
		if strings.Contains(out, strings.ToLower(f)) {
			return true
		}
	}
	return false
}
