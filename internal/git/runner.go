package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"

	"go.uber.org/zap"
)

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *zap.Logger
}

// NewExecRunner creates an ExecRunner. A nil logger disables logging.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{logger: logger}
}

// Run executes the command and returns stdout. Stderr is only kept for
// error reporting. Credential prompts are disabled: runs are unattended.
func (r *ExecRunner) Run(ctx context.Context, command string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("Running command",
		zap.String("command", command),
		zap.Strings("args", args))

	err := cmd.Run()

	r.logger.Debug("Command output",
		zap.Int("output_length", stdout.Len()),
		zap.Error(err),
		zap.String("output", func() string {
			if stdout.Len() > 0 && stdout.Len() < 1000 {
				return stdout.String()
			}
			return fmt.Sprintf("<%d bytes>", stdout.Len())
		}()))

	if err == nil {
		return stdout.String(), nil
	}

	cmdErr := &CommandError{
		Args:     append([]string{command}, args...),
		ExitCode: -1,
		Output:   stdout.String() + stderr.String(),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		cmdErr.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		cmdErr.Err = ctxErr
	}
	return "", cmdErr
}
