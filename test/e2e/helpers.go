package e2e

import (
	"bytes"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestHelper builds dorkbox once per test and runs it against an isolated
// registry and git configuration.
type TestHelper struct {
	t        *testing.T
	binPath  string
	registry string
	env      []string
}

// Result captures one dorkbox invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// NewTestHelper builds the binary, skipping the test when git is missing.
func NewTestHelper(t *testing.T) *TestHelper {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not in PATH, skipping test")
	}

	home := t.TempDir()
	registry := filepath.Join(t.TempDir(), "tracked.yml")
	env := append(os.Environ(),
		"HOME="+home,
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL="+filepath.Join(home, "gitconfig"),
		"GIT_AUTHOR_NAME=dorkbox e2e",
		"GIT_AUTHOR_EMAIL=e2e@dorkbox.invalid",
		"GIT_COMMITTER_NAME=dorkbox e2e",
		"GIT_COMMITTER_EMAIL=e2e@dorkbox.invalid",
		"DORKBOX_REGISTRY="+registry,
	)
	return &TestHelper{t: t, binPath: buildBinary(t), registry: registry, env: env}
}

// buildBinary builds the dorkbox executable and returns its path.
func buildBinary(t *testing.T) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "dorkbox-bin")
	if runtime.GOOS == "windows" {
		binPath += ".exe"
	}

	cmd := exec.Command("go", "build", "-o", binPath, "github.com/penwyp/dorkbox")
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build binary: %v, output: %s", err, string(out))
	}
	return binPath
}

// Run executes dorkbox with args and reports its exit code.
func (h *TestHelper) Run(args ...string) Result {
	h.t.Helper()
	cmd := exec.Command(h.binPath, args...)
	cmd.Env = h.env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case stderrors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		h.t.Fatalf("failed to run dorkbox: %v", err)
	}
	return res
}

// MustRun fails the test unless dorkbox exits 0.
func (h *TestHelper) MustRun(args ...string) Result {
	h.t.Helper()
	res := h.Run(args...)
	require.Equal(h.t, 0, res.ExitCode, "dorkbox %v\nstdout: %s\nstderr: %s", args, res.Stdout, res.Stderr)
	return res
}

// Git runs git in dir with the helper's environment.
func (h *TestHelper) Git(dir string, args ...string) (string, error) {
	h.t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = h.env
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// BareRemote creates an empty bare repository.
func (h *TestHelper) BareRemote() string {
	h.t.Helper()
	dir := filepath.Join(h.t.TempDir(), "remote.git")
	out, err := h.Git("", "init", "--bare", dir)
	require.NoError(h.t, err, out)
	return dir
}

// WriteFile writes content to name inside dir.
func (h *TestHelper) WriteFile(dir, name, content string) {
	h.t.Helper()
	require.NoError(h.t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
