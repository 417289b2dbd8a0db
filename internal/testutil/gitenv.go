// Package testutil provides helpers for tests that drive a real git binary.
//
// Tests using this package require `git` in PATH. When it is missing the
// test is skipped.
//
// Usage:
//
//	func TestSomething(t *testing.T) {
//	    remote := testutil.NewGitEnv(t).BareRemote()
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// GitEnv isolates git from the user's and system configuration.
type GitEnv struct {
	t   testing.TB
	dir string
}

// NewGitEnv skips the test without git, then pins author identity and
// disables global/system config through environment variables. Tests that
// call it must not run in parallel.
func NewGitEnv(t testing.TB) *GitEnv {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not in PATH, skipping test")
	}

	dir := t.TempDir()
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(dir, "gitconfig"))
	t.Setenv("GIT_AUTHOR_NAME", "dorkbox test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@dorkbox.invalid")
	t.Setenv("GIT_COMMITTER_NAME", "dorkbox test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@dorkbox.invalid")
	return &GitEnv{t: t, dir: dir}
}

// BareRemote creates an empty bare repository and returns its path.
func (e *GitEnv) BareRemote() string {
	e.t.Helper()
	dir := filepath.Join(e.t.TempDir(), "remote.git")
	e.Git("", "init", "--bare", dir)
	return dir
}

// Git runs git in dir (or the current directory when dir is empty) and
// returns combined output, failing the test on error.
func (e *GitEnv) Git(dir string, args ...string) string {
	e.t.Helper()
	out, err := e.TryGit(dir, args...)
	require.NoError(e.t, err, "git %v: %s", args, out)
	return out
}

// TryGit is Git without the failure check.
func (e *GitEnv) TryGit(dir string, args ...string) (string, error) {
	e.t.Helper()
	cmd := exec.Command("git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	cmd.Env = os.Environ()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// WriteFile writes content to name inside dir.
func WriteFile(t testing.TB, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// ReadFile returns the content of name inside dir.
func ReadFile(t testing.TB, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}
