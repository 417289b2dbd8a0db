package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/repository"
	"github.com/penwyp/dorkbox/internal/testutil"
)

type cliHarness struct {
	t        *testing.T
	registry string
}

func newHarness(t *testing.T) *cliHarness {
	return &cliHarness{t: t, registry: filepath.Join(t.TempDir(), "tracked.yml")}
}

// run executes one dorkbox invocation against the harness registry.
func (h *cliHarness) run(args ...string) (string, error) {
	h.t.Helper()
	root, a := newRootCommand()
	defer a.teardown()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--registry", h.registry}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

func TestVersion(t *testing.T) {
	out := newHarness(t).mustRun("version")
	assert.Equal(t, "dorkbox version dev\n", out)
}

func TestUnknownCommand(t *testing.T) {
	_, err := newHarness(t).run("frobnicate")
	assert.Error(t, err)
}

func TestInvalidTimeout(t *testing.T) {
	_, err := newHarness(t).run("--timeout=-5s", "status")
	assert.ErrorIs(t, err, errors.ErrConfig)
	assert.Equal(t, errors.ExitCodeConfigError, errors.ExitCode(err))
}

func TestStatus_Empty(t *testing.T) {
	out := newHarness(t).mustRun("status")
	assert.Contains(t, out, "No tracked repositories")
}

func TestSync_NotARepository(t *testing.T) {
	_, err := newHarness(t).run("sync", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, errors.ExitCodeNotARepository, errors.ExitCode(err))
}

func TestCreate_AlreadyExists(t *testing.T) {
	env := testutil.NewGitEnv(t)
	dir := t.TempDir()
	env.Git(dir, "init")

	_, err := newHarness(t).run("create", dir, env.BareRemote())
	assert.Equal(t, errors.ExitCodeAlreadyExists, errors.ExitCode(err))
}

func TestCLI_EndToEnd(t *testing.T) {
	env := testutil.NewGitEnv(t)
	h := newHarness(t)
	remote := env.BareRemote()
	first, second := t.TempDir(), t.TempDir()

	out := h.mustRun("create", first, remote)
	assert.Contains(t, out, "Created "+first)
	out = h.mustRun("connect", second, remote)
	assert.Contains(t, out, "Connected "+second)

	testutil.WriteFile(t, first, "notes.txt", "hello")
	out = h.mustRun("sync", first)
	assert.Contains(t, out, "Synced "+first)

	out = h.mustRun("sync-all")
	assert.Contains(t, out, "2 synced, 0 failed")
	assert.Equal(t, "hello", testutil.ReadFile(t, second, "notes.txt"))

	out = h.mustRun("status")
	assert.Contains(t, out, first)
	assert.Contains(t, out, second)
	assert.Contains(t, out, "dorkbox-")
	assert.Contains(t, out, string(repository.StateReady))
	assert.Contains(t, out, remote)

	// Diverge second from first.
	testutil.WriteFile(t, first, "notes.txt", "from first")
	h.mustRun("sync", first)
	testutil.WriteFile(t, second, "notes.txt", "from second")

	_, err := h.run("sync", second)
	require.Error(t, err)
	assert.Equal(t, errors.ExitCodeConflict, errors.ExitCode(err))

	// sync-all reports the conflict but still exits cleanly.
	out, err = h.run("sync-all")
	require.NoError(t, err)
	assert.Contains(t, out, "1 synced, 1 failed")
	assert.Contains(t, out, second)

	out = h.mustRun("status")
	assert.Contains(t, out, string(repository.StateConflicted))

	_, _ = env.TryGit(second, "merge", "dorkbox/master")
	testutil.WriteFile(t, second, "notes.txt", "merged")
	env.Git(second, "add", "notes.txt")
	env.Git(second, "commit", "-m", "merged")

	out = h.mustRun("resolved", second)
	assert.Contains(t, out, "Conflict cleared")
	out = h.mustRun("resolved", second)
	assert.Contains(t, out, "No conflict marker")

	h.mustRun("sync-all")
	h.mustRun("sync-all")
	assert.Equal(t, "merged", testutil.ReadFile(t, first, "notes.txt"))

	out = h.mustRun("untrack", second)
	assert.Contains(t, out, "Untracked")
	out = h.mustRun("sync-all")
	assert.Contains(t, out, "1 synced, 0 failed")

	h.mustRun("track", second)
	out = h.mustRun("sync-all")
	assert.Contains(t, out, "2 synced, 0 failed")
}

func TestCleanup(t *testing.T) {
	env := testutil.NewGitEnv(t)
	h := newHarness(t)
	remote := env.BareRemote()
	kept := t.TempDir()
	gone := filepath.Join(t.TempDir(), "gone")

	h.mustRun("create", kept, remote)
	h.mustRun("connect", gone, remote)
	require.NoError(t, os.RemoveAll(gone))

	out := h.mustRun("status")
	assert.Contains(t, out, string(repository.StateMissing))

	out = h.mustRun("cleanup")
	assert.Contains(t, out, "Removed "+gone)
	assert.Contains(t, out, "1 entries removed")

	out = h.mustRun("status")
	assert.False(t, strings.Contains(out, gone))
}
