package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/registry"
	"github.com/penwyp/dorkbox/internal/repository"
	"github.com/penwyp/dorkbox/internal/testutil"
)

type fixture struct {
	reg    *registry.Registry
	opts   repository.Options
	driver *Driver
	first  *repository.Repository
	second *repository.Repository
	third  *repository.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testutil.NewGitEnv(t)
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	reg, err := registry.New(filepath.Join(t.TempDir(), "tracked.yml"), logger)
	require.NoError(t, err)
	opts := repository.Options{Logger: logger, Registry: reg}

	f := &fixture{reg: reg, opts: opts}
	remote := env.BareRemote()
	f.first, err = repository.Create(ctx, t.TempDir(), remote, opts)
	require.NoError(t, err)
	f.second, err = repository.Connect(ctx, t.TempDir(), remote, opts)
	require.NoError(t, err)
	f.third, err = repository.Connect(ctx, t.TempDir(), remote, opts)
	require.NoError(t, err)

	f.driver = New(reg, RepositoryOpener(opts), logger)
	return f
}

func TestSyncAll_PropagatesBetweenTrackedClients(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testutil.WriteFile(t, f.first.Root(), "something", "asd")
	report, err := f.driver.SyncAll(ctx)
	require.NoError(t, err)
	require.Empty(t, report.Failed())

	// One pass publishes from first; a second pass delivers to everyone.
	_, err = f.driver.SyncAll(ctx)
	require.NoError(t, err)
	for _, repo := range []*repository.Repository{f.second, f.third} {
		assert.Equal(t, "asd", testutil.ReadFile(t, repo.Root(), "something"))
	}
}

func TestSyncAll_UntrackedRepositoryIsSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.second.Untrack(ctx))

	testutil.WriteFile(t, f.first.Root(), "something", "asd")
	_, err := f.driver.SyncAll(ctx)
	require.NoError(t, err)
	_, err = f.driver.SyncAll(ctx)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(f.second.Root(), "something"))
	assert.FileExists(t, filepath.Join(f.third.Root(), "something"))
}

func TestSyncAll_ConflictAndMissingDoNotBlockOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	testutil.WriteFile(t, f.first.Root(), "something", "asd")
	require.NoError(t, f.first.Sync(ctx))
	testutil.WriteFile(t, f.first.Root(), "something", "xyzxyz")
	require.NoError(t, f.first.Sync(ctx))

	// second diverges and will conflict.
	testutil.WriteFile(t, f.second.Root(), "something", "kkkkkk")

	missing := filepath.Join(t.TempDir(), "deleted")
	require.NoError(t, os.Mkdir(missing, 0o755))
	require.NoError(t, f.reg.Track(ctx, missing))
	require.NoError(t, os.RemoveAll(missing))

	report, err := f.driver.SyncAll(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Results, 4)

	byPath := map[string]error{}
	for _, res := range report.Results {
		byPath[res.Path] = res.Err
	}
	assert.NoError(t, byPath[f.first.Root()])
	assert.NoError(t, byPath[f.third.Root()])
	assert.ErrorIs(t, byPath[f.second.Root()], errors.ErrConflict)
	assert.ErrorIs(t, byPath[missing], errors.ErrNotARepository)

	assert.Equal(t, "xyzxyz", testutil.ReadFile(t, f.third.Root(), "something"))
}
