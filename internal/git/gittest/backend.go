// Package gittest provides a testify mock of git.Backend.
package gittest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/penwyp/dorkbox/internal/git"
)

// MockBackend is a git.Backend whose calls are scripted with On(...).
// Variadic arguments are matched as a single []string.
type MockBackend struct {
	mock.Mock
	RootDir string
}

func (m *MockBackend) Root() string {
	return m.RootDir
}

func (m *MockBackend) Init(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBackend) AddRemote(ctx context.Context, name, url string) error {
	return m.Called(ctx, name, url).Error(0)
}

func (m *MockBackend) Remotes(ctx context.Context) ([]git.Remote, error) {
	args := m.Called(ctx)
	remotes, _ := args.Get(0).([]git.Remote)
	return remotes, args.Error(1)
}

func (m *MockBackend) FetchAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBackend) Add(ctx context.Context, paths ...string) error {
	return m.Called(ctx, paths).Error(0)
}

func (m *MockBackend) StageAll(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockBackend) DiffStaged(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Commit(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

func (m *MockBackend) MergeFastForwardOnly(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockBackend) UpdateRef(ctx context.Context, ref, target string) error {
	return m.Called(ctx, ref, target).Error(0)
}

func (m *MockBackend) Push(ctx context.Context, remote string, refs ...string) error {
	return m.Called(ctx, remote, refs).Error(0)
}

func (m *MockBackend) PushSetUpstream(ctx context.Context, remote string, refs ...string) error {
	return m.Called(ctx, remote, refs).Error(0)
}

func (m *MockBackend) Checkout(ctx context.Context, ref string) error {
	return m.Called(ctx, ref).Error(0)
}

func (m *MockBackend) ListBranches(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) GetLocalConfig(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) SetLocalConfig(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

var _ git.Backend = (*MockBackend)(nil)
