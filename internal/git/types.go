package git

import "context"

const (
	// MainBranch is the branch every client publishes to.
	MainBranch = "master"
	// MetadataDir is the git directory inside a repository root.
	MetadataDir = ".git"
)

// Runner executes an external command and returns its standard output.
// A non-zero exit must be reported as *CommandError.
type Runner interface {
	Run(ctx context.Context, command string, args ...string) (string, error)
}

// Remote describes a configured git remote.
type Remote struct {
	Name     string
	FetchURL string
	PushURL  string
}

// Backend is the version-control capability a repository needs.
//
// Every method is scoped to one repository root and its metadata directory.
// Failures of the underlying tool surface as *CommandError.
type Backend interface {
	// Root returns the absolute repository root.
	Root() string

	// Init creates the metadata directory with MainBranch as the unborn HEAD.
	Init(ctx context.Context) error
	AddRemote(ctx context.Context, name, url string) error
	// Remotes lists configured remotes (`git remote -v`).
	Remotes(ctx context.Context) ([]Remote, error)
	FetchAll(ctx context.Context) error

	// Add stages the given paths; StageAll stages every working-tree change.
	Add(ctx context.Context, paths ...string) error
	StageAll(ctx context.Context) error
	// DiffStaged returns `git diff --staged`; empty means nothing to commit.
	DiffStaged(ctx context.Context) (string, error)
	Commit(ctx context.Context, message string) error

	// MergeFastForwardOnly never creates a merge commit; divergent history fails.
	MergeFastForwardOnly(ctx context.Context, ref string) error
	UpdateRef(ctx context.Context, ref, target string) error
	Push(ctx context.Context, remote string, refs ...string) error
	// PushSetUpstream is Push with `-u`, recording upstream tracking.
	PushSetUpstream(ctx context.Context, remote string, refs ...string) error
	Checkout(ctx context.Context, ref string) error
	// ListBranches returns `git branch -a` output.
	ListBranches(ctx context.Context) (string, error)

	GetLocalConfig(ctx context.Context, key string) (string, error)
	SetLocalConfig(ctx context.Context, key, value string) error
}
