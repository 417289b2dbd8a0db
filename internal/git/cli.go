package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// CLI implements Backend on top of the git executable.
type CLI struct {
	root   string
	runner Runner
	logger *zap.Logger
}

// Option configures a CLI backend.
type Option func(*CLI)

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *CLI) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCLI creates a backend scoped to root. Relative roots are made absolute.
func NewCLI(root string, runner Runner, opts ...Option) (*CLI, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repository root: %w", err)
	}
	c := &CLI{root: abs, runner: runner, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Root returns the repository root.
func (c *CLI) Root() string {
	return c.root
}

// run executes git inside the root with the work tree and git dir pinned,
// so neither the process working directory nor an enclosing repository
// can leak into the command.
func (c *CLI) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{
		"-C", c.root,
		"--work-tree=" + c.root,
		"--git-dir=" + filepath.Join(c.root, MetadataDir),
	}, args...)
	c.logger.Debug("git", zap.String("root", c.root), zap.Strings("args", args))
	return c.runner.Run(ctx, "git", full...)
}

func (c *CLI) Init(ctx context.Context) error {
	if _, err := c.runner.Run(ctx, "git", "init", c.root); err != nil {
		return err
	}
	// init.defaultBranch may point elsewhere; dorkbox always publishes master.
	_, err := c.run(ctx, "symbolic-ref", "HEAD", "refs/heads/"+MainBranch)
	return err
}

func (c *CLI) AddRemote(ctx context.Context, name, url string) error {
	_, err := c.run(ctx, "remote", "add", name, url)
	return err
}

func (c *CLI) Remotes(ctx context.Context) ([]Remote, error) {
	output, err := c.run(ctx, "remote", "-v")
	if err != nil {
		return nil, err
	}
	return parseRemotes(output), nil
}

// parseRemotes parses `git remote -v` output, keeping first-seen order.
func parseRemotes(output string) []Remote {
	byName := make(map[string]*Remote)
	var order []string
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		// Format: dorkbox	/srv/box.git (fetch)
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}
		name, url, kind := parts[0], parts[1], strings.Trim(parts[2], "()")
		r, ok := byName[name]
		if !ok {
			r = &Remote{Name: name}
			byName[name] = r
			order = append(order, name)
		}
		switch kind {
		case "fetch":
			r.FetchURL = url
		case "push":
			r.PushURL = url
		}
	}
	result := make([]Remote, 0, len(order))
	for _, name := range order {
		result = append(result, *byName[name])
	}
	return result
}

func (c *CLI) FetchAll(ctx context.Context) error {
	_, err := c.run(ctx, "fetch", "--all")
	return err
}

func (c *CLI) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := c.run(ctx, args...)
	return err
}

func (c *CLI) StageAll(ctx context.Context) error {
	_, err := c.run(ctx, "add", "-A")
	return err
}

func (c *CLI) DiffStaged(ctx context.Context) (string, error) {
	return c.run(ctx, "diff", "--staged")
}

func (c *CLI) Commit(ctx context.Context, message string) error {
	_, err := c.run(ctx, "commit", "-m", message)
	return err
}

func (c *CLI) MergeFastForwardOnly(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "merge", "--ff-only", ref)
	return err
}

func (c *CLI) UpdateRef(ctx context.Context, ref, target string) error {
	_, err := c.run(ctx, "update-ref", ref, target)
	return err
}

func (c *CLI) Push(ctx context.Context, remote string, refs ...string) error {
	args := append([]string{"push", remote}, refs...)
	_, err := c.run(ctx, args...)
	return err
}

func (c *CLI) PushSetUpstream(ctx context.Context, remote string, refs ...string) error {
	args := append([]string{"push", "-u", remote}, refs...)
	_, err := c.run(ctx, args...)
	return err
}

func (c *CLI) Checkout(ctx context.Context, ref string) error {
	_, err := c.run(ctx, "checkout", ref)
	return err
}

func (c *CLI) ListBranches(ctx context.Context) (string, error) {
	return c.run(ctx, "branch", "-a")
}

func (c *CLI) GetLocalConfig(ctx context.Context, key string) (string, error) {
	out, err := c.run(ctx, "config", "--local", "--get", key)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *CLI) SetLocalConfig(ctx context.Context, key, value string) error {
	_, err := c.run(ctx, "config", "--local", key, value)
	return err
}

var _ Backend = (*CLI)(nil)
