package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/penwyp/dorkbox/internal/config"
	"github.com/penwyp/dorkbox/internal/errors"
	"github.com/penwyp/dorkbox/internal/logger"
	"github.com/penwyp/dorkbox/internal/registry"
	"github.com/penwyp/dorkbox/internal/repository"
)

// version holds the current version of dorkbox.
// This will be set at build time via ldflags
var version = "dev"

// GetVersionString returns a formatted version string
func GetVersionString() string {
	return fmt.Sprintf("dorkbox version %s", version)
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	viper    *viper.Viper
	settings *config.Settings
	logger   *zap.Logger
	registry *registry.Registry
	cancel   context.CancelFunc
}

// repoOptions wires the shared collaborators into repository operations.
func (a *app) repoOptions() repository.Options {
	return repository.Options{Logger: a.logger, Registry: a.registry}
}

// setup resolves settings, builds the logger and registry, and applies the
// command timeout to the command context.
func (a *app) setup(cmd *cobra.Command) error {
	settings, err := config.Load(a.viper)
	if err != nil {
		return err
	}
	a.settings = settings

	a.logger, err = logger.New(logger.Options{Debug: settings.Debug, File: settings.LogFile})
	if err != nil {
		return errors.Wrap(errors.ErrTypeConfig, "failed to initialize logger", err)
	}
	a.logger.Debug("Settings loaded",
		zap.String("registry", settings.RegistryPath),
		zap.Duration("timeout", settings.Timeout))

	a.registry, err = registry.New(settings.RegistryPath, a.logger)
	if err != nil {
		return err
	}

	if settings.Timeout > 0 {
		ctx, cancel := context.WithTimeout(cmd.Context(), settings.Timeout)
		a.cancel = cancel
		cmd.SetContext(ctx)
	}
	return nil
}

func (a *app) teardown() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

func (a *app) verbose() bool {
	return a.settings != nil && a.settings.Debug
}

// NewRootCommand builds the dorkbox command tree.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *app) {
	a := &app{viper: config.NewViper()}

	root := &cobra.Command{
		Use:   "dorkbox",
		Short: "Keep a directory in sync across machines through a shared git remote",
		Long: `dorkbox commits local changes, fast-forwards to the shared remote and
publishes the result, so several machines converge on the same content.

Divergent changes are never merged automatically: the repository is
paused with a conflict marker until it is merged by hand and marked
resolved.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyRegistry, "", "tracking registry file (default $XDG_CONFIG_HOME/dorkbox/tracked.yml)")
	flags.Bool(config.KeyDebug, false, "enable debug output for troubleshooting")
	flags.String(config.KeyLogFile, "", "append log output to this file")
	flags.Duration(config.KeyTimeout, 0, "abort the command after this long (0 waits forever)")
	if err := a.viper.BindPFlags(flags); err != nil {
		panic(err)
	}

	root.AddCommand(
		newCreateCommand(a),
		newConnectCommand(a),
		newSyncCommand(a),
		newSyncAllCommand(a),
		newTrackCommand(a),
		newUntrackCommand(a),
		newCleanupCommand(a),
		newStatusCommand(a),
		newResolvedCommand(a),
		newVersionCommand(),
	)
	return root, a
}

// Execute runs the CLI and prints any error. It returns the process exit code.
func Execute(ctx context.Context) int {
	root, a := newRootCommand()
	err := root.ExecuteContext(ctx)
	a.teardown()
	if err == nil {
		return errors.ExitCodeSuccess
	}
	fmt.Fprint(root.ErrOrStderr(), errors.NewErrorHandler(a.verbose()).Format(err))
	return errors.ExitCode(err)
}

// dirArg returns the optional directory argument, defaulting to ".".
func dirArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
