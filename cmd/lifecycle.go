package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/dorkbox/internal/repository"
)

func newCreateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <dir> <remote-url>",
		Short: "Create a new dorkbox repository publishing to an empty remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.Create(cmd.Context(), args[0], args[1], a.repoOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusBar(
				fmt.Sprintf("Created %s as %s", repo.Root(), repo.ClientID()), true))
			return nil
		},
	}
}

func newConnectCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <dir> <remote-url>",
		Short: "Join an existing dorkbox remote from a new directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.Connect(cmd.Context(), args[0], args[1], a.repoOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusBar(
				fmt.Sprintf("Connected %s as %s", repo.Root(), repo.ClientID()), true))
			return nil
		},
	}
}

func newTrackCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track [dir]",
		Short: "Add a dorkbox repository to the sync-all registry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.Open(cmd.Context(), dirArg(args), a.repoOptions())
			if err != nil {
				return err
			}
			if err := repo.Track(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tracking %s\n", repo.Root())
			return nil
		},
	}
}

// untrack works on plain paths so deleted repositories can be removed too.
func newUntrackCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "untrack [dir]",
		Short: "Remove a directory from the sync-all registry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.registry.Untrack(cmd.Context(), dirArg(args)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Untracked %s\n", dirArg(args))
			return nil
		},
	}
}

func newCleanupCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Drop registry entries whose directory no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := a.registry.Cleanup(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries removed\n", len(removed))
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the dorkbox version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), GetVersionString())
			return nil
		},
	}
}
