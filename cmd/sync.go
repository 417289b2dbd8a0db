package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/penwyp/dorkbox/internal/driver"
	"github.com/penwyp/dorkbox/internal/repository"
)

func newSyncCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync [dir]",
		Short: "Sync one repository with its remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.Open(cmd.Context(), dirArg(args), a.repoOptions())
			if err != nil {
				return err
			}
			if err := repo.Sync(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusBar("Synced "+repo.Root(), true))
			return nil
		},
	}
}

// sync-all is meant for cron: per-repository failures are logged and
// summarized, never turned into a non-zero exit.
func newSyncAllCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-all",
		Short: "Sync every tracked repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d := driver.New(a.registry, driver.RepositoryOpener(a.repoOptions()), a.logger)
			report, err := d.SyncAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, res := range report.Failed() {
				fmt.Fprintf(out, "%s %s: %v\n", failedStyle.Render("✗"), res.Path, res.Err)
			}
			fmt.Fprintln(out, renderStatusBar(
				fmt.Sprintf("%d synced, %d failed", report.Succeeded(), len(report.Failed())),
				len(report.Failed()) == 0))
			return nil
		},
	}
}

func newResolvedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolved [dir]",
		Short: "Remove the conflict marker after merging by hand",
		Long: `Remove the conflict marker so syncing resumes.

Merge dorkbox/master into master yourself and commit the result first:
dorkbox never merges divergent history on its own.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := repository.Open(cmd.Context(), dirArg(args), a.repoOptions())
			if err != nil {
				return err
			}
			removed, err := repo.ClearConflict(cmd.Context())
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No conflict marker in %s\n", repo.Root())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatusBar("Conflict cleared in "+repo.Root(), true))
			return nil
		},
	}
}
