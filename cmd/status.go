package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/penwyp/dorkbox/internal/repository"
)

var (
	headerStyle     = lipgloss.NewStyle().Bold(true)
	readyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	conflictedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	missingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	failedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// renderStatusBar renders a one-line styled result.
func renderStatusBar(message string, isSuccess bool) string {
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	indicator := "▶"
	if isSuccess {
		style = style.Foreground(lipgloss.Color("42"))
		indicator = "✓"
	} else {
		style = style.Foreground(lipgloss.Color("214"))
	}
	return style.Render(indicator + " " + message)
}

// stateError marks a tracked repository whose status could not be read.
const stateError repository.State = "error"

type statusRow struct {
	path     string
	clientID string
	state    repository.State
	remote   string
	note     string
}

type statusReader interface {
	Status(ctx context.Context) (*repository.Status, error)
}

type statusOpener func(ctx context.Context, path string) (statusReader, error)

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show every tracked repository with its client id and state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			paths, err := a.registry.List(ctx)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tracked repositories")
				return nil
			}

			open := func(ctx context.Context, path string) (statusReader, error) {
				return repository.Open(ctx, path, a.repoOptions())
			}
			rows := make([]statusRow, 0, len(paths))
			for _, p := range paths {
				rows = append(rows, readStatusRow(ctx, p, open))
			}
			writeStatusTable(cmd.OutOrStdout(), rows)
			return nil
		},
	}
}

// readStatusRow never fails: problems with one repository become its row.
func readStatusRow(ctx context.Context, path string, open statusOpener) statusRow {
	row := statusRow{path: path, clientID: "-", remote: "-"}
	repo, err := open(ctx, path)
	if err != nil {
		row.state = repository.StateMissing
		if _, statErr := os.Stat(path); statErr == nil {
			row.note = "not dorkbox-enabled"
		}
		return row
	}

	st, err := repo.Status(ctx)
	if err != nil {
		row.state = stateError
		row.note = err.Error()
		return row
	}
	row.clientID = st.ClientID
	row.state = st.State
	if st.RemoteURL != "" {
		row.remote = st.RemoteURL
	}
	switch {
	case st.Syncing:
		row.note = "sync in progress"
	case st.State == repository.StateReady && !st.Published:
		row.note = "not yet published"
	}
	return row
}

func writeStatusTable(w io.Writer, rows []statusRow) {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tCLIENT ID\tSTATE\tREMOTE\tNOTE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.path, r.clientID, r.state, r.remote, r.note)
	}
	_ = tw.Flush()

	// Styled after alignment: escape codes would count toward column widths.
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	fmt.Fprintln(w, headerStyle.Render(lines[0]))
	for i, line := range lines[1:] {
		fmt.Fprintln(w, stateStyle(rows[i].state).Render(line))
	}
}

func stateStyle(s repository.State) lipgloss.Style {
	switch s {
	case repository.StateReady:
		return readyStyle
	case repository.StateConflicted, stateError:
		return conflictedStyle
	default:
		return missingStyle
	}
}
