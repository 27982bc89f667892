package cli

import (
	"encoding/json"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/secondbrain/internal/brain"
	"github.com/kingrea/secondbrain/internal/report"
	"github.com/kingrea/secondbrain/internal/tui"
)

func newFreshnessCmd(rt *runtime) *cobra.Command {
	var (
		asJSON bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "freshness",
		Short: "Report stale records across every enabled entity",
		Long: `freshness evaluates every enabled entity now, ignoring the hourly limit the
prompt hook applies, and lists the records that have gone stale, oldest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := brain.Open(rt.start())
			if err != nil {
				return err
			}
			now := rt.now()
			if asJSON {
				payload := report.NewPayload(snap.Freshness(now).Items, limit)
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(payload)
			}
			fmt.Fprintln(cmd.OutOrStdout(), snap.Report(now, limit).Render())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the structured payload instead of the table")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show at most N items (0 shows all)")
	return cmd
}

func newStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the session summary: record counts and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := brain.Open(rt.start())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), snap.SessionDigest())
			return nil
		},
	}
}

func newBrowseCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse stale records and recent activity interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := tui.NewApp(rt.start(), tui.WithClock(rt.now))
			p := tea.NewProgram(app,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("cli: run browser: %w", err)
			}
			return nil
		},
	}
}
