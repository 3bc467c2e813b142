package conflict

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

var limit int

var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List open conflicts, newest first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListOpenConflictsHandler == nil {
			return cli.ErrNotInitialized
		}

		conflicts, err := app.ListOpenConflictsHandler.Handle(cmd.Context(), queries.ListOpenConflictsQuery{Limit: limit})
		if err != nil {
			return fmt.Errorf("failed to list conflicts: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, conflicts)
		}
		if len(conflicts) == 0 {
			fmt.Fprintln(out, "No open conflicts.")
			return nil
		}
		for _, c := range conflicts {
			fmt.Fprintf(out, "%s  booking %s  %-6s  %d violation(s)\n", c.ID, c.BookingID, c.Severity, len(c.Violations))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum conflicts to show")
}
