package conflict

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

var showCmd = &cobra.Command{
	Use:   "show <conflict-id>",
	Short: "Show a conflict",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetConflictHandler == nil {
			return cli.ErrNotInitialized
		}

		conflictID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid conflict ID: %w", err)
		}

		c, err := app.GetConflictHandler.Handle(cmd.Context(), queries.GetConflictQuery{ConflictID: conflictID})
		if err != nil {
			return fmt.Errorf("failed to load conflict: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), c)
		}
		printConflict(cmd.OutOrStdout(), c)
		return nil
	},
}
