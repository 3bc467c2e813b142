package conflict

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
)

var reason string

var resolveCmd = &cobra.Command{
	Use:   "resolve <conflict-id>",
	Short: "Resolve a conflict manually",
	Long: `Mark a conflict resolved without moving the booking. Resolving an
already resolved conflict changes nothing.

Examples:
  flightwatch conflict resolve 7d1c... --reason "instructor cleared the flight"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ResolveConflictHandler == nil {
			return cli.ErrNotInitialized
		}

		conflictID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid conflict ID: %w", err)
		}

		res, err := app.ResolveConflictHandler.Handle(cmd.Context(), commands.ResolveConflictCommand{
			ConflictID: conflictID,
			Reason:     reason,
			Actor:      cli.Actor,
		})
		if err != nil {
			return fmt.Errorf("failed to resolve conflict: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, res)
		}
		if res.AlreadyResolved {
			fmt.Fprintf(out, "Conflict %s was already resolved at %s\n", res.ConflictID, res.ResolvedAt.Format(time.RFC3339))
			return nil
		}
		fmt.Fprintf(out, "Conflict resolved: %s\n", res.ConflictID)
		fmt.Fprintf(out, "  Booking: %s\n", res.BookingID)
		fmt.Fprintf(out, "  Note:    %s\n", res.Note)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVarP(&reason, "reason", "r", "", "resolution note")
}
