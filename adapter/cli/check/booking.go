package check

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
)

var bookingCmd = &cobra.Command{
	Use:   "booking <booking-id>",
	Short: "Check one booking",
	Long: `Fetch the weather at the booking's departure if none is cached, then
evaluate it against the student's training minimums.

Examples:
  flightwatch check booking 550e8400-e29b-41d4-a716-446655440000
  flightwatch check booking 550e8400-e29b-41d4-a716-446655440000 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CheckAllActiveHandler == nil {
			return cli.ErrNotInitialized
		}

		bookingID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking ID: %w", err)
		}

		res, err := app.CheckAllActiveHandler.CheckOne(cmd.Context(), commands.CheckBookingCommand{
			BookingID: bookingID,
			Actor:     cli.Actor,
		})
		if err != nil {
			return fmt.Errorf("failed to check booking: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, res)
		}

		fmt.Fprintf(out, "Booking %s: %s\n", res.BookingID, res.Status)
		switch res.Status {
		case commands.CheckStatusConflict:
			fmt.Fprintln(out, strings.Repeat("-", 40))
			fmt.Fprintf(out, "  Conflict: %s", res.ConflictID)
			if res.Created {
				fmt.Fprint(out, " (new)")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Severity: %s\n", res.Severity)
			for _, v := range res.Violations {
				fmt.Fprintf(out, "  - %s\n", v)
			}
		case commands.CheckStatusClear:
			if res.Resolved {
				fmt.Fprintf(out, "  Weather cleared, conflict %s resolved\n", res.ConflictID)
			}
		case commands.CheckStatusNoData:
			fmt.Fprintln(out, "  No booking or current weather found")
		}
		return nil
	},
}
