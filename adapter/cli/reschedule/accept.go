package reschedule

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
)

var acceptCmd = &cobra.Command{
	Use:   "accept <option-set-id> <index>",
	Short: "Accept one option and move the booking",
	Long: `Move the booking to the chosen slot and resolve its conflict. Indexes
start at 0.

Examples:
  flightwatch reschedule accept 3f2a... 1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.AcceptOptionHandler == nil {
			return cli.ErrNotInitialized
		}

		setID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid option set ID: %w", err)
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid option index: %w", err)
		}

		res, err := app.AcceptOptionHandler.Handle(cmd.Context(), commands.AcceptOptionCommand{
			OptionSetID: setID,
			Index:       index,
			Actor:       cli.Actor,
		})
		if err != nil {
			return fmt.Errorf("failed to accept option: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, res)
		}
		fmt.Fprintf(out, "Booking %s rescheduled\n", res.BookingID)
		fmt.Fprintf(out, "  From: %s\n", res.OldDate.Format(time.RFC3339))
		fmt.Fprintf(out, "  To:   %s\n", res.NewDate.Format(time.RFC3339))
		fmt.Fprintf(out, "  Conflict %s resolved\n", res.ConflictID)
		return nil
	},
}
