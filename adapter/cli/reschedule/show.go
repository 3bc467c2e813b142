package reschedule

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

var showBooking string

var showCmd = &cobra.Command{
	Use:   "show [option-set-id]",
	Short: "Show an option set",
	Long: `Show an option set by ID, or the pending set of a booking.

Examples:
  flightwatch reschedule show 3f2a...
  flightwatch reschedule show --booking 550e8400-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetOptionSetHandler == nil {
			return cli.ErrNotInitialized
		}

		var query queries.GetOptionSetQuery
		switch {
		case len(args) == 1:
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid option set ID: %w", err)
			}
			query.OptionSetID = id
		case showBooking != "":
			id, err := uuid.Parse(showBooking)
			if err != nil {
				return fmt.Errorf("invalid booking ID: %w", err)
			}
			query.BookingID = id
		default:
			return fmt.Errorf("give an option set ID or --booking")
		}

		set, err := app.GetOptionSetHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to load option set: %w", err)
		}

		if cli.JSONOutput() {
			return cli.PrintJSON(cmd.OutOrStdout(), set)
		}
		printOptionSet(cmd.OutOrStdout(), set)
		return nil
	},
}

func init() {
	showCmd.Flags().StringVar(&showBooking, "booking", "", "show the pending set of this booking")
}
