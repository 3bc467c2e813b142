package reschedule

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

var conflictFlag string

var generateCmd = &cobra.Command{
	Use:   "generate <booking-id>",
	Short: "Generate reschedule options for a conflicted booking",
	Long: `Ask the configured reasoning providers for three alternative slots,
falling back to the rule-based schedule when none answers. A pending set
for the booking is replaced.

Examples:
  flightwatch reschedule generate 550e8400-e29b-41d4-a716-446655440000
  flightwatch reschedule generate 550e8400-... --conflict 7d1c...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GenerateOptionsHandler == nil || app.GetOptionSetHandler == nil {
			return cli.ErrNotInitialized
		}

		bookingID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid booking ID: %w", err)
		}
		var conflictID uuid.UUID
		if conflictFlag != "" {
			if conflictID, err = uuid.Parse(conflictFlag); err != nil {
				return fmt.Errorf("invalid conflict ID: %w", err)
			}
		}

		res, err := app.GenerateOptionsHandler.Handle(cmd.Context(), commands.GenerateRescheduleOptionsCommand{
			BookingID:  bookingID,
			ConflictID: conflictID,
			Actor:      cli.Actor,
		})
		if err != nil {
			return fmt.Errorf("failed to generate options: %w", err)
		}

		set, err := app.GetOptionSetHandler.Handle(cmd.Context(), queries.GetOptionSetQuery{OptionSetID: res.OptionSetID})
		if err != nil {
			return fmt.Errorf("failed to load option set: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, set)
		}
		printOptionSet(out, set)
		fmt.Fprintf(out, "\nAccept with: flightwatch reschedule accept %s <index>\n", set.ID)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&conflictFlag, "conflict", "", "conflict ID, defaults to the booking's open conflict")
}
