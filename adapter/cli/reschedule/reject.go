package reschedule

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
)

var rejectReason string

var rejectCmd = &cobra.Command{
	Use:   "reject <option-set-id>",
	Short: "Reject every option of a set",
	Long: `Decline all proposed slots. The booking and its conflict stay as they
are, so a new set can be generated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RejectOptionsHandler == nil {
			return cli.ErrNotInitialized
		}

		setID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid option set ID: %w", err)
		}

		err = app.RejectOptionsHandler.Handle(cmd.Context(), commands.RejectOptionsCommand{
			OptionSetID: setID,
			Reason:      rejectReason,
			Actor:       cli.Actor,
		})
		if err != nil {
			return fmt.Errorf("failed to reject options: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, map[string]any{"option_set_id": setID, "status": "rejected"})
		}
		fmt.Fprintf(out, "Options rejected: %s\n", setID)
		return nil
	},
}

func init() {
	rejectCmd.Flags().StringVarP(&rejectReason, "reason", "r", "", "why the options were declined")
}
