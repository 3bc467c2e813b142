package check

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
)

var (
	window time.Duration
	from   string
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Check every active booking in a window",
	Long: `Check scheduled and weather-conflict bookings whose departure falls in
the window. One failing booking is counted and never stops the run.

Examples:
  flightwatch check all
  flightwatch check all --window 72h
  flightwatch check all --from 2026-08-12T00:00:00Z --window 24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CheckAllActiveHandler == nil {
			return cli.ErrNotInitialized
		}

		start := time.Now().UTC()
		if from != "" {
			parsed, err := time.Parse(time.RFC3339, from)
			if err != nil {
				return fmt.Errorf("invalid --from, use RFC3339: %w", err)
			}
			start = parsed.UTC()
		}
		if window <= 0 {
			return fmt.Errorf("--window must be positive")
		}

		res, err := app.CheckAllActiveHandler.Handle(cmd.Context(), commands.CheckAllActiveCommand{
			Start: start,
			End:   start.Add(window),
			Actor: cli.Actor,
		})
		if err != nil {
			return fmt.Errorf("failed to check bookings: %w", err)
		}

		out := cmd.OutOrStdout()
		if cli.JSONOutput() {
			return cli.PrintJSON(out, res)
		}

		fmt.Fprintf(out, "Checked %d bookings between %s and %s\n",
			res.Total, start.Format(time.RFC3339), start.Add(window).Format(time.RFC3339))
		fmt.Fprintf(out, "  Conflicts: %d (%d new)\n", res.Conflicts, res.Created)
		fmt.Fprintf(out, "  Clear:     %d (%d resolved)\n", res.Clear, res.Resolved)
		fmt.Fprintf(out, "  No data:   %d\n", res.NoData)
		fmt.Fprintf(out, "  Skipped:   %d\n", res.Skipped)
		fmt.Fprintf(out, "  Errors:    %d\n", res.Errors)
		if res.Generated > 0 {
			fmt.Fprintf(out, "  Option sets generated: %d\n", res.Generated)
		}
		if res.GenerationErrors > 0 {
			fmt.Fprintf(out, "  Option generation failed: %d\n", res.GenerationErrors)
		}
		return nil
	},
}

func init() {
	allCmd.Flags().DurationVarP(&window, "window", "w", 48*time.Hour, "how far ahead to look")
	allCmd.Flags().StringVar(&from, "from", "", "window start (RFC3339), defaults to now")
}
