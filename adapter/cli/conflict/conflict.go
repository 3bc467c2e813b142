package conflict

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

// Cmd is the conflict command group
var Cmd = &cobra.Command{
	Use:   "conflict",
	Short: "Inspect and resolve weather conflicts",
	Long:  `Show, list and manually resolve weather conflicts.`,
}

func init() {
	Cmd.AddCommand(resolveCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}

func printConflict(out io.Writer, c *queries.ConflictDTO) {
	state := "open"
	if c.Resolved {
		state = "resolved"
	}
	fmt.Fprintf(out, "Conflict %s (%s)\n", c.ID, state)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "  Booking:  %s\n", c.BookingID)
	fmt.Fprintf(out, "  Level:    %s\n", c.TrainingLevel)
	fmt.Fprintf(out, "  Severity: %s\n", c.Severity)
	fmt.Fprintf(out, "  Detected: %s\n", c.DetectedAt.Format(time.RFC3339))
	if c.Weather != "" {
		fmt.Fprintf(out, "  Weather:  %s\n", c.Weather)
	}
	for _, v := range c.Violations {
		fmt.Fprintf(out, "  - %s\n", v)
	}
	if c.ResolvedAt != nil {
		fmt.Fprintf(out, "  Resolved: %s", c.ResolvedAt.Format(time.RFC3339))
		if c.ResolutionNote != "" {
			fmt.Fprintf(out, " (%s)", c.ResolutionNote)
		}
		fmt.Fprintln(out)
	}
}
