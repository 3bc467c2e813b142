package reschedule

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

// Cmd is the reschedule command group
var Cmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Generate and decide reschedule options",
	Long:  `Generate alternative slots for a conflicted booking, then accept or reject them.`,
}

func init() {
	Cmd.AddCommand(generateCmd)
	Cmd.AddCommand(acceptCmd)
	Cmd.AddCommand(rejectCmd)
	Cmd.AddCommand(showCmd)
}

func printOptionSet(out io.Writer, s *queries.OptionSetDTO) {
	fmt.Fprintf(out, "Option set %s (%s, by %s)\n", s.ID, s.Status, s.Provider)
	fmt.Fprintln(out, strings.Repeat("-", 40))
	fmt.Fprintf(out, "  Booking:  %s\n", s.BookingID)
	fmt.Fprintf(out, "  Conflict: %s\n", s.ConflictID)
	if s.Reasoning != "" {
		fmt.Fprintf(out, "  %s\n", s.Reasoning)
	}
	for _, o := range s.Options {
		marker := " "
		if s.SelectedIndex != nil && *s.SelectedIndex == o.Index {
			marker = "*"
		}
		fmt.Fprintf(out, "%s [%d] %s  confidence %d\n", marker, o.Index, o.DateTime.Format(time.RFC3339), o.Confidence)
		fmt.Fprintf(out, "      %s\n", o.Reasoning)
		if o.WeatherSummary != "" {
			fmt.Fprintf(out, "      %s\n", o.WeatherSummary)
		}
	}
	if s.RejectionReason != "" {
		fmt.Fprintf(out, "  Rejected: %s\n", s.RejectionReason)
	}
}
