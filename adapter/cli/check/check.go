package check

import (
	"github.com/spf13/cobra"
)

// Cmd is the check command group
var Cmd = &cobra.Command{
	Use:   "check",
	Short: "Check bookings against weather minimums",
	Long:  `Evaluate one booking or every active booking against current weather.`,
}

func init() {
	Cmd.AddCommand(bookingCmd)
	Cmd.AddCommand(allCmd)
}
