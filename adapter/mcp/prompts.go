package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for dispatcher workflows.
func RegisterPrompts(srv *mcp.Server) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("conflict_triage").
		Description("Work through open weather conflicts and decide which bookings to move.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Conflict Triage",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me clear today's weather conflicts.

1. Read flightwatch://conflicts/open for the unresolved conflicts.
2. For each conflict, run check.booking to see whether the weather still violates the minimums.
3. Where the conflict persists, call reschedule.show with the booking_id. If there is no pending set, call reschedule.generate.
4. Summarize the options for each booking with their confidence and reasoning.

Do not accept or reject options until I pick one. Then use reschedule.accept or reschedule.reject.`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("booking_briefing").
		Description("Explain the weather picture for one booking against the student's training level.").
		Argument("booking_id", "Booking to brief", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			bookingID := args["booking_id"]
			if bookingID == "" {
				bookingID = "[booking ID]"
			}
			return &mcp.PromptResult{
				Description: "Booking Weather Briefing",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`Brief me on booking %s.

Run check.booking for it and explain each violated minimum in plain language: which value was observed, what the student's level requires and how far off it is. If the booking is clear, say so and mention any value that is close to its limit.`, bookingID),
						},
					},
				},
			}, nil
		})

	return nil
}
