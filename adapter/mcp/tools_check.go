package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
)

type checkBookingInput struct {
	BookingID string `json:"booking_id" jsonschema:"required"`
}

type checkAllInput struct {
	From        string `json:"from,omitempty"`
	WindowHours int    `json:"window_hours,omitempty"`
}

const defaultWindowHours = 48

func registerCheckTools(srv *mcp.Server, t *tools) {
	srv.Tool("check.booking").
		Description("Check one booking against current weather and the student's minimums").
		Handler(t.checkBooking)

	srv.Tool("check.all").
		Description("Check every active booking departing within a window (default 48 hours from now)").
		Handler(t.checkAll)
}

func (t *tools) checkBooking(ctx context.Context, input checkBookingInput) (*commands.CheckBookingResult, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *commands.CheckAllActiveHandler { return a.CheckAllActiveHandler })
	if err != nil {
		return nil, err
	}
	bookingID, err := parseUUID("booking_id", input.BookingID)
	if err != nil {
		return nil, err
	}
	return h.CheckOne(ctx, commands.CheckBookingCommand{BookingID: bookingID, Actor: Actor})
}

func (t *tools) checkAll(ctx context.Context, input checkAllInput) (*commands.CheckAllActiveResult, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *commands.CheckAllActiveHandler { return a.CheckAllActiveHandler })
	if err != nil {
		return nil, err
	}
	start, err := parseOptionalTime("from", input.From, t.now().UTC())
	if err != nil {
		return nil, err
	}
	hours := input.WindowHours
	if hours == 0 {
		hours = defaultWindowHours
	}
	if hours < 0 {
		return nil, fmt.Errorf("window_hours must be positive")
	}
	return h.Handle(ctx, commands.CheckAllActiveCommand{
		Start: start,
		End:   start.Add(time.Duration(hours) * time.Hour),
		Actor: Actor,
	})
}
