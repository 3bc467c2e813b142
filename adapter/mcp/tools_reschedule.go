package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

type generateInput struct {
	BookingID  string `json:"booking_id" jsonschema:"required"`
	ConflictID string `json:"conflict_id,omitempty"`
}

type acceptInput struct {
	OptionSetID string `json:"option_set_id" jsonschema:"required"`
	Index       int    `json:"index"`
}

type rejectInput struct {
	OptionSetID string `json:"option_set_id" jsonschema:"required"`
	Reason      string `json:"reason,omitempty"`
}

type optionSetInput struct {
	OptionSetID string `json:"option_set_id,omitempty"`
	BookingID   string `json:"booking_id,omitempty"`
}

func registerRescheduleTools(srv *mcp.Server, t *tools) {
	srv.Tool("reschedule.generate").
		Description("Generate three alternative slots for a booking with an open weather conflict").
		Handler(t.generateOptions)

	srv.Tool("reschedule.accept").
		Description("Accept one option (index 0-2): moves the booking and resolves its conflict").
		Handler(t.acceptOption)

	srv.Tool("reschedule.reject").
		Description("Reject every option of a pending set").
		Handler(t.rejectOptions)

	srv.Tool("reschedule.show").
		Description("Show an option set by ID, or the pending set of a booking").
		Handler(t.showOptionSet)
}

func (t *tools) generateOptions(ctx context.Context, input generateInput) (*queries.OptionSetDTO, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *commands.GenerateRescheduleOptionsHandler { return a.GenerateOptionsHandler })
	if err != nil {
		return nil, err
	}
	q, err := requireHandler(t.app, func(a *cli.App) *queries.GetOptionSetHandler { return a.GetOptionSetHandler })
	if err != nil {
		return nil, err
	}
	bookingID, err := parseUUID("booking_id", input.BookingID)
	if err != nil {
		return nil, err
	}
	conflictID, err := parseOptionalUUID("conflict_id", input.ConflictID)
	if err != nil {
		return nil, err
	}

	res, err := h.Handle(ctx, commands.GenerateRescheduleOptionsCommand{
		BookingID:  bookingID,
		ConflictID: conflictID,
		Actor:      Actor,
	})
	if err != nil {
		return nil, err
	}
	return q.Handle(ctx, queries.GetOptionSetQuery{OptionSetID: res.OptionSetID})
}

func (t *tools) acceptOption(ctx context.Context, input acceptInput) (*commands.AcceptOptionResult, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *commands.AcceptOptionHandler { return a.AcceptOptionHandler })
	if err != nil {
		return nil, err
	}
	setID, err := parseUUID("option_set_id", input.OptionSetID)
	if err != nil {
		return nil, err
	}
	return h.Handle(ctx, commands.AcceptOptionCommand{OptionSetID: setID, Index: input.Index, Actor: Actor})
}

func (t *tools) rejectOptions(ctx context.Context, input rejectInput) (map[string]any, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *commands.RejectOptionsHandler { return a.RejectOptionsHandler })
	if err != nil {
		return nil, err
	}
	setID, err := parseUUID("option_set_id", input.OptionSetID)
	if err != nil {
		return nil, err
	}
	if err := h.Handle(ctx, commands.RejectOptionsCommand{OptionSetID: setID, Reason: input.Reason, Actor: Actor}); err != nil {
		return nil, err
	}
	return map[string]any{"option_set_id": setID, "status": "rejected"}, nil
}

func (t *tools) showOptionSet(ctx context.Context, input optionSetInput) (*queries.OptionSetDTO, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *queries.GetOptionSetHandler { return a.GetOptionSetHandler })
	if err != nil {
		return nil, err
	}
	var query queries.GetOptionSetQuery
	switch {
	case input.OptionSetID != "":
		if query.OptionSetID, err = parseUUID("option_set_id", input.OptionSetID); err != nil {
			return nil, err
		}
	case input.BookingID != "":
		if query.BookingID, err = parseUUID("booking_id", input.BookingID); err != nil {
			return nil, err
		}
	default:
		return nil, errors.New("option_set_id or booking_id is required")
	}
	return h.Handle(ctx, query)
}
