package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
)

type conflictResolveInput struct {
	ConflictID string `json:"conflict_id" jsonschema:"required"`
	Reason     string `json:"reason,omitempty"`
}

type conflictIDInput struct {
	ConflictID string `json:"conflict_id" jsonschema:"required"`
}

type conflictListInput struct {
	Limit int `json:"limit,omitempty"`
}

func registerConflictTools(srv *mcp.Server, t *tools) {
	srv.Tool("conflict.resolve").
		Description("Resolve a weather conflict manually; the booking is left unchanged").
		Handler(t.resolveConflict)

	srv.Tool("conflict.show").
		Description("Show a weather conflict").
		Handler(t.showConflict)

	srv.Tool("conflict.list").
		Description("List unresolved weather conflicts, soonest flight first").
		Handler(t.listConflicts)
}

func (t *tools) resolveConflict(ctx context.Context, input conflictResolveInput) (*commands.ResolveConflictResult, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *commands.ResolveConflictHandler { return a.ResolveConflictHandler })
	if err != nil {
		return nil, err
	}
	id, err := parseUUID("conflict_id", input.ConflictID)
	if err != nil {
		return nil, err
	}
	return h.Handle(ctx, commands.ResolveConflictCommand{ConflictID: id, Reason: input.Reason, Actor: Actor})
}

func (t *tools) showConflict(ctx context.Context, input conflictIDInput) (*queries.ConflictDTO, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *queries.GetConflictHandler { return a.GetConflictHandler })
	if err != nil {
		return nil, err
	}
	id, err := parseUUID("conflict_id", input.ConflictID)
	if err != nil {
		return nil, err
	}
	return h.Handle(ctx, queries.GetConflictQuery{ConflictID: id})
}

func (t *tools) listConflicts(ctx context.Context, input conflictListInput) ([]queries.ConflictDTO, error) {
	h, err := requireHandler(t.app, func(a *cli.App) *queries.ListOpenConflictsHandler { return a.ListOpenConflictsHandler })
	if err != nil {
		return nil, err
	}
	return h.Handle(ctx, queries.ListOpenConflictsQuery{Limit: input.Limit})
}
