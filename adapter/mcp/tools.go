package mcp

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
)

// Actor names MCP clients as the source of the changes they make.
const Actor = "mcp"

// ToolDependencies provides handlers and context for MCP tools.
type ToolDependencies struct {
	App *cli.App
	// Now defaults to time.Now.
	Now func() time.Time
}

// tools implements every MCP tool over the CLI app's handlers.
type tools struct {
	app *cli.App
	now func() time.Time
}

func newTools(deps ToolDependencies) *tools {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &tools{app: deps.App, now: now}
}

// RegisterTools registers MCP tools that mirror CLI functionality.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.App == nil {
		return errors.New("app is required")
	}

	t := newTools(deps)
	registerCheckTools(srv, t)
	registerConflictTools(srv, t)
	registerRescheduleTools(srv, t)
	return nil
}
