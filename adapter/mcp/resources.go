package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

const openConflictsLimit = 100

// RegisterResources registers MCP resources that expose flightwatch data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	t := newTools(deps)

	srv.Resource("flightwatch://conflicts/open").
		Name("Open Conflicts").
		Description("Unresolved weather conflicts, soonest flight first").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			conflicts, err := t.listConflicts(ctx, conflictListInput{Limit: openConflictsLimit})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, conflicts)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}

