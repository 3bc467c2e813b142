package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/internal/app"
	mcpinternal "github.com/felixgeelhaar/flightwatch/internal/mcp"
	"github.com/felixgeelhaar/flightwatch/pkg/config"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Serve the check, conflict and reschedule operations as MCP tools on
MCP_ADDR. Set MCP_AUTH_TOKEN to require a bearer token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		logger := observability.LoggerFromEnv(cfg.LogLevel)
		container, err := app.NewContainer(ctx, cfg, logger, app.Options{})
		if err != nil {
			return err
		}
		defer container.Close()

		// Tools never flush the outbox; a long-lived server polls it.
		if cfg.OutboxProcessorEnabled {
			container.OutboxProcessor.Start(ctx)
		}
		err = mcpinternal.Serve(ctx, cfg, cli.NewApp(container), logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
