package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	"github.com/felixgeelhaar/flightwatch/adapter/cli/check"
	"github.com/felixgeelhaar/flightwatch/adapter/cli/conflict"
	"github.com/felixgeelhaar/flightwatch/adapter/cli/mcp"
	"github.com/felixgeelhaar/flightwatch/adapter/cli/reschedule"
	"github.com/felixgeelhaar/flightwatch/internal/app"
	"github.com/felixgeelhaar/flightwatch/pkg/config"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv("warn")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}
	if cfg.IsDevelopment() && os.Getenv("FLIGHTWATCH_LOG_LEVEL") == "" {
		logger = observability.LoggerFromEnv(cfg.LogLevel)
	}
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger, app.Options{})
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// Commands report ErrNotInitialized without a database.
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
		cli.SetApp(nil)
	} else {
		defer container.Close()
		cli.SetApp(cli.NewApp(container))
	}

	cli.AddCommand(check.Cmd)
	cli.AddCommand(conflict.Cmd)
	cli.AddCommand(reschedule.Cmd)
	cli.AddCommand(mcp.Cmd)

	cli.Execute(ctx)
}
