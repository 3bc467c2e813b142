package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/felixgeelhaar/flightwatch/internal/app"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/flightwatch/pkg/config"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv("info")
	logger.Info("starting flightwatch worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.IsDevelopment() {
		logger = observability.LoggerFromEnv("debug")
	}

	metrics := observability.NewPrometheusMetrics(prometheus.NewRegistry(), logger)

	container, err := app.NewContainer(ctx, cfg, logger, app.Options{Metrics: metrics})
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	if cfg.OutboxProcessorEnabled {
		container.OutboxProcessor.Start(ctx)
	} else {
		logger.Info("outbox processor disabled")
	}

	// Broker events are consumed here; without a broker the in-process bus
	// already delivers them.
	if container.InProcessEventBus == nil {
		registry := eventbus.NewConsumerRegistry(logger)
		registry.Register(container.NotificationSubscriber)
		consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
			URL:    cfg.RabbitMQURL,
			Logger: logger,
		}, registry)
		if err != nil {
			logger.Error("failed to start event consumer", "error", err)
			os.Exit(1)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event consumer stopped", "error", err)
				cancel()
			}
		}()
	}

	if cfg.WorkerHealthAddr != "" {
		health := observability.NewHealthRegistry(2 * time.Second)
		container.RegisterHealthChecks(health)

		mux := http.NewServeMux()
		mux.Handle("/healthz", observability.LivenessHandler())
		mux.Handle("/readyz", health.ReadinessHandler())
		mux.Handle("/metrics", metrics.Handler())

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	logger.Info("worker running",
		"check_interval", cfg.CheckInterval,
		"check_window", cfg.CheckWindow,
		"sweep_interval", cfg.SweepInterval,
	)
	runJobs(ctx, logger, metrics, workerJobs(container, logger))

	logger.Info("worker stopped")
}
