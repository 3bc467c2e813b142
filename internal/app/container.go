// Package app wires flightwatch's repositories, services and handlers.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/flightwatch/internal/audit"
	"github.com/felixgeelhaar/flightwatch/internal/notification"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/queries"
	schedulingServices "github.com/felixgeelhaar/flightwatch/internal/scheduling/application/services"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/subscribers"
	schedulingDomain "github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/infrastructure/reasoning"
	sharedApplication "github.com/felixgeelhaar/flightwatch/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/outbox"
	weatherServices "github.com/felixgeelhaar/flightwatch/internal/weather/application/services"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/internal/weather/infrastructure/openweather"
	weatherPersistence "github.com/felixgeelhaar/flightwatch/internal/weather/infrastructure/persistence"
	"github.com/felixgeelhaar/flightwatch/pkg/config"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

// Options tune how a container is assembled.
type Options struct {
	// Metrics defaults to NoopMetrics.
	Metrics observability.Metrics
	// Clock defaults to the system clock.
	Clock sharedDomain.Clock
	// Notifier and Recorder default to structured log writers.
	Notifier notification.Notifier
	Recorder audit.Recorder
}

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Clock   sharedDomain.Clock

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	BookingRepo   schedulingDomain.BookingRepository
	StudentRepo   schedulingDomain.StudentRepository
	ConflictRepo  schedulingDomain.ConflictRepository
	OptionSetRepo schedulingDomain.OptionSetRepository
	WeatherCache  weather.Cache
	OutboxRepo    outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Weather
	Minimums       *weather.MinimumsTable
	WeatherService *weatherServices.ObservationService

	// Reschedule reasoning
	ProviderChain *schedulingServices.ProviderChain
	Generator     *schedulingServices.RescheduleGenerator

	// Command Handlers
	CheckBookingHandler     *commands.CheckBookingHandler
	CheckAllActiveHandler   *commands.CheckAllActiveHandler
	ResolveConflictHandler  *commands.ResolveConflictHandler
	GenerateOptionsHandler  *commands.GenerateRescheduleOptionsHandler
	AcceptOptionHandler     *commands.AcceptOptionHandler
	RejectOptionsHandler    *commands.RejectOptionsHandler
	ExpireOptionSetsHandler *commands.ExpireOptionSetsHandler

	// Query Handlers
	GetConflictHandler       *queries.GetConflictHandler
	ListOpenConflictsHandler *queries.ListOpenConflictsHandler
	GetOptionSetHandler      *queries.GetOptionSetHandler

	// Events
	EventPublisher         eventbus.Publisher
	InProcessEventBus      *eventbus.InProcessEventBus
	NotificationSubscriber *subscribers.NotificationSubscriber
	OutboxProcessor        *outbox.Processor
}

// NewContainer connects to the configured database, applies migrations and
// wires every handler. An empty DATABASE_URL selects the local SQLite file.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NoopMetrics{}
	}
	if opts.Clock == nil {
		opts.Clock = sharedDomain.SystemClock{}
	}

	conn, err := database.NewConnection(ctx, database.Config{
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("connected to database", "driver", conn.Driver().String())

	c, err := newContainer(conn, cfg, logger, opts)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		c.connectRedis(ctx)
	}
	if err := c.wireEvents(opts); err != nil {
		c.Close()
		return nil, err
	}
	c.wireHandlers()
	return c, nil
}

// NewContainerWithConnection wires a container over an open connection with
// in-process event delivery and no external services. Tests and the MCP
// integration tests use it.
func NewContainerWithConnection(conn database.Connection, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NoopMetrics{}
	}
	if opts.Clock == nil {
		opts.Clock = sharedDomain.SystemClock{}
	}
	c, err := newContainer(conn, cfg, logger, opts)
	if err != nil {
		return nil, err
	}
	c.useInProcessBus(opts)
	c.wireHandlers()
	return c, nil
}

func newContainer(conn database.Connection, cfg *config.Config, logger *slog.Logger, opts Options) (*Container, error) {
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Metrics:  opts.Metrics,
		Clock:    opts.Clock,
		DBConn:   conn,
		DBDriver: conn.Driver(),
		Minimums: weather.DefaultMinimums(),
	}

	factory := NewRepositoryFactory(conn)

	var err error
	if c.BookingRepo, err = factory.BookingRepository(); err != nil {
		return nil, fmt.Errorf("failed to create booking repository: %w", err)
	}
	if c.StudentRepo, err = factory.StudentRepository(); err != nil {
		return nil, fmt.Errorf("failed to create student repository: %w", err)
	}
	if c.ConflictRepo, err = factory.ConflictRepository(); err != nil {
		return nil, fmt.Errorf("failed to create conflict repository: %w", err)
	}
	if c.OptionSetRepo, err = factory.OptionSetRepository(); err != nil {
		return nil, fmt.Errorf("failed to create option set repository: %w", err)
	}
	if c.WeatherCache, err = factory.WeatherCache(); err != nil {
		return nil, fmt.Errorf("failed to create weather cache: %w", err)
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		return nil, fmt.Errorf("failed to create outbox repository: %w", err)
	}
	c.UnitOfWork = database.NewUnitOfWork(conn)
	return c, nil
}

// connectRedis swaps the weather cache for Redis when it answers. An
// unreachable server leaves the database cache in place.
func (c *Container) connectRedis(ctx context.Context) {
	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		c.Logger.Warn("invalid Redis URL, weather cache stays in the database", "error", err)
		return
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		c.Logger.Warn("Redis not available, weather cache stays in the database", "error", err)
		return
	}
	c.RedisClient = client
	c.WeatherCache = weatherPersistence.NewRedisCache(client, c.Clock)
	c.Logger.Info("connected to Redis")
}

// wireEvents picks the outbox's publisher. With RABBITMQ_URL set events go to
// the broker, where the worker's consumer notifies recipients; otherwise they
// are dispatched in process.
func (c *Container) wireEvents(opts Options) error {
	if c.Config.RabbitMQURL == "" {
		c.useInProcessBus(opts)
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, dispatching events in process", "error", err)
		c.useInProcessBus(opts)
		return nil
	}
	c.EventPublisher = publisher
	c.NotificationSubscriber = c.newNotificationSubscriber(opts)
	c.newOutboxProcessor()
	return nil
}

func (c *Container) useInProcessBus(opts Options) {
	c.NotificationSubscriber = c.newNotificationSubscriber(opts)
	c.InProcessEventBus = eventbus.NewInProcessEventBus(c.Logger)
	c.InProcessEventBus.RegisterConsumer(c.NotificationSubscriber)
	c.EventPublisher = c.InProcessEventBus
	c.newOutboxProcessor()
}

func (c *Container) newNotificationSubscriber(opts Options) *subscribers.NotificationSubscriber {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notification.NewLogNotifier(c.Logger)
	}
	recorder := opts.Recorder
	if recorder == nil {
		recorder = audit.NewLogRecorder(c.Logger)
	}
	return subscribers.NewNotificationSubscriber(notifier, recorder, c.Logger)
}

func (c *Container) newOutboxProcessor() {
	cfg := outbox.DefaultProcessorConfig()
	if c.Config.OutboxPollInterval > 0 {
		cfg.PollInterval = c.Config.OutboxPollInterval
	}
	if c.Config.OutboxBatchSize > 0 {
		cfg.BatchSize = c.Config.OutboxBatchSize
	}
	if c.Config.OutboxMaxRetries > 0 {
		cfg.MaxRetries = c.Config.OutboxMaxRetries
	}
	if c.Config.OutboxRetentionDays > 0 {
		cfg.Retention = c.Config.OutboxRetention()
	}
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, cfg, c.Logger).
		WithMetrics(c.Metrics).
		WithClock(c.Clock)
}

func (c *Container) wireHandlers() {
	var fetcher weather.Fetcher
	if c.Config.OpenWeatherAPIKey != "" {
		fetcher = openweather.NewClient(openweather.Config{
			APIKey:  c.Config.OpenWeatherAPIKey,
			BaseURL: c.Config.OpenWeatherBaseURL,
			TTL:     c.Config.WeatherCacheTTL,
			Timeout: c.Config.WeatherFetchTimeout,
		}, c.Clock, c.Logger)
	} else {
		c.Logger.Debug("OPENWEATHER_API_KEY not set, only cached observations are used")
	}
	c.WeatherService = weatherServices.NewObservationService(
		c.WeatherCache, fetcher, c.Config.WeatherFetchTimeout, c.Clock, c.Metrics, c.Logger,
	)

	c.ProviderChain = schedulingServices.NewProviderChain(
		[]schedulingServices.SuggestionProvider{
			reasoning.NewOpenAIProvider(c.Config.OpenAIAPIKey, c.Config.OpenAIModel, c.Config.OpenAIBaseURL, c.Logger),
			reasoning.NewAnthropicProvider(reasoning.AnthropicConfig{
				APIKey:  c.Config.AnthropicAPIKey,
				Model:   c.Config.AnthropicModel,
				BaseURL: c.Config.AnthropicBaseURL,
				Timeout: c.Config.ReasoningTimeout,
			}, c.Logger),
		},
		c.Config.ReasoningTimeout,
		c.Metrics,
		c.Logger,
	)
	c.Generator = schedulingServices.NewRescheduleGenerator(c.ProviderChain, c.WeatherCache, c.Logger)

	c.CheckBookingHandler = commands.NewCheckBookingHandler(
		c.BookingRepo, c.StudentRepo, c.ConflictRepo, c.WeatherCache, c.Minimums,
		c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics, c.Logger,
	)
	c.GenerateOptionsHandler = commands.NewGenerateRescheduleOptionsHandler(
		c.BookingRepo, c.StudentRepo, c.ConflictRepo, c.OptionSetRepo, c.Generator,
		c.OutboxRepo, c.UnitOfWork, c.Clock, c.Logger,
	)
	c.CheckAllActiveHandler = commands.NewCheckAllActiveHandler(
		c.BookingRepo, c.WeatherService, c.CheckBookingHandler, c.GenerateOptionsHandler,
		commands.CheckAllActiveOptions{
			Concurrency:  c.Config.CheckConcurrency,
			AutoGenerate: c.Config.AutoGenerateOptions,
		},
		c.Metrics, c.Logger,
	)
	c.ResolveConflictHandler = commands.NewResolveConflictHandler(
		c.ConflictRepo, c.BookingRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics, c.Logger,
	)
	c.AcceptOptionHandler = commands.NewAcceptOptionHandler(
		c.OptionSetRepo, c.BookingRepo, c.ConflictRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics, c.Logger,
	)
	c.RejectOptionsHandler = commands.NewRejectOptionsHandler(
		c.OptionSetRepo, c.BookingRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Logger,
	)
	c.ExpireOptionSetsHandler = commands.NewExpireOptionSetsHandler(c.OptionSetRepo, c.UnitOfWork, c.Clock, c.Logger)

	c.GetConflictHandler = queries.NewGetConflictHandler(c.ConflictRepo, c.WeatherCache)
	c.ListOpenConflictsHandler = queries.NewListOpenConflictsHandler(c.ConflictRepo)
	c.GetOptionSetHandler = queries.NewGetOptionSetHandler(c.OptionSetRepo)
}

// FlushOutbox publishes pending outbox messages once. Short-lived processes
// call it after each command so in-process subscribers see the events.
func (c *Container) FlushOutbox(ctx context.Context) {
	if c.OutboxProcessor == nil {
		return
	}
	if err := c.OutboxProcessor.ProcessOnce(ctx); err != nil {
		c.Logger.Warn("failed to flush outbox", "error", err)
	}
}

// RegisterHealthChecks adds the container's dependencies to registry.
func (c *Container) RegisterHealthChecks(registry *observability.HealthRegistry) {
	registry.Register("database", observability.PingChecker("database", observability.HealthStatusUnhealthy, c.DBConn.Ping))
	if c.RedisClient != nil {
		registry.Register("redis", observability.PingChecker("redis", observability.HealthStatusDegraded, func(ctx context.Context) error {
			return c.RedisClient.Ping(ctx).Err()
		}))
	}
	if pinger, ok := c.EventPublisher.(interface{ Ping(context.Context) error }); ok {
		registry.Register("rabbitmq", observability.PingChecker("rabbitmq", observability.HealthStatusDegraded, pinger.Ping))
	}
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil && c.OutboxProcessor.IsRunning() {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver.String())
		}
	}
}
