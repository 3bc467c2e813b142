// Package config loads flightwatch settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// Database. An empty DatabaseURL selects SQLite at SQLitePath.
	DatabaseURL string
	SQLitePath  string

	// Redis backs the shared weather cache when set.
	RedisURL string

	// RabbitMQ carries outbox events to the notification consumer when set.
	RabbitMQURL string

	// Weather
	OpenWeatherAPIKey   string
	OpenWeatherBaseURL  string
	WeatherCacheTTL     time.Duration
	WeatherFetchTimeout time.Duration

	// Reasoning providers. A provider without an API key is skipped.
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	ReasoningTimeout time.Duration

	// Batch checks
	CheckInterval       time.Duration
	CheckWindow         time.Duration
	CheckConcurrency    int
	AutoGenerateOptions bool
	SweepInterval       time.Duration

	// Outbox
	OutboxPollInterval     time.Duration
	OutboxBatchSize        int
	OutboxMaxRetries       int
	OutboxRetentionDays    int
	OutboxCleanupInterval  time.Duration
	OutboxProcessorEnabled bool

	// Worker
	WorkerHealthAddr string

	// MCP
	MCPAddr      string
	MCPAuthToken string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		OpenWeatherAPIKey:   getEnv("OPENWEATHER_API_KEY", ""),
		OpenWeatherBaseURL:  getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		WeatherCacheTTL:     getDurationEnv("WEATHER_CACHE_TTL", 30*time.Minute),
		WeatherFetchTimeout: getDurationEnv("WEATHER_FETCH_TIMEOUT", 10*time.Second),

		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    getEnv("OPENAI_BASE_URL", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
		ReasoningTimeout: getDurationEnv("REASONING_TIMEOUT", 30*time.Second),

		CheckInterval:       getDurationEnv("CHECK_INTERVAL", 15*time.Minute),
		CheckWindow:         getDurationEnv("CHECK_WINDOW", 48*time.Hour),
		CheckConcurrency:    getIntEnv("CHECK_CONCURRENCY", 4),
		AutoGenerateOptions: getBoolEnv("AUTO_GENERATE_OPTIONS", true),
		SweepInterval:       getDurationEnv("SWEEP_INTERVAL", time.Hour),

		OutboxPollInterval:     getDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond),
		OutboxBatchSize:        getIntEnv("OUTBOX_BATCH_SIZE", 100),
		OutboxMaxRetries:       getIntEnv("OUTBOX_MAX_RETRIES", 5),
		OutboxRetentionDays:    getIntEnv("OUTBOX_RETENTION_DAYS", 7),
		OutboxCleanupInterval:  getDurationEnv("OUTBOX_CLEANUP_INTERVAL", 24*time.Hour),
		OutboxProcessorEnabled: getBoolEnv("OUTBOX_PROCESSOR_ENABLED", true),

		WorkerHealthAddr: getEnv("WORKER_HEALTH_ADDR", "0.0.0.0:8081"),

		MCPAddr:      getEnv("MCP_ADDR", "0.0.0.0:8082"),
		MCPAuthToken: getEnv("MCP_AUTH_TOKEN", ""),
	}

	if cfg.CheckConcurrency < 1 {
		cfg.CheckConcurrency = 1
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LocalMode reports whether the embedded SQLite store is used.
func (c *Config) LocalMode() bool {
	return c.DatabaseURL == ""
}

// OutboxRetention converts the retention days into a duration.
func (c *Config) OutboxRetention() time.Duration {
	return time.Duration(c.OutboxRetentionDays) * 24 * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
