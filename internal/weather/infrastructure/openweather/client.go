// Package openweather fetches current conditions from the OpenWeatherMap
// API and converts them into aviation units.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.openweathermap.org"

// Config configures the client.
type Config struct {
	APIKey  string
	BaseURL string
	// TTL is how long fetched observations stay valid in the cache.
	TTL     time.Duration
	Timeout time.Duration
}

// Client implements domain.Fetcher.
type Client struct {
	client *resty.Client
	apiKey string
	ttl    time.Duration
	clock  sharedDomain.Clock
	logger *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(cfg Config, clock sharedDomain.Clock, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")

	return &Client{
		client: client,
		apiKey: cfg.APIKey,
		ttl:    cfg.TTL,
		clock:  clock,
		logger: logger,
	}
}

// FetchObservation returns the current conditions at loc. Every failure is
// wrapped in domain.ErrFetchFailed.
func (c *Client) FetchObservation(ctx context.Context, loc domain.Location) (*domain.Observation, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: OPENWEATHER_API_KEY is not set", domain.ErrFetchFailed)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"lat":   strconv.FormatFloat(loc.Latitude, 'f', 4, 64),
			"lon":   strconv.FormatFloat(loc.Longitude, 'f', 4, 64),
			"appid": c.apiKey,
		}).
		Get("/data/2.5/weather")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: HTTP %d from %s", domain.ErrFetchFailed, resp.StatusCode(), loc)
	}

	var payload currentWeather
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrFetchFailed, err)
	}

	obs := payload.toObservation(loc, c.clock.Now(), c.ttl)
	c.logger.DebugContext(ctx, "fetched weather",
		"location", loc.Key(),
		"conditions", obs.Conditions,
		"visibility_mi", obs.VisibilityMi,
		"wind_kt", obs.WindSpeedKt,
	)
	return obs, nil
}
