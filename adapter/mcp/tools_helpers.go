package mcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
)

var errNoDatabase = errors.New("tool requires database connection")

func parseUUID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, fmt.Errorf("%s is required", field)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", field, err)
	}
	return id, nil
}

func parseOptionalUUID(field, value string) (uuid.UUID, error) {
	if value == "" {
		return uuid.Nil, nil
	}
	return parseUUID(field, value)
}

func parseOptionalTime(field, value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s, use RFC3339: %w", field, err)
	}
	return parsed.UTC(), nil
}

func requireHandler[H any](app *cli.App, pick func(*cli.App) *H) (*H, error) {
	if app == nil {
		return nil, errNoDatabase
	}
	h := pick(app)
	if h == nil {
		return nil, errNoDatabase
	}
	return h, nil
}
