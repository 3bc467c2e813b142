// Package persistence implements the weather observation cache on SQLite,
// PostgreSQL and Redis.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

const observationColumns = `
	id, location_name, latitude, longitude, observed_at, fetched_at, expires_at,
	visibility_mi, ceiling_ft, wind_speed_kt, wind_direction_deg, temperature_c,
	conditions, thunderstorms, icing`

// SQLiteCache stores observations in the weather_observations table.
type SQLiteCache struct {
	conn database.Connection
}

// NewSQLiteCache creates a SQLite-backed cache.
func NewSQLiteCache(conn database.Connection) *SQLiteCache {
	return &SQLiteCache{conn: conn}
}

func (c *SQLiteCache) Lookup(ctx context.Context, loc domain.Location, now time.Time) (*domain.Observation, error) {
	row := database.ExecutorFromContext(ctx, c.conn).QueryRow(ctx, `
		SELECT`+observationColumns+`
		FROM weather_observations
		WHERE location_key = ? AND expires_at > ?
		ORDER BY observed_at DESC
		LIMIT 1`, loc.Key(), sqlite.FormatTime(now))

	obs, err := scanSQLiteObservation(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup weather for %s: %w", loc.Key(), err)
	}
	return obs, nil
}

func (c *SQLiteCache) Store(ctx context.Context, obs *domain.Observation) error {
	_, err := database.ExecutorFromContext(ctx, c.conn).Exec(ctx, `
		INSERT INTO weather_observations (
			id, location_key, location_name, latitude, longitude, observed_at, fetched_at,
			expires_at, visibility_mi, ceiling_ft, wind_speed_kt, wind_direction_deg,
			temperature_c, conditions, thunderstorms, icing
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		obs.ID.String(),
		obs.Location.Key(),
		obs.Location.Name,
		obs.Location.Latitude,
		obs.Location.Longitude,
		sqlite.FormatTime(obs.ObservedAt),
		sqlite.FormatTime(obs.FetchedAt),
		sqlite.FormatTime(obs.ExpiresAt),
		obs.VisibilityMi,
		sqlite.NullFloat(obs.CeilingFt),
		obs.WindSpeedKt,
		sqlite.NullFloat(obs.WindDirectionDeg),
		obs.TemperatureC,
		obs.Conditions,
		obs.Thunderstorms,
		obs.Icing,
	)
	if err != nil {
		return fmt.Errorf("store weather observation: %w", err)
	}
	return nil
}

func (c *SQLiteCache) FindByID(ctx context.Context, id uuid.UUID) (*domain.Observation, error) {
	row := database.ExecutorFromContext(ctx, c.conn).QueryRow(ctx, `
		SELECT`+observationColumns+`
		FROM weather_observations
		WHERE id = ?`, id.String())

	obs, err := scanSQLiteObservation(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrObservationNotFound
	}
	return obs, err
}

func (c *SQLiteCache) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res, err := database.ExecutorFromContext(ctx, c.conn).Exec(ctx,
		`DELETE FROM weather_observations WHERE expires_at <= ?`, sqlite.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("sweep weather observations: %w", err)
	}
	return res.RowsAffected()
}

func scanSQLiteObservation(row database.Row) (*domain.Observation, error) {
	var (
		obs                                domain.Observation
		id, observedAt, fetchedAt, expires string
		ceiling, windDirection             sql.NullFloat64
	)
	err := row.Scan(&id, &obs.Location.Name, &obs.Location.Latitude, &obs.Location.Longitude,
		&observedAt, &fetchedAt, &expires, &obs.VisibilityMi, &ceiling, &obs.WindSpeedKt,
		&windDirection, &obs.TemperatureC, &obs.Conditions, &obs.Thunderstorms, &obs.Icing)
	if err != nil {
		return nil, err
	}

	if obs.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if obs.ObservedAt, err = sqlite.ParseTime(observedAt); err != nil {
		return nil, err
	}
	if obs.FetchedAt, err = sqlite.ParseTime(fetchedAt); err != nil {
		return nil, err
	}
	if obs.ExpiresAt, err = sqlite.ParseTime(expires); err != nil {
		return nil, err
	}
	obs.CeilingFt = sqlite.FloatPtr(ceiling)
	obs.WindDirectionDeg = sqlite.FloatPtr(windDirection)
	return &obs, nil
}
