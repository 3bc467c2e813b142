package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// PostgresCache stores observations in PostgreSQL.
type PostgresCache struct {
	conn database.Connection
}

// NewPostgresCache creates a PostgreSQL-backed cache.
func NewPostgresCache(conn database.Connection) *PostgresCache {
	return &PostgresCache{conn: conn}
}

func (c *PostgresCache) Lookup(ctx context.Context, loc domain.Location, now time.Time) (*domain.Observation, error) {
	row := database.ExecutorFromContext(ctx, c.conn).QueryRow(ctx, `
		SELECT`+observationColumns+`
		FROM weather_observations
		WHERE location_key = $1 AND expires_at > $2
		ORDER BY observed_at DESC
		LIMIT 1`, loc.Key(), now)

	obs, err := scanPostgresObservation(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup weather for %s: %w", loc.Key(), err)
	}
	return obs, nil
}

func (c *PostgresCache) Store(ctx context.Context, obs *domain.Observation) error {
	_, err := database.ExecutorFromContext(ctx, c.conn).Exec(ctx, `
		INSERT INTO weather_observations (
			id, location_key, location_name, latitude, longitude, observed_at, fetched_at,
			expires_at, visibility_mi, ceiling_ft, wind_speed_kt, wind_direction_deg,
			temperature_c, conditions, thunderstorms, icing
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		obs.ID, obs.Location.Key(), obs.Location.Name, obs.Location.Latitude, obs.Location.Longitude,
		obs.ObservedAt, obs.FetchedAt, obs.ExpiresAt, obs.VisibilityMi, obs.CeilingFt,
		obs.WindSpeedKt, obs.WindDirectionDeg, obs.TemperatureC, obs.Conditions,
		obs.Thunderstorms, obs.Icing,
	)
	if err != nil {
		return fmt.Errorf("store weather observation: %w", err)
	}
	return nil
}

func (c *PostgresCache) FindByID(ctx context.Context, id uuid.UUID) (*domain.Observation, error) {
	row := database.ExecutorFromContext(ctx, c.conn).QueryRow(ctx, `
		SELECT`+observationColumns+`
		FROM weather_observations
		WHERE id = $1`, id)

	obs, err := scanPostgresObservation(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrObservationNotFound
	}
	return obs, err
}

func (c *PostgresCache) Sweep(ctx context.Context, now time.Time) (int64, error) {
	res, err := database.ExecutorFromContext(ctx, c.conn).Exec(ctx,
		`DELETE FROM weather_observations WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("sweep weather observations: %w", err)
	}
	return res.RowsAffected()
}

func scanPostgresObservation(row database.Row) (*domain.Observation, error) {
	var obs domain.Observation
	err := row.Scan(&obs.ID, &obs.Location.Name, &obs.Location.Latitude, &obs.Location.Longitude,
		&obs.ObservedAt, &obs.FetchedAt, &obs.ExpiresAt, &obs.VisibilityMi, &obs.CeilingFt,
		&obs.WindSpeedKt, &obs.WindDirectionDeg, &obs.TemperatureC, &obs.Conditions,
		&obs.Thunderstorms, &obs.Icing)
	if err != nil {
		return nil, err
	}
	obs.ObservedAt = obs.ObservedAt.UTC()
	obs.FetchedAt = obs.FetchedAt.UTC()
	obs.ExpiresAt = obs.ExpiresAt.UTC()
	return &obs, nil
}
