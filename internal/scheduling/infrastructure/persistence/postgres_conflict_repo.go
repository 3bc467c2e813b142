package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// PostgresConflictRepository implements domain.ConflictRepository for PostgreSQL.
type PostgresConflictRepository struct {
	conn database.Connection
}

// NewPostgresConflictRepository creates a new PostgreSQL conflict repository.
func NewPostgresConflictRepository(conn database.Connection) *PostgresConflictRepository {
	return &PostgresConflictRepository{conn: conn}
}

func (r *PostgresConflictRepository) UpsertOpen(ctx context.Context, c *domain.Conflict) (bool, error) {
	violations, err := json.Marshal(c.Violations())
	if err != nil {
		return false, fmt.Errorf("encode violations: %w", err)
	}
	observation := uuid.NullUUID{UUID: c.ObservationID(), Valid: c.ObservationID() != uuid.Nil}

	var storedID uuid.UUID
	err = database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		INSERT INTO conflicts (`+conflictColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NULL, NULL, $8, $9)
		ON CONFLICT (booking_id) WHERE resolved = FALSE DO UPDATE SET
			observation_id = EXCLUDED.observation_id,
			training_level = EXCLUDED.training_level,
			violations = EXCLUDED.violations,
			severity = EXCLUDED.severity,
			detected_at = EXCLUDED.detected_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		c.ID(), c.BookingID(), observation, string(c.TrainingLevel()), violations,
		string(c.Severity()), c.DetectedAt(), c.CreatedAt(), c.UpdatedAt(),
	).Scan(&storedID)
	if err != nil {
		return false, fmt.Errorf("upsert conflict for booking %s: %w", c.BookingID(), err)
	}

	if storedID == c.ID() {
		return true, nil
	}
	c.SetID(storedID)
	return false, nil
}

func (r *PostgresConflictRepository) Save(ctx context.Context, c *domain.Conflict) error {
	var note *string
	if n := c.ResolutionNote(); n != "" {
		note = &n
	}
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE conflicts
		SET resolved = $2, resolved_at = $3, resolution_note = $4, updated_at = $5
		WHERE id = $1`,
		c.ID(), c.IsResolved(), c.ResolvedAt(), note, c.UpdatedAt())
	return expectOne(res, err, domain.ErrConflictNotFound)
}

func (r *PostgresConflictRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Conflict, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+conflictColumns+` FROM conflicts WHERE id = $1`, id)

	c, err := scanPostgresConflict(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrConflictNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conflict %s: %w", id, err)
	}
	return c, nil
}

func (r *PostgresConflictRepository) FindOpenByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Conflict, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+conflictColumns+` FROM conflicts WHERE booking_id = $1 AND resolved = FALSE`, bookingID)

	c, err := scanPostgresConflict(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open conflict for booking %s: %w", bookingID, err)
	}
	return c, nil
}

func (r *PostgresConflictRepository) ListOpen(ctx context.Context, limit int) ([]*domain.Conflict, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT`+conflictColumns+`
		FROM conflicts
		WHERE resolved = FALSE
		ORDER BY detected_at DESC
		LIMIT $1`, convert.IntToInt32Clamped(limit))
	if err != nil {
		return nil, fmt.Errorf("list open conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []*domain.Conflict
	for rows.Next() {
		c, err := scanPostgresConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func scanPostgresConflict(row database.Row) (*domain.Conflict, error) {
	var (
		id, bookingID                    uuid.UUID
		observation                      uuid.NullUUID
		level, severity                  string
		violationsJSON                   []byte
		detectedAt, createdAt, updatedAt time.Time
		resolved                         bool
		resolvedAt                       *time.Time
		note                             *string
	)
	if err := row.Scan(&id, &bookingID, &observation, &level, &violationsJSON, &severity,
		&detectedAt, &resolved, &resolvedAt, &note, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var violations []string
	if err := json.Unmarshal(violationsJSON, &violations); err != nil {
		return nil, fmt.Errorf("decode violations: %w", err)
	}
	if resolvedAt != nil {
		t := resolvedAt.UTC()
		resolvedAt = &t
	}
	var resolutionNote string
	if note != nil {
		resolutionNote = *note
	}

	return domain.RehydrateConflict(
		id, bookingID, observation.UUID,
		weather.TrainingLevel(level),
		violations,
		weather.Severity(severity),
		detectedAt.UTC(),
		resolved,
		resolvedAt,
		resolutionNote,
		createdAt.UTC(), updatedAt.UTC(),
	), nil
}
