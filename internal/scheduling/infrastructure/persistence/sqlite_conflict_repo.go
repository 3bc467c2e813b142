package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/sqlite"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

const conflictColumns = `
	id, booking_id, observation_id, training_level, violations, severity,
	detected_at, resolved, resolved_at, resolution_note, created_at, updated_at`

// SQLiteConflictRepository implements domain.ConflictRepository for SQLite.
type SQLiteConflictRepository struct {
	conn database.Connection
}

// NewSQLiteConflictRepository creates a new SQLite conflict repository.
func NewSQLiteConflictRepository(conn database.Connection) *SQLiteConflictRepository {
	return &SQLiteConflictRepository{conn: conn}
}

func (r *SQLiteConflictRepository) UpsertOpen(ctx context.Context, c *domain.Conflict) (bool, error) {
	violations, err := json.Marshal(c.Violations())
	if err != nil {
		return false, fmt.Errorf("encode violations: %w", err)
	}

	var storedID string
	err = database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		INSERT INTO conflicts (`+conflictColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, NULL, NULL, ?, ?)
		ON CONFLICT (booking_id) WHERE resolved = 0 DO UPDATE SET
			observation_id = excluded.observation_id,
			training_level = excluded.training_level,
			violations = excluded.violations,
			severity = excluded.severity,
			detected_at = excluded.detected_at,
			updated_at = excluded.updated_at
		RETURNING id`,
		c.ID().String(),
		c.BookingID().String(),
		sqlite.NullUUID(c.ObservationID()),
		string(c.TrainingLevel()),
		string(violations),
		string(c.Severity()),
		sqlite.FormatTime(c.DetectedAt()),
		sqlite.FormatTime(c.CreatedAt()),
		sqlite.FormatTime(c.UpdatedAt()),
	).Scan(&storedID)
	if err != nil {
		return false, fmt.Errorf("upsert conflict for booking %s: %w", c.BookingID(), err)
	}

	id, err := uuid.Parse(storedID)
	if err != nil {
		return false, err
	}
	if id == c.ID() {
		return true, nil
	}
	c.SetID(id)
	return false, nil
}

func (r *SQLiteConflictRepository) Save(ctx context.Context, c *domain.Conflict) error {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE conflicts
		SET resolved = ?, resolved_at = ?, resolution_note = ?, updated_at = ?
		WHERE id = ?`,
		c.IsResolved(),
		sqlite.FormatNullTime(c.ResolvedAt()),
		nullText(c.ResolutionNote()),
		sqlite.FormatTime(c.UpdatedAt()),
		c.ID().String(),
	)
	return expectOne(res, err, domain.ErrConflictNotFound)
}

func (r *SQLiteConflictRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Conflict, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+conflictColumns+` FROM conflicts WHERE id = ?`, id.String())

	c, err := scanSQLiteConflict(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrConflictNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find conflict %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteConflictRepository) FindOpenByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Conflict, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+conflictColumns+` FROM conflicts WHERE booking_id = ? AND resolved = 0`, bookingID.String())

	c, err := scanSQLiteConflict(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open conflict for booking %s: %w", bookingID, err)
	}
	return c, nil
}

func (r *SQLiteConflictRepository) ListOpen(ctx context.Context, limit int) ([]*domain.Conflict, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT`+conflictColumns+`
		FROM conflicts
		WHERE resolved = 0
		ORDER BY detected_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list open conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []*domain.Conflict
	for rows.Next() {
		c, err := scanSQLiteConflict(rows)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

func scanSQLiteConflict(row database.Row) (*domain.Conflict, error) {
	var (
		id, bookingID, level, violationsJSON, severity string
		detectedAt, createdAt, updatedAt               string
		observationID, resolvedAtStr, note             sql.NullString
		resolved                                       bool
	)
	if err := row.Scan(&id, &bookingID, &observationID, &level, &violationsJSON, &severity,
		&detectedAt, &resolved, &resolvedAtStr, &note, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	bid, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, err
	}
	oid, err := sqlite.ParseNullUUID(observationID)
	if err != nil {
		return nil, err
	}
	var violations []string
	if err := json.Unmarshal([]byte(violationsJSON), &violations); err != nil {
		return nil, fmt.Errorf("decode violations: %w", err)
	}
	detected, err := sqlite.ParseTime(detectedAt)
	if err != nil {
		return nil, err
	}
	resolvedAt, err := sqlite.ParseNullTime(resolvedAtStr)
	if err != nil {
		return nil, err
	}
	created, err := sqlite.ParseTime(createdAt)
	if err != nil {
		return nil, err
	}
	updated, err := sqlite.ParseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateConflict(
		cid, bid, oid,
		weather.TrainingLevel(level),
		violations,
		weather.Severity(severity),
		detected,
		resolved,
		resolvedAt,
		note.String,
		created, updated,
	), nil
}
