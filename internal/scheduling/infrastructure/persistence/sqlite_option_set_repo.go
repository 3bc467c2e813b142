package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/sqlite"
)

const optionSetColumns = `
	s.id, s.booking_id, s.conflict_id, s.options, s.provider, s.reasoning, s.generated_at,
	s.status, s.selected_index, s.rejection_reason, s.created_at, s.updated_at`

// SQLiteOptionSetRepository implements domain.OptionSetRepository for SQLite.
type SQLiteOptionSetRepository struct {
	conn database.Connection
}

// NewSQLiteOptionSetRepository creates a new SQLite option set repository.
func NewSQLiteOptionSetRepository(conn database.Connection) *SQLiteOptionSetRepository {
	return &SQLiteOptionSetRepository{conn: conn}
}

func (r *SQLiteOptionSetRepository) UpsertPending(ctx context.Context, s *domain.RescheduleOptionSet) (bool, error) {
	options, err := json.Marshal(s.Options())
	if err != nil {
		return false, fmt.Errorf("encode options: %w", err)
	}

	var storedID string
	err = database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		INSERT INTO reschedule_option_sets (
			id, booking_id, conflict_id, options, provider, reasoning, generated_at,
			status, selected_index, rejection_reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', NULL, NULL, ?, ?)
		ON CONFLICT (booking_id) WHERE status = 'pending' DO UPDATE SET
			conflict_id = excluded.conflict_id,
			options = excluded.options,
			provider = excluded.provider,
			reasoning = excluded.reasoning,
			generated_at = excluded.generated_at,
			updated_at = excluded.updated_at
		RETURNING id`,
		s.ID().String(),
		s.BookingID().String(),
		s.ConflictID().String(),
		string(options),
		s.Provider(),
		s.Reasoning(),
		sqlite.FormatTime(s.GeneratedAt()),
		sqlite.FormatTime(s.CreatedAt()),
		sqlite.FormatTime(s.UpdatedAt()),
	).Scan(&storedID)
	if err != nil {
		return false, fmt.Errorf("upsert option set for booking %s: %w", s.BookingID(), err)
	}

	id, err := uuid.Parse(storedID)
	if err != nil {
		return false, err
	}
	if id == s.ID() {
		return true, nil
	}
	s.SetID(id)
	return false, nil
}

func (r *SQLiteOptionSetRepository) Save(ctx context.Context, s *domain.RescheduleOptionSet) error {
	var selected sql.NullInt64
	if idx := s.SelectedIndex(); idx != nil {
		selected = sql.NullInt64{Int64: int64(*idx), Valid: true}
	}
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE reschedule_option_sets
		SET status = ?, selected_index = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ?`,
		string(s.Status()),
		selected,
		nullText(s.RejectionReason()),
		sqlite.FormatTime(s.UpdatedAt()),
		s.ID().String(),
	)
	return expectOne(res, err, domain.ErrOptionSetNotFound)
}

func (r *SQLiteOptionSetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RescheduleOptionSet, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+optionSetColumns+` FROM reschedule_option_sets s WHERE s.id = ?`, id.String())

	set, err := scanSQLiteOptionSet(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrOptionSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find option set %s: %w", id, err)
	}
	return set, nil
}

func (r *SQLiteOptionSetRepository) FindPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.RescheduleOptionSet, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+optionSetColumns+` FROM reschedule_option_sets s WHERE s.booking_id = ? AND s.status = 'pending'`,
		bookingID.String())

	set, err := scanSQLiteOptionSet(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending option set for booking %s: %w", bookingID, err)
	}
	return set, nil
}

func (r *SQLiteOptionSetRepository) ListStalePending(ctx context.Context, now time.Time) ([]*domain.RescheduleOptionSet, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT`+optionSetColumns+`
		FROM reschedule_option_sets s
		JOIN bookings b ON b.id = s.booking_id
		WHERE s.status = 'pending' AND b.scheduled_at < ?
		ORDER BY b.scheduled_at`, sqlite.FormatTime(now))
	if err != nil {
		return nil, fmt.Errorf("list stale option sets: %w", err)
	}
	defer rows.Close()

	var sets []*domain.RescheduleOptionSet
	for rows.Next() {
		set, err := scanSQLiteOptionSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

func scanSQLiteOptionSet(row database.Row) (*domain.RescheduleOptionSet, error) {
	var (
		id, bookingID, conflictID, optionsJSON string
		provider, reasoning, status            string
		generatedAt, createdAt, updatedAt      string
		selected                               sql.NullInt64
		rejection                              sql.NullString
	)
	if err := row.Scan(&id, &bookingID, &conflictID, &optionsJSON, &provider, &reasoning,
		&generatedAt, &status, &selected, &rejection, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	sid, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	bid, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, err
	}
	cid, err := uuid.Parse(conflictID)
	if err != nil {
		return nil, err
	}
	var options []domain.RescheduleOption
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	generated, err := sqlite.ParseTime(generatedAt)
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

	return domain.RehydrateRescheduleOptionSet(
		sid, bid, cid,
		options,
		provider, reasoning,
		generated,
		domain.OptionSetStatus(status),
		selectedIndex(selected),
		rejection.String,
		created, updated,
	), nil
}

func selectedIndex(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
