package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
)

// PostgresOptionSetRepository implements domain.OptionSetRepository for PostgreSQL.
type PostgresOptionSetRepository struct {
	conn database.Connection
}

// NewPostgresOptionSetRepository creates a new PostgreSQL option set repository.
func NewPostgresOptionSetRepository(conn database.Connection) *PostgresOptionSetRepository {
	return &PostgresOptionSetRepository{conn: conn}
}

func (r *PostgresOptionSetRepository) UpsertPending(ctx context.Context, s *domain.RescheduleOptionSet) (bool, error) {
	options, err := json.Marshal(s.Options())
	if err != nil {
		return false, fmt.Errorf("encode options: %w", err)
	}

	var storedID uuid.UUID
	err = database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx, `
		INSERT INTO reschedule_option_sets (
			id, booking_id, conflict_id, options, provider, reasoning, generated_at,
			status, selected_index, rejection_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', NULL, NULL, $8, $9)
		ON CONFLICT (booking_id) WHERE status = 'pending' DO UPDATE SET
			conflict_id = EXCLUDED.conflict_id,
			options = EXCLUDED.options,
			provider = EXCLUDED.provider,
			reasoning = EXCLUDED.reasoning,
			generated_at = EXCLUDED.generated_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id`,
		s.ID(), s.BookingID(), s.ConflictID(), options, s.Provider(), s.Reasoning(),
		s.GeneratedAt(), s.CreatedAt(), s.UpdatedAt(),
	).Scan(&storedID)
	if err != nil {
		return false, fmt.Errorf("upsert option set for booking %s: %w", s.BookingID(), err)
	}

	if storedID == s.ID() {
		return true, nil
	}
	s.SetID(storedID)
	return false, nil
}

func (r *PostgresOptionSetRepository) Save(ctx context.Context, s *domain.RescheduleOptionSet) error {
	var reason *string
	if v := s.RejectionReason(); v != "" {
		reason = &v
	}
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		UPDATE reschedule_option_sets
		SET status = $2, selected_index = $3, rejection_reason = $4, updated_at = $5
		WHERE id = $1`,
		s.ID(), string(s.Status()), s.SelectedIndex(), reason, s.UpdatedAt())
	return expectOne(res, err, domain.ErrOptionSetNotFound)
}

func (r *PostgresOptionSetRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.RescheduleOptionSet, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+optionSetColumns+` FROM reschedule_option_sets s WHERE s.id = $1`, id)

	set, err := scanPostgresOptionSet(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrOptionSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find option set %s: %w", id, err)
	}
	return set, nil
}

func (r *PostgresOptionSetRepository) FindPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*domain.RescheduleOptionSet, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+optionSetColumns+` FROM reschedule_option_sets s WHERE s.booking_id = $1 AND s.status = 'pending'`,
		bookingID)

	set, err := scanPostgresOptionSet(row)
	if database.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pending option set for booking %s: %w", bookingID, err)
	}
	return set, nil
}

func (r *PostgresOptionSetRepository) ListStalePending(ctx context.Context, now time.Time) ([]*domain.RescheduleOptionSet, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT`+optionSetColumns+`
		FROM reschedule_option_sets s
		JOIN bookings b ON b.id = s.booking_id
		WHERE s.status = 'pending' AND b.scheduled_at < $1
		ORDER BY b.scheduled_at`, now)
	if err != nil {
		return nil, fmt.Errorf("list stale option sets: %w", err)
	}
	defer rows.Close()

	var sets []*domain.RescheduleOptionSet
	for rows.Next() {
		set, err := scanPostgresOptionSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}

func scanPostgresOptionSet(row database.Row) (*domain.RescheduleOptionSet, error) {
	var (
		id, bookingID, conflictID         uuid.UUID
		optionsJSON                       []byte
		provider, reasoning, status       string
		generatedAt, createdAt, updatedAt time.Time
		selected                          *int
		rejection                         *string
	)
	if err := row.Scan(&id, &bookingID, &conflictID, &optionsJSON, &provider, &reasoning,
		&generatedAt, &status, &selected, &rejection, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var options []domain.RescheduleOption
	if err := json.Unmarshal(optionsJSON, &options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	var reason string
	if rejection != nil {
		reason = *rejection
	}

	return domain.RehydrateRescheduleOptionSet(
		id, bookingID, conflictID,
		options,
		provider, reasoning,
		generatedAt.UTC(),
		domain.OptionSetStatus(status),
		selected,
		reason,
		createdAt.UTC(), updatedAt.UTC(),
	), nil
}
