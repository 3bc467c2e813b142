package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// PostgresBookingRepository implements domain.BookingRepository for PostgreSQL.
type PostgresBookingRepository struct {
	conn database.Connection
}

// NewPostgresBookingRepository creates a new PostgreSQL booking repository.
func NewPostgresBookingRepository(conn database.Connection) *PostgresBookingRepository {
	return &PostgresBookingRepository{conn: conn}
}

func (r *PostgresBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+bookingColumns+` FROM bookings WHERE id = $1`, id)

	b, err := scanPostgresBooking(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}
	return b, nil
}

func (r *PostgresBookingRepository) ListActive(ctx context.Context, start, end time.Time) ([]*domain.Booking, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE status IN ($1, $2)
		  AND scheduled_at BETWEEN $3 AND $4
		ORDER BY scheduled_at, id`,
		string(domain.BookingScheduled), string(domain.BookingWeatherConflict), start, end)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanPostgresBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *PostgresBookingRepository) UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, status domain.BookingStatus, now time.Time) error {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`UPDATE bookings SET scheduled_at = $2, status = $3, updated_at = $4 WHERE id = $1`,
		id, scheduledAt, string(status), now)
	return expectOne(res, err, domain.ErrBookingNotFound)
}

func (r *PostgresBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, now time.Time) error {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), now)
	return expectOne(res, err, domain.ErrBookingNotFound)
}

func (r *PostgresBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	var (
		destName         *string
		destLat, destLon *float64
	)
	if b.Destination != nil {
		destName, destLat, destLon = &b.Destination.Name, &b.Destination.Latitude, &b.Destination.Longitude
	}
	instructor := uuid.NullUUID{UUID: b.InstructorID, Valid: b.InstructorID != uuid.Nil}

	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			student_id = EXCLUDED.student_id,
			instructor_id = EXCLUDED.instructor_id,
			aircraft_id = EXCLUDED.aircraft_id,
			scheduled_at = EXCLUDED.scheduled_at,
			departure_name = EXCLUDED.departure_name,
			departure_lat = EXCLUDED.departure_lat,
			departure_lon = EXCLUDED.departure_lon,
			destination_name = EXCLUDED.destination_name,
			destination_lat = EXCLUDED.destination_lat,
			destination_lon = EXCLUDED.destination_lon,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		b.ID, b.StudentID, instructor, b.AircraftID, b.ScheduledAt,
		b.Departure.Name, b.Departure.Latitude, b.Departure.Longitude,
		destName, destLat, destLon,
		string(b.Status), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save booking %s: %w", b.ID, err)
	}
	return nil
}

func scanPostgresBooking(row database.Row) (*domain.Booking, error) {
	var (
		b                  domain.Booking
		instructor         uuid.NullUUID
		aircraft, destName *string
		destLat, destLon   *float64
		status             string
	)
	err := row.Scan(&b.ID, &b.StudentID, &instructor, &aircraft, &b.ScheduledAt,
		&b.Departure.Name, &b.Departure.Latitude, &b.Departure.Longitude,
		&destName, &destLat, &destLon,
		&status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if b.Status, err = domain.ParseBookingStatus(status); err != nil {
		return nil, err
	}
	if instructor.Valid {
		b.InstructorID = instructor.UUID
	}
	if aircraft != nil {
		b.AircraftID = *aircraft
	}
	if destName != nil && destLat != nil && destLon != nil {
		b.Destination = &weather.Location{Name: *destName, Latitude: *destLat, Longitude: *destLon}
	}
	b.ScheduledAt = b.ScheduledAt.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}

// PostgresStudentRepository implements domain.StudentRepository for PostgreSQL.
type PostgresStudentRepository struct {
	conn database.Connection
}

// NewPostgresStudentRepository creates a new PostgreSQL student repository.
func NewPostgresStudentRepository(conn database.Connection) *PostgresStudentRepository {
	return &PostgresStudentRepository{conn: conn}
}

func (r *PostgresStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	s := domain.Student{ID: id}
	var level string
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT name, training_level, created_at, updated_at FROM students WHERE id = $1`, id).
		Scan(&s.Name, &level, &s.CreatedAt, &s.UpdatedAt)
	if database.IsNoRows(err) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find student %s: %w", id, err)
	}
	s.TrainingLevel = weather.TrainingLevel(level)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

func (r *PostgresStudentRepository) Save(ctx context.Context, s *domain.Student) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO students (id, name, training_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			training_level = EXCLUDED.training_level,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.Name, string(s.TrainingLevel), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save student %s: %w", s.ID, err)
	}
	return nil
}
