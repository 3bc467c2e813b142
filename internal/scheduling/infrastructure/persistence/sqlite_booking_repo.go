// Package persistence implements the scheduling repositories on SQLite and
// PostgreSQL.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/sqlite"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

const bookingColumns = `
	id, student_id, instructor_id, aircraft_id, scheduled_at,
	departure_name, departure_lat, departure_lon,
	destination_name, destination_lat, destination_lon,
	status, created_at, updated_at`

// SQLiteBookingRepository implements domain.BookingRepository for SQLite.
type SQLiteBookingRepository struct {
	conn database.Connection
}

// NewSQLiteBookingRepository creates a new SQLite booking repository.
func NewSQLiteBookingRepository(conn database.Connection) *SQLiteBookingRepository {
	return &SQLiteBookingRepository{conn: conn}
}

func (r *SQLiteBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT`+bookingColumns+` FROM bookings WHERE id = ?`, id.String())

	b, err := scanSQLiteBooking(row)
	if database.IsNoRows(err) {
		return nil, domain.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", id, err)
	}
	return b, nil
}

func (r *SQLiteBookingRepository) ListActive(ctx context.Context, start, end time.Time) ([]*domain.Booking, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT`+bookingColumns+`
		FROM bookings
		WHERE status IN (?, ?)
		  AND scheduled_at >= ?
		  AND scheduled_at <= ?
		ORDER BY scheduled_at, id`,
		string(domain.BookingScheduled), string(domain.BookingWeatherConflict),
		sqlite.FormatTime(start), sqlite.FormatTime(end))
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanSQLiteBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *SQLiteBookingRepository) UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, status domain.BookingStatus, now time.Time) error {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`UPDATE bookings SET scheduled_at = ?, status = ?, updated_at = ? WHERE id = ?`,
		sqlite.FormatTime(scheduledAt), string(status), sqlite.FormatTime(now), id.String())
	return expectOne(res, err, domain.ErrBookingNotFound)
}

func (r *SQLiteBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus, now time.Time) error {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`UPDATE bookings SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), sqlite.FormatTime(now), id.String())
	return expectOne(res, err, domain.ErrBookingNotFound)
}

func (r *SQLiteBookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	var destName sql.NullString
	var destLat, destLon sql.NullFloat64
	if b.Destination != nil {
		destName = sql.NullString{String: b.Destination.Name, Valid: true}
		destLat = sql.NullFloat64{Float64: b.Destination.Latitude, Valid: true}
		destLon = sql.NullFloat64{Float64: b.Destination.Longitude, Valid: true}
	}

	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			student_id = excluded.student_id,
			instructor_id = excluded.instructor_id,
			aircraft_id = excluded.aircraft_id,
			scheduled_at = excluded.scheduled_at,
			departure_name = excluded.departure_name,
			departure_lat = excluded.departure_lat,
			departure_lon = excluded.departure_lon,
			destination_name = excluded.destination_name,
			destination_lat = excluded.destination_lat,
			destination_lon = excluded.destination_lon,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		b.ID.String(),
		b.StudentID.String(),
		sqlite.NullUUID(b.InstructorID),
		b.AircraftID,
		sqlite.FormatTime(b.ScheduledAt),
		b.Departure.Name,
		b.Departure.Latitude,
		b.Departure.Longitude,
		destName,
		destLat,
		destLon,
		string(b.Status),
		sqlite.FormatTime(b.CreatedAt),
		sqlite.FormatTime(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save booking %s: %w", b.ID, err)
	}
	return nil
}

func scanSQLiteBooking(row database.Row) (*domain.Booking, error) {
	var (
		b                                  domain.Booking
		id, studentID, scheduledAt, status string
		createdAt, updatedAt               string
		instructorID, aircraftID, destName sql.NullString
		destLat, destLon                   sql.NullFloat64
	)
	err := row.Scan(&id, &studentID, &instructorID, &aircraftID, &scheduledAt,
		&b.Departure.Name, &b.Departure.Latitude, &b.Departure.Longitude,
		&destName, &destLat, &destLon,
		&status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if b.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if b.StudentID, err = uuid.Parse(studentID); err != nil {
		return nil, err
	}
	if b.InstructorID, err = sqlite.ParseNullUUID(instructorID); err != nil {
		return nil, err
	}
	if b.ScheduledAt, err = sqlite.ParseTime(scheduledAt); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	if b.Status, err = domain.ParseBookingStatus(status); err != nil {
		return nil, err
	}
	b.AircraftID = aircraftID.String
	if destName.Valid && destLat.Valid && destLon.Valid {
		b.Destination = &weather.Location{Name: destName.String, Latitude: destLat.Float64, Longitude: destLon.Float64}
	}
	return &b, nil
}

// SQLiteStudentRepository implements domain.StudentRepository for SQLite.
type SQLiteStudentRepository struct {
	conn database.Connection
}

// NewSQLiteStudentRepository creates a new SQLite student repository.
func NewSQLiteStudentRepository(conn database.Connection) *SQLiteStudentRepository {
	return &SQLiteStudentRepository{conn: conn}
}

func (r *SQLiteStudentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Student, error) {
	var (
		s                    domain.Student
		level                string
		createdAt, updatedAt string
	)
	err := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT name, training_level, created_at, updated_at FROM students WHERE id = ?`, id.String()).
		Scan(&s.Name, &level, &createdAt, &updatedAt)
	if database.IsNoRows(err) {
		return nil, domain.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find student %s: %w", id, err)
	}

	s.ID = id
	s.TrainingLevel = weather.TrainingLevel(level)
	if s.CreatedAt, err = sqlite.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = sqlite.ParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SQLiteStudentRepository) Save(ctx context.Context, s *domain.Student) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO students (id, name, training_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			training_level = excluded.training_level,
			updated_at = excluded.updated_at`,
		s.ID.String(), s.Name, string(s.TrainingLevel),
		sqlite.FormatTime(s.CreatedAt), sqlite.FormatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save student %s: %w", s.ID, err)
	}
	return nil
}

// expectOne turns an update that matched no row into notFound.
func expectOne(res database.Result, err error, notFound error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

const defaultListLimit = 50

// nullText maps an empty string to SQL NULL.
func nullText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
