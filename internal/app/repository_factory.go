package app

import (
	"fmt"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	schedulingPersistence "github.com/felixgeelhaar/flightwatch/internal/scheduling/infrastructure/persistence"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/outbox"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	weatherPersistence "github.com/felixgeelhaar/flightwatch/internal/weather/infrastructure/persistence"
)

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// BookingRepository creates a booking repository for the configured driver.
func (f *RepositoryFactory) BookingRepository() (domain.BookingRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return schedulingPersistence.NewPostgresBookingRepository(f.conn), nil
	case database.DriverSQLite:
		return schedulingPersistence.NewSQLiteBookingRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// StudentRepository creates a student repository for the configured driver.
func (f *RepositoryFactory) StudentRepository() (domain.StudentRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return schedulingPersistence.NewPostgresStudentRepository(f.conn), nil
	case database.DriverSQLite:
		return schedulingPersistence.NewSQLiteStudentRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// ConflictRepository creates a conflict repository for the configured driver.
func (f *RepositoryFactory) ConflictRepository() (domain.ConflictRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return schedulingPersistence.NewPostgresConflictRepository(f.conn), nil
	case database.DriverSQLite:
		return schedulingPersistence.NewSQLiteConflictRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OptionSetRepository creates a reschedule option set repository for the
// configured driver.
func (f *RepositoryFactory) OptionSetRepository() (domain.OptionSetRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return schedulingPersistence.NewPostgresOptionSetRepository(f.conn), nil
	case database.DriverSQLite:
		return schedulingPersistence.NewSQLiteOptionSetRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// WeatherCache creates the database-backed observation cache.
func (f *RepositoryFactory) WeatherCache() (weather.Cache, error) {
	switch f.driver {
	case database.DriverPostgres:
		return weatherPersistence.NewPostgresCache(f.conn), nil
	case database.DriverSQLite:
		return weatherPersistence.NewSQLiteCache(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return outbox.NewPostgresRepository(f.conn), nil
	case database.DriverSQLite:
		return outbox.NewSQLiteRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
