package config

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/Kerhoff/todotree/migrations"
)

// Dialect names a supported SQL backend. The value doubles as the
// migrations directory name.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Database holds database connection and configuration
type Database struct {
	*sql.DB
	Dialect Dialect
	logger  *logrus.Logger
}

// NewDatabase creates a new database connection. postgres:// and
// postgresql:// URLs use lib/pq; sqlite://<path> opens an embedded SQLite
// file (sqlite://:memory: for a private in-memory database).
func NewDatabase(databaseURL string, logger *logrus.Logger) (*Database, error) {
	dialect, driverName, dsn, err := parseDatabaseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	switch dialect {
	case DialectSQLite:
		// SQLite serializes writers anyway, and an in-memory database only
		// exists on the connection that created it.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	default:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.WithField("dialect", dialect).Info("Database connection established successfully")

	return &Database{
		DB:      db,
		Dialect: dialect,
		logger:  logger,
	}, nil
}

func parseDatabaseURL(databaseURL string) (Dialect, string, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DialectPostgres, "postgres", databaseURL, nil
	case strings.HasPrefix(databaseURL, "sqlite://"):
		path := strings.TrimPrefix(databaseURL, "sqlite://")
		if path == "" {
			return "", "", "", fmt.Errorf("sqlite database path is empty")
		}
		if path == ":memory:" {
			return DialectSQLite, "sqlite", "file::memory:?_pragma=foreign_keys(1)", nil
		}
		return DialectSQLite, "sqlite", "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", nil
	default:
		return "", "", "", fmt.Errorf("unsupported DATABASE_URL scheme in %q", databaseURL)
	}
}

// Migrate runs the embedded database migrations for the connected dialect
func (d *Database) Migrate() error {
	source, err := iofs.New(migrations.FS, string(d.Dialect))
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	var m *migrate.Migrate
	switch d.Dialect {
	case DialectPostgres:
		driver, err := migratepg.WithInstance(d.DB, &migratepg.Config{})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "postgres", driver)
		if err != nil {
			return fmt.Errorf("failed to create migration instance: %w", err)
		}
	case DialectSQLite:
		driver, err := migratesqlite.WithInstance(d.DB, &migratesqlite.Config{})
		if err != nil {
			return fmt.Errorf("failed to create migration driver: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", source, "sqlite", driver)
		if err != nil {
			return fmt.Errorf("failed to create migration instance: %w", err)
		}
	default:
		return fmt.Errorf("no migrations for dialect %q", d.Dialect)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.logger.Info("Database migrations completed successfully")
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
