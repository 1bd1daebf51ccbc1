package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"           // Registers the postgres driver.
	_ "github.com/mattn/go-sqlite3" // Registers the sqlite3 driver.
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
)

type Database struct {
	db     *sql.DB
	driver string
	sb     sq.StatementBuilderType
	log    *slog.Logger
}

//go:embed migrations
var migrationsFS embed.FS

// New opens the store and brings its schema up to date.
func New(ctx context.Context, driver string, dsn string, log *slog.Logger) (*Database, error) {
	var placeholder sq.PlaceholderFormat

	switch driver {
	case DriverSQLite:
		placeholder = sq.Question
	case DriverPostgres:
		placeholder = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", driver)
	}

	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open DB: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite allows one writer at a time.
		dbConn.SetMaxOpenConns(1)
	}

	if err = dbConn.PingContext(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	d := &Database{
		db:     dbConn,
		driver: driver,
		sb:     sq.StatementBuilder.PlaceholderFormat(placeholder),
		log:    log,
	}

	if err = d.migrate(ctx, dsn); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	return d, nil
}

func (d *Database) migrate(ctx context.Context, dsn string) error {
	var (
		dbInstance migratedb.Driver
		err        error
	)

	switch d.driver {
	case DriverSQLite:
		// Shares the single connection, so a memory DSN sees the same schema.
		dbInstance, err = migratesqlite3.WithInstance(d.db, &migratesqlite3.Config{})
	case DriverPostgres:
		// The postgres driver pins a connection until closed, so it gets its own pool.
		var migrateConn *sql.DB
		migrateConn, err = sql.Open(d.driver, dsn)
		if err != nil {
			return fmt.Errorf("open migration DB: %w", err)
		}
		dbInstance, err = postgres.WithInstance(migrateConn, &postgres.Config{})
		if err != nil {
			_ = migrateConn.Close()
			return fmt.Errorf("create DB instance: %w", err)
		}
		// Closes the pinned connection and its pool.
		defer func() {
			if closeErr := dbInstance.Close(); closeErr != nil {
				d.log.WarnContext(ctx, "Failed to close migration DB",
					"error", closeErr)
			}
		}()
	}
	if err != nil {
		return fmt.Errorf("create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations/"+d.driver)
	if err != nil {
		return fmt.Errorf("create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, d.driver, dbInstance)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	migrateErr := m.Up()

	version, dirty, versionErr := m.Version()
	fields := []any{
		"driver", d.driver,
	}

	if versionErr == nil {
		fields = append(fields, "version", version, "dirty", dirty)
	} else if !errors.Is(versionErr, migrate.ErrNilVersion) {
		d.log.WarnContext(ctx, "Failed to fetch migration version",
			"error", versionErr,
			"driver", d.driver)
	}

	if migrateErr != nil {
		if !errors.Is(migrateErr, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", migrateErr)
		}

		d.log.InfoContext(ctx, "No migrations to apply", fields...)
	} else {
		d.log.InfoContext(ctx, "DB is migrated", fields...)
	}

	return nil
}

func (d *Database) Driver() string {
	return d.driver
}

func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Database) Close() error {
	return d.db.Close()
}
