package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"waconsole/internal/app/config"
	"waconsole/internal/domain"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// Database wraps the database connection and provides additional functionality
type Database struct {
	*bun.DB
}

// New creates a new database connection. SQLite is the default; set
// DB_DRIVER=postgres for a shared deployment.
func New(cfg config.DatabaseConfig) (*Database, error) {
	var (
		sqldb *sql.DB
		db    *bun.DB
		err   error
	)

	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%d/%s?sslmode=%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
		)
		sqldb = sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		db = bun.NewDB(sqldb, pgdialect.New())
	case "sqlite":
		sqldb, err = sql.Open(sqliteshim.ShimName, cfg.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	// Add debug hook if enabled
	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	// Configure connection pool
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqldb.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	database := &Database{
		DB: db,
	}

	log.Info().
		Str("driver", cfg.Driver).
		Msg("Database connected successfully")

	return database, nil
}

// Migrate runs all pending database migrations
func (d *Database) Migrate(ctx context.Context) error {
	log.Info().Msg("Starting database migration")

	_, err := d.NewCreateTable().
		Model((*domain.AuditEntry)(nil)).
		IfNotExists().
		Exec(ctx)

	if err != nil {
		log.Error().Err(err).Msg("Failed to create audit_entries table")
		return fmt.Errorf("failed to create audit_entries table: %w", err)
	}

	log.Info().Msg("Database migration completed successfully")
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	log.Info().Msg("Closing database connection")
	return d.DB.Close()
}

// Health checks the database health
func (d *Database) Health(ctx context.Context) error {
	return d.PingContext(ctx)
}
