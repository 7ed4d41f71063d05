// Package postgres opens the Postgres pool and applies the embedded schema
// migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"yapisite/internal/platform/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is the shared connection pool.
type DB struct {
	*sql.DB
}

// Open connects with the pgx driver and pings once.
// Returns nil, nil when no URL is configured; callers fall back to memory
// stores.
func Open(ctx context.Context, cfg config.Database) (*DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return &DB{DB: db}, nil
}

// Migrate applies every pending migration.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Name identifies the dependency in health reports.
func (db *DB) Name() string { return "postgres" }

// Health pings the pool.
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
