//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"yapisite/internal/platform/postgres"
)

// PostgresContainer wraps a migrated testcontainers Postgres instance.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts Postgres and applies the schema migrations.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("yapisite"),
		tcpostgres.WithUsername("yapisite"),
		tcpostgres.WithPassword("yapisite"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("failed to migrate postgres: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// Truncate empties the given tables between tests.
func (p *PostgresContainer) Truncate(t *testing.T, tables ...string) {
	t.Helper()
	for _, table := range tables {
		if _, err := p.DB.Exec("TRUNCATE TABLE " + table + " CASCADE"); err != nil {
			t.Fatalf("failed to truncate %s: %v", table, err)
		}
	}
}
