package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

//go:embed migrations
var migrations embed.FS

const versionTable = "schema_version"

// MigratePostgres applies the embedded tern migrations on a connection
// borrowed from pool.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Release()

	m, err := migrate.NewMigrator(ctx, conn.Conn(), versionTable)
	if err != nil {
		return fmt.Errorf("constructing database migrator: %w", err)
	}

	subtree, err := fs.Sub(migrations, "migrations/postgres")
	if err != nil {
		return fmt.Errorf("retrieving database migrations subtree: %w", err)
	}
	if err := m.LoadMigrations(subtree); err != nil {
		return fmt.Errorf("loading database migrations: %w", err)
	}

	from, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("retrieving current database migration version: %w", err)
	}
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if from == int32(len(m.Migrations)) {
		log.Info().Msgf("database schema up to date, version %d", len(m.Migrations))
	} else {
		log.Info().Msgf("migrated database schema, from %d to %d", from, len(m.Migrations))
	}
	return nil
}

// MigrateSQLite executes the embedded SQLite scripts in file-name order. Each
// script is idempotent, so running it against an existing schema is a no-op.
func MigrateSQLite(ctx context.Context, db *sql.DB, log zerolog.Logger) error {
	entries, err := fs.ReadDir(migrations, "migrations/sqlite")
	if err != nil {
		return fmt.Errorf("list sqlite migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		payload, err := fs.ReadFile(migrations, "migrations/sqlite/"+name)
		if err != nil {
			return fmt.Errorf("read sqlite migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(payload)); err != nil {
			return fmt.Errorf("apply sqlite migration %s: %w", name, err)
		}
		log.Debug().Str("migration", name).Msg("applied sqlite migration")
	}
	log.Info().Int("migrations", len(names)).Msg("sqlite schema up to date")
	return nil
}
