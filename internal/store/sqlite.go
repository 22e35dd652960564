package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// SQLiteStore is the single-file backend used for local runs and tests.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger zerolog.Logger
	opts   Options
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
// Writes are serialized by SQLite itself; the busy timeout lets concurrent
// writers wait instead of failing with SQLITE_BUSY.
func OpenSQLite(ctx context.Context, path string, opts Options) (*SQLiteStore, error) {
	log := opts.Logger.With().Str("component", "store").Str("path", path).Logger()

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if path == memoryPath {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else if opts.MaxConns > 0 {
		db.SetMaxOpenConns(int(opts.MaxConns))
	}
	if path != memoryPath {
		if opts.MaxConnIdleTime > 0 {
			db.SetConnMaxIdleTime(opts.MaxConnIdleTime)
		}
		if opts.MaxConnLifetime > 0 {
			db.SetConnMaxLifetime(opts.MaxConnLifetime)
		}
	}

	connCtx := ctx
	if opts.ConnTimeout > 0 {
		var cancel context.CancelFunc
		connCtx, cancel = context.WithTimeout(ctx, opts.ConnTimeout)
		defer cancel()
	}
	if err := db.PingContext(connCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	log.Info().Msg("sqlite database opened")
	return &SQLiteStore{db: db, path: path, logger: log, opts: opts}, nil
}

func sqliteDSN(path string) string {
	if path == memoryPath {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Close releases database resources.
func (s *SQLiteStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	s.logger.Info().Msg("closing sqlite database")
	_ = s.db.Close()
}

// HealthCheck verifies the database is reachable.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	return s.db.PingContext(ctx)
}

// Migrate applies the embedded SQLite schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return MigrateSQLite(ctx, s.db, s.logger)
}

// DB exposes the underlying handle for repositories.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}
