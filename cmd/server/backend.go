package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Clark-Hu/movies-api/internal/config"
	httpserver "github.com/Clark-Hu/movies-api/internal/http"
	"github.com/Clark-Hu/movies-api/internal/repository"
	"github.com/Clark-Hu/movies-api/internal/store"
)

// backend is the process-wide database handle selected by DB_DRIVER.
type backend struct {
	health  httpserver.HealthChecker
	repo    *repository.Repository
	migrate func(ctx context.Context) error
	close   func()
}

func openBackend(ctx context.Context, cfg config.Config, log zerolog.Logger) (*backend, error) {
	opts := store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 log,
	}

	switch cfg.DBDriver {
	case config.DriverSQLite:
		st, err := store.OpenSQLite(ctx, cfg.DBURL, opts)
		if err != nil {
			return nil, err
		}
		return &backend{health: st, repo: repository.NewSQLite(st), migrate: st.Migrate, close: st.Close}, nil
	case config.DriverPostgres:
		st, err := store.New(ctx, cfg.DBURL, opts)
		if err != nil {
			return nil, err
		}
		return &backend{health: st, repo: repository.New(st), migrate: st.Migrate, close: st.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
