package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Clark-Hu/movies-api/internal/config"
	httpserver "github.com/Clark-Hu/movies-api/internal/http"
	"github.com/Clark-Hu/movies-api/internal/logger"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "movies-api",
		Short:        "CRUD HTTP service for the movies table",
		SilenceUsage: true,
		RunE:         runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (default)",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply the database schema and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "version",
			Short: "Show version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "movies-api %s (commit: %s)\n", version, commit)
			},
		},
	)
	return root
}

func loadRuntime() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), fmt.Errorf("config error: %w", err)
	}
	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	return cfg, log, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("connect database")
		return err
	}
	defer b.close()

	if err := b.migrate(ctx); err != nil {
		log.Error().Err(err).Msg("migrate database")
		return err
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	log.Info().
		Str("version", version).
		Str("port", cfg.Port).
		Str("driver", cfg.DBDriver).
		Msg("starting movies-api")

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	b, err := openBackend(dbCtx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("connect database")
		return err
	}
	defer b.close()

	if cfg.DBAutoMigrate {
		if err := b.migrate(dbCtx); err != nil {
			log.Error().Err(err).Msg("migrate database")
			return err
		}
	}

	server := httpserver.New(cfg, b.health, b.repo, log)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	var runErr error
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			runErr = err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("movies-api stopped")
	return runErr
}
