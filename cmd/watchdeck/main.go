package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/watchdeck/watchdeck/internal/api"
	"github.com/watchdeck/watchdeck/internal/backfill"
	"github.com/watchdeck/watchdeck/internal/config"
	"github.com/watchdeck/watchdeck/internal/models"
	"github.com/watchdeck/watchdeck/internal/scheduler"
	"github.com/watchdeck/watchdeck/internal/services/openlibrary"
	"github.com/watchdeck/watchdeck/internal/services/rawg"
	"github.com/watchdeck/watchdeck/internal/services/tmdb"
	"github.com/watchdeck/watchdeck/internal/stats"
	"github.com/watchdeck/watchdeck/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Watchdeck")
	logger.WithField("config_dir", filepath.Dir(cfg.DatabaseFile)).Info("Configuration loaded")

	// 3. Initialize database
	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()
	logger.Info("Database initialized")

	// 4. Initialize metadata provider clients
	tmdbClient := tmdb.NewClient(cfg.TMDBAPIKey, logger)
	rawgClient := rawg.NewClient(cfg.RAWGAPIKey, logger)
	openlibraryClient := openlibrary.NewClient(logger)
	logger.Info("Metadata provider clients initialized")

	// 5. Initialize backfill orchestration
	orch := backfill.NewOrchestrator(db, cfg.BackfillDelay, logger)
	strategies := []backfill.Strategy{
		&backfill.GenreBackfill{Screen: tmdbClient, Games: rawgClient, Books: openlibraryClient},
		&backfill.ReleaseDateBackfill{Screen: tmdbClient, Games: rawgClient, Books: openlibraryClient},
		&backfill.RuntimeBackfill{Screen: tmdbClient},
		&backfill.EpisodeBackfill{Screen: tmdbClient, Delay: cfg.EpisodeDelay},
	}
	registry := backfill.NewRegistry()

	// 6. Initialize services
	statsService := stats.NewService(db, logger)

	// 7. Initialize scheduler
	sched := scheduler.NewScheduler(db, orch, strategies, registry, cfg.EnrichSchedule, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 8. Initialize HTTP server
	server := api.NewServer(cfg, db, statsService, orch, strategies, registry, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 9. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Watchdeck is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Watchdeck stopped")
	return nil
}
