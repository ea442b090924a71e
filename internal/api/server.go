package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/watchdeck/watchdeck/internal/api/handlers"
	"github.com/watchdeck/watchdeck/internal/api/middleware"
	"github.com/watchdeck/watchdeck/internal/backfill"
	"github.com/watchdeck/watchdeck/internal/config"
	"github.com/watchdeck/watchdeck/internal/models"
	"github.com/watchdeck/watchdeck/internal/stats"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	db *models.Database,
	statsService *stats.Service,
	orch *backfill.Orchestrator,
	strategies []backfill.Strategy,
	registry *backfill.Registry,
	logger *logrus.Logger,
) *Server {
	s := &Server{logger: logger}

	mux := http.NewServeMux()
	s.setupRoutes(mux, cfg, db, statsService, orch, strategies, registry)

	handler := middleware.Logging(middleware.Identity(mux), logger)
	s.server = &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(
	mux *http.ServeMux,
	cfg *config.Config,
	db *models.Database,
	statsService *stats.Service,
	orch *backfill.Orchestrator,
	strategies []backfill.Strategy,
	registry *backfill.Registry,
) {
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.Handle("GET /health", healthHandler)

	statusHandler := handlers.NewStatusHandler(db, s.logger)
	mux.Handle("GET /status", statusHandler)

	mediaHandler := handlers.NewMediaHandler(db, cfg.PageSize, s.logger)
	mux.HandleFunc("GET /api/media", mediaHandler.List)
	mux.HandleFunc("POST /api/media", mediaHandler.Create)
	mux.HandleFunc("GET /api/media/{id}", mediaHandler.Get)
	mux.HandleFunc("PATCH /api/media/{id}", mediaHandler.Update)
	mux.HandleFunc("DELETE /api/media/{id}", mediaHandler.Delete)
	mux.HandleFunc("POST /api/media/{id}/watched", mediaHandler.ToggleWatched)
	mux.HandleFunc("POST /api/media/{id}/favorite", mediaHandler.ToggleFavorite)
	mux.HandleFunc("PUT /api/media/{id}/progress", mediaHandler.Progress)

	listsHandler := handlers.NewListsHandler(db, s.logger)
	mux.HandleFunc("GET /api/lists", listsHandler.Index)
	mux.HandleFunc("POST /api/lists", listsHandler.Create)
	mux.HandleFunc("GET /api/lists/{id}", listsHandler.Get)
	mux.HandleFunc("PATCH /api/lists/{id}", listsHandler.Update)
	mux.HandleFunc("DELETE /api/lists/{id}", listsHandler.Delete)
	mux.HandleFunc("POST /api/lists/{id}/items", listsHandler.AddItems)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{mediaID}", listsHandler.RemoveItem)

	followsHandler := handlers.NewFollowsHandler(db, s.logger)
	mux.HandleFunc("PUT /api/follows/{userID}", followsHandler.Follow)
	mux.HandleFunc("DELETE /api/follows/{userID}", followsHandler.Unfollow)
	mux.HandleFunc("GET /api/activity", followsHandler.Activity)

	statsHandler := handlers.NewStatsHandler(statsService, s.logger)
	mux.HandleFunc("GET /api/stats", statsHandler.Summary)
	mux.HandleFunc("GET /api/stats/year/{year}", statsHandler.YearInReview)

	backfillHandler := handlers.NewBackfillHandler(orch, strategies, registry, s.logger)
	mux.HandleFunc("POST /api/backfill/{op}", backfillHandler.Start)
	mux.HandleFunc("GET /api/backfill/{op}", backfillHandler.Status)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
