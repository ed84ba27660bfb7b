// Package server provides the HTTP API for modelscout.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/modelscout/modelscout/internal/catalog"
	"github.com/modelscout/modelscout/internal/config"
	"github.com/modelscout/modelscout/internal/models"
)

// StatsProvider exposes classifier diagnostics; *classifier.Classifier
// satisfies it.
type StatsProvider interface {
	Stats() models.ClassifierStats
}

// RunLister exposes calibration run history; *storage.SQLiteStorage
// satisfies it.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]*models.CalibrationRun, error)
}

// Server is the HTTP server for the modelscout API.
type Server struct {
	gate    catalog.Classifier
	catalog *catalog.Catalog
	stats   StatsProvider
	runs    RunLister
	config  *config.ServerConfig
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. runs may be nil
// when no calibration database is configured.
func NewServer(
	gate catalog.Classifier,
	cat *catalog.Catalog,
	stats StatsProvider,
	runs RunLister,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		gate:    gate,
		catalog: cat,
		stats:   stats,
		runs:    runs,
		config:  cfg,
		logger:  logger,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/api/v1/classify", s.handleClassify)
	r.Post("/api/v1/recommend", s.handleRecommend)
	r.Get("/api/v1/stats", s.handleStats)
	r.Get("/api/v1/runs", s.handleRuns)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
