// Package server provides the HTTP API for the knn service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/knn/internal/config"
	"github.com/hyperjump/knn/internal/service"
)

// IngestService manages the directories watched for dataset files.
type IngestService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the knn API.
type Server struct {
	engine *service.Engine
	config *config.Config
	logger *zap.Logger
	server *http.Server

	ingest     IngestService
	configPath string
	configMu   sync.Mutex
}

// NewServer creates a server. ingest may be nil when no directories are watched;
// when configPath is set, ingest directory changes are saved back to it.
func NewServer(engine *service.Engine, cfg *config.Config, logger *zap.Logger, ingest IngestService, configPath string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:     engine,
		config:     cfg,
		logger:     logger,
		ingest:     ingest,
		configPath: configPath,
	}
}

// Handler returns the router with all API routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/vectors", s.handleAddVector)
		r.Get("/vectors/{id}", s.handleGetVector)
		r.Post("/search", s.handleSearch)
		r.Put("/search-size", s.handleSetSearchSize)
		r.Get("/status", s.handleStatus)
		r.Get("/ingest/directories", s.handleIngestDirectoriesList)
		r.Post("/ingest/directories", s.handleIngestDirectoriesAdd)
		r.Delete("/ingest/directories", s.handleIngestDirectoriesRemove)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
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
