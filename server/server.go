// Package server wires the router, middleware and lifecycle of the HTTP
// service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medinfo/medicines-api/config"
	"github.com/medinfo/medicines-api/handlers"
	"github.com/medinfo/medicines-api/interfaces"
	"github.com/medinfo/medicines-api/logging"
	"github.com/medinfo/medicines-api/metrics"
	"github.com/medinfo/medicines-api/orchestrator"
	"github.com/medinfo/medicines-api/search"
)

// Server is the HTTP front of the retrieval service.
type Server struct {
	server *http.Server
	router chi.Router
	store  interfaces.DataStore
	orch   *orchestrator.Orchestrator
	ranker search.Ranker
	config *config.Config
}

// NewServer creates a configured server with all middleware and routes set up.
func NewServer(cfg *config.Config, store interfaces.DataStore, orch *orchestrator.Orchestrator, ranker search.Ranker) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router: router,
		store:  store,
		orch:   orch,
		ranker: ranker,
		config: cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.Middleware(logging.Default.Logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(NewRateLimiter().RateLimitMiddleware)
}

func (s *Server) setupRoutes() {
	s.router.Post("/ask", handlers.Ask(s.orch))
	s.router.Get("/search/{query}", handlers.SearchDocuments(s.store, s.ranker, s.config.TopK))

	s.router.Get("/medicines", handlers.ServeAllMedicines(s.store))
	s.router.Get("/medicines/{pageNumber}", handlers.ServePagedMedicines(s.store))
	s.router.Get("/medicine/{name}", handlers.FindMedicine(s.store))
	s.router.Get("/medicine/id/{id}", handlers.FindMedicineByID(s.store))

	s.router.Get("/health", handlers.HealthCheck(s.store))
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the server.
func (s *Server) Start() error {
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			logging.Error("Profiling server failed", "error", err)
		}
	}()
}
