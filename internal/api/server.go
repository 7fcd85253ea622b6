package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/vmfleet/internal/api/handler"
	mw "github.com/edvin/vmfleet/internal/api/middleware"
	"github.com/edvin/vmfleet/internal/config"
	"github.com/edvin/vmfleet/internal/core"
	"github.com/edvin/vmfleet/internal/scheduler"
	"github.com/edvin/vmfleet/internal/tasks"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	corePool *pgxpool.Pool
	sched    *scheduler.Scheduler
	registry *tasks.Registry
	migrator handler.VMMigrator
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, corePool *pgxpool.Pool, services *core.Services, sched *scheduler.Scheduler, registry *tasks.Registry, migrator handler.VMMigrator, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		corePool: corePool,
		sched:    sched,
		registry: registry,
		migrator: migrator,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Servers
		server := handler.NewServer(s.services)
		r.Get("/servers", server.List)
		r.Post("/servers", server.Create)
		r.Get("/servers/{id}", server.Get)
		r.Put("/servers/{id}", server.Update)
		r.Delete("/servers/{id}", server.Delete)

		// Jobs
		job := handler.NewJob(s.services, s.sched)
		r.Get("/jobs", job.List)
		r.Post("/jobs", job.Create)
		r.Get("/jobs/{id}", job.Get)
		r.Put("/jobs/{id}", job.Update)
		r.Delete("/jobs/{id}", job.Delete)
		r.Post("/jobs/{id}/run", job.Run)

		// Unified task view
		task := handler.NewTask(s.registry)
		r.Get("/tasks", task.List)
		r.Post("/tasks/{id}/cancel", task.Cancel)

		// Migrations
		migration := handler.NewMigration(s.logger, s.services, s.migrator)
		r.Get("/migrations", migration.List)
		r.Post("/migrations", migration.Start)

		// Node statistics
		nodeStats := handler.NewNodeStats(s.services)
		r.Get("/node-stats", nodeStats.List)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.corePool.Ping(ctx); err != nil {
		checks["core_db"] = err.Error()
		healthy = false
	} else {
		checks["core_db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
