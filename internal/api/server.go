package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/unwind/internal/api/handler"
	mw "github.com/edvin/unwind/internal/api/middleware"
	"github.com/edvin/unwind/internal/auth"
	"github.com/edvin/unwind/internal/db"
	"github.com/edvin/unwind/internal/store"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	verifier *auth.Verifier
	exec     *db.Executor
	stores   *store.Stores
}

func NewServer(logger zerolog.Logger, verifier *auth.Verifier, exec *db.Executor) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		verifier: verifier,
		exec:     exec,
		stores:   store.NewStores(exec),
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
		r.Use(mw.Auth(s.verifier))

		// Items
		items := handler.NewItems(s.stores.Items)
		r.Get("/items/today", items.Today)
		r.Get("/items/week", items.Week)
		r.Get("/items/search", items.Search)
		r.Get("/items", items.List)
		r.Get("/items/{id}", items.Details)
		r.Post("/items/{id}/complete", items.Complete)
		r.Put("/items/{id}/priority", items.SetPriority)
		r.Post("/items/{id}/notes", items.AddNote)
		r.Get("/worries", items.Worries)

		// Planner
		planner := handler.NewPlanner(s.stores.Planner)
		r.Get("/planner/stats", planner.Stats)
		r.Get("/planner/history", planner.History)
		r.Get("/planner/pending-counts", planner.PendingCounts)

		// Reassurance
		reassurance := handler.NewReassurance(s.stores.Reassurance)
		r.Get("/reassurance/spirals", reassurance.Spirals)
		r.Get("/reassurance/recent-completions", reassurance.RecentCompletions)
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

	if err := s.exec.Ping(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
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
