// Package api exposes the ops HTTP surface: project registration and
// listing, fossil reads, symbol search, reindex control, insights, and the
// engine log. Dashboards and the admin TUI consume it; agents use the MCP
// catalog instead.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

type Server struct {
	router   chi.Router
	store    *store.Store
	pipeline *pipeline.Manager
}

func NewServer(st *store.Store, pipe *pipeline.Manager) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}
	if pipe == nil {
		return nil, fmt.Errorf("pipeline manager required")
	}
	srv := &Server{
		router:   chi.NewRouter(),
		store:    st,
		pipeline: pipe,
	}
	srv.routes()
	common.Logger().Info("api: server ready")
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/api/projects", s.handleListProjects)
	s.router.Post("/api/projects", s.handleRegisterProject)
	s.router.Post("/api/projects/{name}/archive", s.handleArchiveProject)
	s.router.Get("/api/projects/{name}/fossil", s.handleFossil)
	s.router.Get("/api/projects/{name}/symbols", s.handleSymbols)
	s.router.Post("/api/projects/{name}/reindex", s.handleReindex)
	s.router.Get("/api/projects/{name}/reindex/status", s.handleReindexStatus)
	s.router.Get("/api/insights", s.handleInsights)
	s.router.Get("/api/logs", s.handleLogs)
}

// resolveProject maps the {name} route parameter to a registered project,
// writing the error response itself on a miss.
func (s *Server) resolveProject(w http.ResponseWriter, r *http.Request) (*store.Project, bool) {
	name := chi.URLParam(r, "name")
	project, err := s.store.ResolveProject(r.Context(), name)
	if err == nil {
		return project, true
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown project %q", name))
	} else {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("resolve project: %w", err))
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
