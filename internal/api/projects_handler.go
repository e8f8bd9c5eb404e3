package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/project"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list projects: %w", err))
		return
	}
	overviews, err := s.store.ListOverviews(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list overviews: %w", err))
		return
	}
	byID := make(map[int64]store.Overview, len(overviews))
	for _, ov := range overviews {
		byID[ov.ID] = ov
	}
	summaries := make([]projectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, summarize(p, byID))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"projects": summaries})
}

func (s *Server) handleRegisterProject(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	name := project.Slugify(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("project name is required"))
		return
	}
	path := strings.TrimSpace(req.Path)
	if path == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("project path is required"))
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("resolve path: %w", err))
		return
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("project path %s is not a directory", abs))
		return
	}
	stack := strings.TrimSpace(req.Stack)
	if stack == "" {
		stack = project.DetectStack(abs)
	}
	registered, err := s.store.UpsertProject(r.Context(), name, abs, stack)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("register project: %w", err))
		return
	}
	common.Logger().Info("api: project registered", "project", registered.Name, "path", registered.Path, "stack", registered.Stack)
	writeJSON(w, http.StatusCreated, summarize(*registered, nil))
}

func (s *Server) handleArchiveProject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.store.ArchiveProject(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown project %q", name))
		} else {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("archive project: %w", err))
		}
		return
	}
	common.Logger().Info("api: project archived", "project", name)
	writeJSON(w, http.StatusOK, map[string]string{"project": name, "status": "archived"})
}
