package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	var projectID *int64
	if ref := r.URL.Query().Get("project"); ref != "" {
		project, err := s.store.ResolveProject(r.Context(), ref)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, fmt.Errorf("unknown project %q", ref))
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Errorf("resolve project: %w", err))
			return
		}
		projectID = &project.ID
	}
	insightType := r.URL.Query().Get("type")
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	rows, err := s.store.ListInsights(r.Context(), projectID, insightType, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("list insights: %w", err))
		return
	}
	insights := make([]insightResponse, 0, len(rows))
	for _, row := range rows {
		insights = append(insights, toInsightResponse(row))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"insights": insights})
}
