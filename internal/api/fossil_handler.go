package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

func (s *Server) handleFossil(w http.ResponseWriter, r *http.Request) {
	project, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	var fossil *store.Fossil
	var err error
	if raw := r.URL.Query().Get("version"); raw != "" {
		version, convErr := strconv.Atoi(raw)
		if convErr != nil || version < 1 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid version %q", raw))
			return
		}
		fossil, err = s.store.FossilByVersion(r.Context(), project.ID, version)
	} else {
		fossil, err = s.store.LatestFossil(r.Context(), project.ID)
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Errorf("no fossil found for %q", project.Name))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("load fossil: %w", err))
		return
	}
	kinds, err := s.store.SymbolKindCounts(r.Context(), fossil.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("count symbols: %w", err))
		return
	}
	total := 0
	for _, n := range kinds {
		total += n
	}
	writeJSON(w, http.StatusOK, fossilResponse{
		Project:       project.Name,
		Version:       fossil.Version,
		CreatedAt:     fossil.CreatedAt,
		Summary:       fossil.Summary,
		Architecture:  fossil.Architecture,
		RecentChanges: fossil.RecentChanges,
		KnownIssues:   fossil.KnownIssues,
		Dependencies:  fossil.DependencyList(),
		FileTree:      fossil.FileTreeEntries(),
		SymbolKinds:   kinds,
		SymbolCount:   total,
	})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	project, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query parameter 'q' is required"))
		return
	}
	exact := r.URL.Query().Get("exact") == "true"
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	matches, truncated, err := s.store.SearchSymbols(r.Context(), project.ID, query, exact, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("search symbols: %w", err))
		return
	}
	results := make([]symbolResponse, 0, len(matches))
	for _, sym := range matches {
		results = append(results, symbolResponse{
			Name:        sym.Name,
			Type:        sym.Type,
			FilePath:    sym.FilePath,
			LineNumber:  sym.LineNumber,
			Signature:   sym.Signature,
			Description: sym.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbols":   results,
		"truncated": truncated,
	})
}
