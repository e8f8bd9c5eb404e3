package api

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
)

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	project, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	runID, err := s.pipeline.Start(project)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		writeError(w, http.StatusConflict, fmt.Errorf("indexing already running for %q", project.Name))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("start indexing: %w", err))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": "accepted"})
}

func (s *Server) handleReindexStatus(w http.ResponseWriter, r *http.Request) {
	project, ok := s.resolveProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.pipeline.Status(project.Name))
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	combined := append([]common.LogEntry(nil), common.LogEntries()...)
	existing := make(map[string]struct{}, len(combined))
	for _, entry := range combined {
		existing[logEntryKey(entry.Time, entry.Level, entry.Message, entry.Component)] = struct{}{}
	}

	for _, entry := range s.pipeline.Logs() {
		converted := common.LogEntry{
			Time:      entry.Time,
			Level:     strings.ToLower(entry.Level),
			Message:   entry.Message,
			Component: "pipeline",
		}
		key := logEntryKey(converted.Time, converted.Level, converted.Message, converted.Component)
		if _, ok := existing[key]; ok {
			continue
		}
		combined = append(combined, converted)
		existing[key] = struct{}{}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].Time.Equal(combined[j].Time) {
			if combined[i].Component == combined[j].Component {
				if combined[i].Level == combined[j].Level {
					return combined[i].Message < combined[j].Message
				}
				return combined[i].Level < combined[j].Level
			}
			return combined[i].Component < combined[j].Component
		}
		return combined[i].Time.Before(combined[j].Time)
	})

	limit := 200
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if len(combined) > limit {
		combined = combined[len(combined)-limit:]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": combined})
}

func logEntryKey(ts time.Time, level, message, component string) string {
	stamp := ts.UTC().Format(time.RFC3339Nano)
	return strings.Join([]string{stamp, strings.ToLower(strings.TrimSpace(level)), strings.TrimSpace(component), message}, "|")
}
