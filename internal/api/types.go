package api

import (
	"time"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

type registerRequest struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Stack string `json:"stack,omitempty"`
}

type projectSummary struct {
	Name          string     `json:"name"`
	Path          string     `json:"path"`
	Stack         string     `json:"stack,omitempty"`
	Status        string     `json:"status"`
	LastIndexed   *time.Time `json:"last_indexed,omitempty"`
	FossilVersion int        `json:"fossil_version,omitempty"`
	FossilCount   int        `json:"fossil_count"`
}

type fossilResponse struct {
	Project       string             `json:"project"`
	Version       int                `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	Summary       string             `json:"summary,omitempty"`
	Architecture  string             `json:"architecture,omitempty"`
	RecentChanges string             `json:"recent_changes,omitempty"`
	KnownIssues   string             `json:"known_issues,omitempty"`
	Dependencies  []store.Dependency `json:"dependencies,omitempty"`
	FileTree      []store.FileEntry  `json:"file_tree,omitempty"`
	SymbolKinds   map[string]int     `json:"symbol_kinds,omitempty"`
	SymbolCount   int                `json:"symbol_count"`
}

type symbolResponse struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	FilePath    string `json:"file_path"`
	LineNumber  int    `json:"line_number"`
	Signature   string `json:"signature,omitempty"`
	Description string `json:"description,omitempty"`
}

type insightResponse struct {
	ID               int64     `json:"id"`
	ProjectID        *int64    `json:"project_id,omitempty"`
	Type             string    `json:"type"`
	Content          string    `json:"content"`
	ModelUsed        string    `json:"model_used,omitempty"`
	ProjectsInvolved []string  `json:"projects_involved,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func summarize(p store.Project, overviews map[int64]store.Overview) projectSummary {
	summary := projectSummary{
		Name:   p.Name,
		Path:   p.Path,
		Stack:  p.Stack,
		Status: p.Status,
	}
	if p.LastIndexed.Valid {
		t := p.LastIndexed.Time
		summary.LastIndexed = &t
	}
	if ov, ok := overviews[p.ID]; ok {
		summary.FossilVersion = ov.FossilVersion
		summary.FossilCount = ov.FossilCount
	}
	return summary
}

func toInsightResponse(row store.Insight) insightResponse {
	out := insightResponse{
		ID:               row.ID,
		Type:             row.InsightType,
		Content:          row.Content,
		ModelUsed:        row.ModelUsed,
		ProjectsInvolved: row.InvolvedProjects(),
		CreatedAt:        row.CreatedAt,
	}
	if row.ProjectID.Valid {
		id := row.ProjectID.Int64
		out.ProjectID = &id
	}
	return out
}
