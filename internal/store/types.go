package store

import (
	"database/sql"
	"encoding/json"
	"time"
)

// Project represents a registered codebase row.
type Project struct {
	ID          int64        `db:"id"`
	Name        string       `db:"name"`
	Path        string       `db:"path"`
	Stack       string       `db:"stack"`
	Status      string       `db:"status"`
	LastIndexed sql.NullTime `db:"last_indexed"`
	CreatedAt   time.Time    `db:"created_at"`
}

// Fossil represents one immutable versioned snapshot row. The JSON columns
// (file_tree, dependencies) are stored serialized and decoded on demand.
type Fossil struct {
	ID            int64     `db:"id"`
	ProjectID     int64     `db:"project_id"`
	Version       int       `db:"version"`
	FileTree      string    `db:"file_tree"`
	Architecture  string    `db:"architecture"`
	RecentChanges string    `db:"recent_changes"`
	KnownIssues   string    `db:"known_issues"`
	Dependencies  string    `db:"dependencies"`
	Summary       string    `db:"summary"`
	PromptUsed    string    `db:"prompt_used"`
	CreatedAt     time.Time `db:"created_at"`
}

// Symbol represents an extracted code entity attached to one fossil.
type Symbol struct {
	ID            int64          `db:"id"`
	ProjectID     int64          `db:"project_id"`
	FossilID      int64          `db:"fossil_id"`
	FilePath      string         `db:"file_path"`
	LineNumber    int            `db:"line_number"`
	Type          string         `db:"type"`
	Name          string         `db:"name"`
	Signature     string         `db:"signature"`
	Description   string         `db:"description"`
	Relationships sql.NullString `db:"relationships"`
}

// Insight is one append-only detective finding.
type Insight struct {
	ID               int64          `db:"id"`
	ProjectID        sql.NullInt64  `db:"project_id"`
	FossilID         sql.NullInt64  `db:"fossil_id"`
	InsightType      string         `db:"insight_type"`
	Content          string         `db:"content"`
	ModelUsed        string         `db:"model_used"`
	ProjectsInvolved sql.NullString `db:"projects_involved"`
	CreatedAt        time.Time      `db:"created_at"`
}

// Prompt is one append-only instruction text for the transform step.
// ProjectID null means global.
type Prompt struct {
	ID        int64          `db:"id"`
	ProjectID sql.NullInt64  `db:"project_id"`
	Prompt    string         `db:"prompt"`
	CreatedBy string         `db:"created_by"`
	Notes     sql.NullString `db:"notes"`
	CreatedAt time.Time      `db:"created_at"`
}

// AuditRow is one tool-server invocation record.
type AuditRow struct {
	ID          int64     `db:"id"`
	ToolName    string    `db:"tool_name"`
	ProjectName string    `db:"project_name"`
	QueryParams string    `db:"query_params"`
	Timestamp   time.Time `db:"timestamp"`
}

// FossilDoc is the structured snapshot document produced by the transform
// step and persisted atomically with its symbols.
type FossilDoc struct {
	FileTree      []FileEntry  `json:"file_tree"`
	Architecture  string       `json:"architecture"`
	RecentChanges string       `json:"recent_changes"`
	KnownIssues   string       `json:"known_issues"`
	Dependencies  []Dependency `json:"dependencies"`
	Summary       string       `json:"summary"`
	Symbols       []SymbolDoc  `json:"symbols"`
}

// FileEntry is one file_tree element.
type FileEntry struct {
	Path        string `json:"path"`
	Description string `json:"description"`
	Lines       int    `json:"lines"`
}

// Dependency is one declared project dependency.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Purpose string `json:"purpose"`
}

// SymbolDoc is one symbol entry inside a FossilDoc.
type SymbolDoc struct {
	FilePath      string         `json:"file_path"`
	LineNumber    int            `json:"line_number"`
	Type          string         `json:"type"`
	Name          string         `json:"name"`
	Signature     string         `json:"signature"`
	Description   string         `json:"description"`
	Relationships *Relationships `json:"relationships,omitempty"`
}

// Relationships carries symbol cross-references where determinable.
type Relationships struct {
	Calls     []string `json:"calls,omitempty"`
	CalledBy  []string `json:"called_by,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
}

// FileTreeEntries decodes the serialized file_tree column.
func (f *Fossil) FileTreeEntries() []FileEntry {
	if f == nil || f.FileTree == "" {
		return nil
	}
	var entries []FileEntry
	if err := json.Unmarshal([]byte(f.FileTree), &entries); err != nil {
		return nil
	}
	return entries
}

// DependencyList decodes the serialized dependencies column.
func (f *Fossil) DependencyList() []Dependency {
	if f == nil || f.Dependencies == "" {
		return nil
	}
	var deps []Dependency
	if err := json.Unmarshal([]byte(f.Dependencies), &deps); err != nil {
		return nil
	}
	return deps
}

// RelationshipSet decodes the serialized relationships column.
func (s *Symbol) RelationshipSet() *Relationships {
	if s == nil || !s.Relationships.Valid || s.Relationships.String == "" {
		return nil
	}
	var rel Relationships
	if err := json.Unmarshal([]byte(s.Relationships.String), &rel); err != nil {
		return nil
	}
	return &rel
}

// InvolvedProjects decodes the serialized projects_involved column.
func (i *Insight) InvolvedProjects() []string {
	if i == nil || !i.ProjectsInvolved.Valid || i.ProjectsInvolved.String == "" {
		return nil
	}
	var names []string
	if err := json.Unmarshal([]byte(i.ProjectsInvolved.String), &names); err != nil {
		return nil
	}
	return names
}
