package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// UpsertProject registers a project or refreshes an existing registration.
// Archived projects are reactivated; historical fossils are never touched.
func (s *Store) UpsertProject(ctx context.Context, name, path, stack string) (*Project, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name required")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("project path required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (name, path, stack, status)
                 VALUES (?, ?, ?, 'active')
                 ON CONFLICT(name) DO UPDATE SET
                         path = excluded.path,
                         stack = excluded.stack,
                         status = 'active'`,
		name, path, stack)
	if err != nil {
		return nil, fmt.Errorf("upsert project: %w", err)
	}
	var project Project
	if err := s.db.GetContext(ctx, &project, `SELECT * FROM projects WHERE name = ?`, name); err != nil {
		return nil, fmt.Errorf("load project after upsert: %w", err)
	}
	return &project, nil
}

// ArchiveProject flips a project to archived without deleting anything.
func (s *Store) ArchiveProject(ctx context.Context, name string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE projects SET status = 'archived' WHERE name = ?`, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("archive project: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive project rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProjects returns all projects, active first, alphabetical within status.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	projects := []Project{}
	if err := s.db.SelectContext(ctx, &projects,
		`SELECT * FROM projects ORDER BY CASE status WHEN 'active' THEN 0 ELSE 1 END, name`); err != nil {
		return nil, fmt.Errorf("select projects: %w", err)
	}
	return projects, nil
}

// ResolveProject finds an active project by exact name, then case-insensitive
// name, then substring. A miss returns ErrNotFound.
func (s *Store) ResolveProject(ctx context.Context, ref string) (*Project, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("project reference required")
	}
	var project Project
	err := s.db.GetContext(ctx, &project, `SELECT * FROM projects WHERE name = ? AND status = 'active'`, ref)
	if err == nil {
		return &project, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	err = s.db.GetContext(ctx, &project, `SELECT * FROM projects WHERE LOWER(name) = LOWER(?) AND status = 'active'`, ref)
	if err == nil {
		return &project, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve project: %w", err)
	}
	err = s.db.GetContext(ctx, &project,
		`SELECT * FROM projects WHERE LOWER(name) LIKE LOWER(?) AND status = 'active' ORDER BY name LIMIT 1`,
		"%"+ref+"%")
	if err == nil {
		return &project, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return nil, fmt.Errorf("resolve project: %w", err)
}

// CreateFossil persists a fossil document and its symbols in one
// transaction. The version is computed inside the transaction so it is
// strictly increasing per project; callers serialize reindex runs so two
// writers never race the read-modify-write.
func (s *Store) CreateFossil(ctx context.Context, projectID int64, doc *FossilDoc, promptUsed string) (*Fossil, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if doc == nil {
		return nil, fmt.Errorf("fossil document required")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.GetContext(ctx, &version,
		`SELECT 1 + COALESCE(MAX(version), 0) FROM fossils WHERE project_id = ?`, projectID); err != nil {
		return nil, fmt.Errorf("next fossil version: %w", err)
	}

	fileTree, err := json.Marshal(doc.FileTree)
	if err != nil {
		return nil, fmt.Errorf("encode file tree: %w", err)
	}
	deps, err := json.Marshal(doc.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("encode dependencies: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO fossils
                 (project_id, version, file_tree, architecture, recent_changes, known_issues, dependencies, summary, prompt_used)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		projectID, version, string(fileTree), doc.Architecture, doc.RecentChanges,
		doc.KnownIssues, string(deps), doc.Summary, promptUsed)
	if err != nil {
		return nil, fmt.Errorf("insert fossil: %w", err)
	}
	fossilID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("fossil id: %w", err)
	}

	for _, sym := range doc.Symbols {
		if strings.TrimSpace(sym.Name) == "" {
			continue
		}
		var rel interface{}
		if sym.Relationships != nil {
			encoded, err := json.Marshal(sym.Relationships)
			if err != nil {
				return nil, fmt.Errorf("encode relationships for %s: %w", sym.Name, err)
			}
			rel = string(encoded)
		}
		kind := sym.Type
		if kind == "" {
			kind = "function"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO symbols
                         (project_id, fossil_id, file_path, line_number, type, name, signature, description, relationships)
                         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			projectID, fossilID, sym.FilePath, sym.LineNumber, kind, sym.Name,
			sym.Signature, sym.Description, rel); err != nil {
			return nil, fmt.Errorf("insert symbol %s: %w", sym.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET last_indexed = CURRENT_TIMESTAMP WHERE id = ?`, projectID); err != nil {
		return nil, fmt.Errorf("touch last_indexed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}

	var fossil Fossil
	if err := s.db.GetContext(ctx, &fossil, `SELECT * FROM fossils WHERE id = ?`, fossilID); err != nil {
		return nil, fmt.Errorf("load fossil after insert: %w", err)
	}
	return &fossil, nil
}

// LatestFossil returns the newest snapshot for the project, or ErrNotFound.
func (s *Store) LatestFossil(ctx context.Context, projectID int64) (*Fossil, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var fossil Fossil
	err := s.db.GetContext(ctx, &fossil,
		`SELECT * FROM fossils WHERE project_id = ? ORDER BY version DESC LIMIT 1`, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select latest fossil: %w", err)
	}
	return &fossil, nil
}

// FossilByVersion returns one specific snapshot version, or ErrNotFound.
func (s *Store) FossilByVersion(ctx context.Context, projectID int64, version int) (*Fossil, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	var fossil Fossil
	err := s.db.GetContext(ctx, &fossil,
		`SELECT * FROM fossils WHERE project_id = ? AND version = ?`, projectID, version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select fossil version: %w", err)
	}
	return &fossil, nil
}

// FossilHistory returns snapshots newest-first.
func (s *Store) FossilHistory(ctx context.Context, projectID int64, limit int) ([]Fossil, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if limit <= 0 {
		limit = 10
	}
	fossils := []Fossil{}
	if err := s.db.SelectContext(ctx, &fossils,
		`SELECT * FROM fossils WHERE project_id = ? ORDER BY version DESC LIMIT ?`, projectID, limit); err != nil {
		return nil, fmt.Errorf("select fossil history: %w", err)
	}
	return fossils, nil
}

// FossilSymbols returns all symbols for a fossil ordered by file then line.
func (s *Store) FossilSymbols(ctx context.Context, fossilID int64) ([]Symbol, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	symbols := []Symbol{}
	if err := s.db.SelectContext(ctx, &symbols,
		`SELECT * FROM symbols WHERE fossil_id = ? ORDER BY file_path, line_number`, fossilID); err != nil {
		return nil, fmt.Errorf("select fossil symbols: %w", err)
	}
	return symbols, nil
}

// SearchSymbols queries the project's latest fossil: exact name matches
// first, then case-insensitive substring matches, capped at limit. The
// second return reports truncation.
func (s *Store) SearchSymbols(ctx context.Context, projectID int64, query string, exact bool, limit int) ([]Symbol, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, fmt.Errorf("store not initialised")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false, fmt.Errorf("symbol query required")
	}
	if limit <= 0 {
		limit = 50
	}
	latest, err := s.LatestFossil(ctx, projectID)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	matches := []Symbol{}
	if err := s.db.SelectContext(ctx, &matches,
		`SELECT * FROM symbols
                 WHERE fossil_id = ? AND LOWER(name) = LOWER(?)
                 ORDER BY file_path, line_number`, latest.ID, query); err != nil {
		return nil, false, fmt.Errorf("select exact symbols: %w", err)
	}
	if !exact {
		substrings := []Symbol{}
		if err := s.db.SelectContext(ctx, &substrings,
			`SELECT * FROM symbols
                         WHERE fossil_id = ? AND LOWER(name) LIKE LOWER(?) AND LOWER(name) != LOWER(?)
                         ORDER BY file_path, line_number`, latest.ID, "%"+query+"%", query); err != nil {
			return nil, false, fmt.Errorf("select substring symbols: %w", err)
		}
		matches = append(matches, substrings...)
	}
	if len(matches) > limit {
		return matches[:limit], true, nil
	}
	return matches, false, nil
}

// SymbolContext returns described symbols matching the name across fossil
// history, newest fossil first, capped at 20.
func (s *Store) SymbolContext(ctx context.Context, projectID int64, name string) ([]Symbol, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	symbols := []Symbol{}
	if err := s.db.SelectContext(ctx, &symbols,
		`SELECT s.* FROM symbols s
                 JOIN fossils f ON f.id = s.fossil_id
                 WHERE s.project_id = ? AND LOWER(s.name) LIKE LOWER(?)
                 ORDER BY f.version DESC, s.file_path, s.line_number
                 LIMIT 20`, projectID, "%"+strings.TrimSpace(name)+"%"); err != nil {
		return nil, fmt.Errorf("select symbol context: %w", err)
	}
	return symbols, nil
}

// RelatedFiles resolves the files a symbol touches: the files that define
// matching symbols plus the files of every symbol referenced in their
// relationship sets.
func (s *Store) RelatedFiles(ctx context.Context, projectID int64, name string) (direct, related []string, err error) {
	if s == nil || s.db == nil {
		return nil, nil, fmt.Errorf("store not initialised")
	}
	symbols := []Symbol{}
	if err := s.db.SelectContext(ctx, &symbols,
		`SELECT s.* FROM symbols s
                 JOIN fossils f ON f.id = s.fossil_id
                 WHERE s.project_id = ? AND LOWER(s.name) LIKE LOWER(?)
                 ORDER BY f.version DESC`, projectID, "%"+strings.TrimSpace(name)+"%"); err != nil {
		return nil, nil, fmt.Errorf("select related symbols: %w", err)
	}

	directSet := map[string]struct{}{}
	relatedSet := map[string]struct{}{}
	for _, sym := range symbols {
		directSet[sym.FilePath] = struct{}{}
		rel := sym.RelationshipSet()
		if rel == nil {
			continue
		}
		referenced := map[string]struct{}{}
		for _, group := range [][]string{rel.Calls, rel.CalledBy, rel.DependsOn} {
			for _, refName := range group {
				referenced[refName] = struct{}{}
			}
		}
		for refName := range referenced {
			paths := []string{}
			if err := s.db.SelectContext(ctx, &paths,
				`SELECT DISTINCT s.file_path FROM symbols s
                                 JOIN fossils f ON f.id = s.fossil_id
                                 WHERE s.project_id = ? AND s.name = ?
                                 ORDER BY s.file_path`, projectID, refName); err != nil {
				return nil, nil, fmt.Errorf("select referenced files: %w", err)
			}
			for _, p := range paths {
				relatedSet[p] = struct{}{}
			}
		}
	}

	for p := range directSet {
		direct = append(direct, p)
		delete(relatedSet, p)
	}
	for p := range relatedSet {
		related = append(related, p)
	}
	sort.Strings(direct)
	sort.Strings(related)
	return direct, related, nil
}

// AppendPrompt records a new instruction text; prior rows are never touched.
func (s *Store) AppendPrompt(ctx context.Context, projectID *int64, prompt, createdBy, notes string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt text required")
	}
	if createdBy == "" {
		createdBy = "manual"
	}
	var pid interface{}
	if projectID != nil {
		pid = *projectID
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO custodian_prompts (project_id, prompt, created_by, notes) VALUES (?, ?, ?, ?)`,
		pid, prompt, createdBy, notes); err != nil {
		return fmt.Errorf("append prompt: %w", err)
	}
	return nil
}

// EffectivePrompt selects the newest project-scoped prompt, falling back to
// the newest global prompt, then to the built-in default.
func (s *Store) EffectivePrompt(ctx context.Context, projectID int64) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("store not initialised")
	}
	var prompt string
	err := s.db.GetContext(ctx, &prompt,
		`SELECT prompt FROM custodian_prompts
                 WHERE project_id = ? OR project_id IS NULL
                 ORDER BY project_id DESC, created_at DESC, id DESC
                 LIMIT 1`, projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultPrompt, nil
	}
	if err != nil {
		return "", fmt.Errorf("select effective prompt: %w", err)
	}
	return prompt, nil
}

// GlobalPrompt returns the newest global prompt text.
func (s *Store) GlobalPrompt(ctx context.Context) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("store not initialised")
	}
	var prompt string
	err := s.db.GetContext(ctx, &prompt,
		`SELECT prompt FROM custodian_prompts WHERE project_id IS NULL ORDER BY created_at DESC, id DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return defaultPrompt, nil
	}
	if err != nil {
		return "", fmt.Errorf("select global prompt: %w", err)
	}
	return prompt, nil
}

// AppendInsight stores one detective finding.
func (s *Store) AppendInsight(ctx context.Context, projectID, fossilID *int64, insightType, content, modelUsed string, projectsInvolved []string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(insightType) == "" || strings.TrimSpace(content) == "" {
		return fmt.Errorf("insight type and content required")
	}
	var pid, fid, involved interface{}
	if projectID != nil {
		pid = *projectID
	}
	if fossilID != nil {
		fid = *fossilID
	}
	if len(projectsInvolved) > 0 {
		encoded, err := json.Marshal(projectsInvolved)
		if err != nil {
			return fmt.Errorf("encode projects involved: %w", err)
		}
		involved = string(encoded)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO detective_insights (project_id, fossil_id, insight_type, content, model_used, projects_involved)
                 VALUES (?, ?, ?, ?, ?, ?)`,
		pid, fid, insightType, content, modelUsed, involved); err != nil {
		return fmt.Errorf("append insight: %w", err)
	}
	return nil
}

// ListInsights returns insights newest-first, optionally filtered by project
// and insight type.
func (s *Store) ListInsights(ctx context.Context, projectID *int64, insightType string, limit int) ([]Insight, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT * FROM detective_insights WHERE 1=1`
	args := []interface{}{}
	if projectID != nil {
		query += ` AND (project_id = ? OR project_id IS NULL)`
		args = append(args, *projectID)
	}
	if strings.TrimSpace(insightType) != "" {
		query += ` AND insight_type = ?`
		args = append(args, strings.TrimSpace(insightType))
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	insights := []Insight{}
	if err := s.db.SelectContext(ctx, &insights, query, args...); err != nil {
		return nil, fmt.Errorf("select insights: %w", err)
	}
	return insights, nil
}

// AppendAudit records one tool invocation. Params are serialized as JSON.
func (s *Store) AppendAudit(ctx context.Context, tool, project string, params map[string]interface{}) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store not initialised")
	}
	if strings.TrimSpace(tool) == "" {
		return fmt.Errorf("tool name required")
	}
	serialized := "{}"
	if len(params) > 0 {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("encode audit params: %w", err)
		}
		serialized = string(encoded)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO query_log (tool_name, project_name, query_params) VALUES (?, ?, ?)`,
		tool, project, serialized); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// RecentAudit returns the newest audit rows.
func (s *Store) RecentAudit(ctx context.Context, limit int) ([]AuditRow, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if limit <= 0 {
		limit = 50
	}
	rows := []AuditRow{}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM query_log ORDER BY timestamp DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select audit rows: %w", err)
	}
	return rows, nil
}

// QueryPattern is one aggregated audit-log row.
type QueryPattern struct {
	ToolName    string `db:"tool_name"`
	ProjectName string `db:"project_name"`
	QueryParams string `db:"query_params"`
	Count       int    `db:"count"`
}

// QueryPatterns aggregates the audit log by tool and parameter payload,
// most frequent first.
func (s *Store) QueryPatterns(ctx context.Context, limit int) ([]QueryPattern, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if limit <= 0 {
		limit = 30
	}
	patterns := []QueryPattern{}
	if err := s.db.SelectContext(ctx, &patterns,
		`SELECT tool_name, COALESCE(project_name, '') AS project_name, COALESCE(query_params, '') AS query_params, COUNT(*) AS count
                 FROM query_log
                 GROUP BY tool_name, project_name, query_params
                 ORDER BY count DESC
                 LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select query patterns: %w", err)
	}
	return patterns, nil
}

// SymbolLookupParams returns the newest lookup_symbol parameter payloads.
func (s *Store) SymbolLookupParams(ctx context.Context, limit int) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if limit <= 0 {
		limit = 30
	}
	params := []string{}
	if err := s.db.SelectContext(ctx, &params,
		`SELECT COALESCE(query_params, '') FROM query_log
                 WHERE tool_name = 'lookup_symbol'
                 ORDER BY timestamp DESC, id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select lookup params: %w", err)
	}
	return params, nil
}

// LookupMiss is a symbol query that matches nothing in the current index.
type LookupMiss struct {
	Symbol string `db:"symbol"`
	Count  int    `db:"count"`
}

// LookupMisses finds symbol names that agents keep asking for but that no
// stored symbol satisfies. These bias the next prompt refinement.
func (s *Store) LookupMisses(ctx context.Context, limit int) ([]LookupMiss, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	if limit <= 0 {
		limit = 20
	}
	misses := []LookupMiss{}
	if err := s.db.SelectContext(ctx, &misses,
		`SELECT json_extract(q.query_params, '$.symbol') AS symbol, COUNT(*) AS count
                 FROM query_log q
                 WHERE q.tool_name = 'lookup_symbol'
                   AND json_extract(q.query_params, '$.symbol') IS NOT NULL
                   AND NOT EXISTS (
                           SELECT 1 FROM symbols s
                           WHERE LOWER(s.name) = LOWER(json_extract(q.query_params, '$.symbol'))
                   )
                 GROUP BY LOWER(json_extract(q.query_params, '$.symbol'))
                 ORDER BY count DESC
                 LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select lookup misses: %w", err)
	}
	return misses, nil
}

// SymbolKindCounts tallies symbols by kind for one fossil.
func (s *Store) SymbolKindCounts(ctx context.Context, fossilID int64) (map[string]int, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	rows := []struct {
		Type  string `db:"type"`
		Count int    `db:"count"`
	}{}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT type, COUNT(*) AS count FROM symbols WHERE fossil_id = ? GROUP BY type`, fossilID); err != nil {
		return nil, fmt.Errorf("select symbol kind counts: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}

// Overview is one project_overview view row.
type Overview struct {
	ID            int64        `db:"id"`
	Name          string       `db:"name"`
	Status        string       `db:"status"`
	LastIndexed   sql.NullTime `db:"last_indexed"`
	FossilVersion int          `db:"fossil_version"`
	FossilCount   int          `db:"fossil_count"`
}

// ListOverviews returns one summary row per project.
func (s *Store) ListOverviews(ctx context.Context) ([]Overview, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store not initialised")
	}
	overviews := []Overview{}
	if err := s.db.SelectContext(ctx, &overviews,
		`SELECT * FROM project_overview ORDER BY CASE status WHEN 'active' THEN 0 ELSE 1 END, name`); err != nil {
		return nil, fmt.Errorf("select project overview: %w", err)
	}
	return overviews, nil
}

