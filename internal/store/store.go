package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// ErrNotFound reports a project, snapshot, or symbol lookup that matched
// nothing. Callers translate it into an empty result, never a crash.
var ErrNotFound = errors.New("not found")

// Store wraps a pooled sqlx.DB connection to the SQLite knowledge base.
type Store struct {
	db *sqlx.DB
}

// Open constructs a Store backed by the SQLite database at the provided path.
// The database schema is automatically migrated and seeded on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("store path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve store path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.SeedDefaultPrompt(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS projects (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                name TEXT NOT NULL UNIQUE,
                path TEXT NOT NULL,
                stack TEXT,
                status TEXT NOT NULL DEFAULT 'active',
                last_indexed DATETIME,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS fossils (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                project_id INTEGER NOT NULL,
                version INTEGER NOT NULL,
                file_tree TEXT,
                architecture TEXT,
                recent_changes TEXT,
                known_issues TEXT,
                dependencies TEXT,
                summary TEXT,
                prompt_used TEXT,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(project_id) REFERENCES projects(id),
                UNIQUE(project_id, version)
        );`,
	`CREATE TABLE IF NOT EXISTS symbols (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                project_id INTEGER NOT NULL,
                fossil_id INTEGER NOT NULL,
                file_path TEXT NOT NULL,
                line_number INTEGER,
                type TEXT NOT NULL DEFAULT 'function',
                name TEXT NOT NULL,
                signature TEXT,
                description TEXT,
                relationships TEXT,
                FOREIGN KEY(project_id) REFERENCES projects(id),
                FOREIGN KEY(fossil_id) REFERENCES fossils(id) ON DELETE CASCADE
        );`,
	`CREATE TABLE IF NOT EXISTS detective_insights (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                project_id INTEGER,
                fossil_id INTEGER,
                insight_type TEXT NOT NULL,
                content TEXT NOT NULL,
                model_used TEXT,
                projects_involved TEXT,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(project_id) REFERENCES projects(id)
        );`,
	`CREATE TABLE IF NOT EXISTS custodian_prompts (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                project_id INTEGER,
                prompt TEXT NOT NULL,
                created_by TEXT NOT NULL DEFAULT 'manual',
                notes TEXT,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(project_id) REFERENCES projects(id)
        );`,
	`CREATE TABLE IF NOT EXISTS query_log (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                tool_name TEXT NOT NULL,
                project_name TEXT,
                query_params TEXT,
                timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_fossils_project_version ON fossils(project_id, version);`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_project_name ON symbols(project_id, name);`,
	`CREATE INDEX IF NOT EXISTS idx_symbols_fossil ON symbols(fossil_id);`,
	`CREATE INDEX IF NOT EXISTS idx_insights_project_type ON detective_insights(project_id, insight_type);`,
	`CREATE INDEX IF NOT EXISTS idx_prompts_project_created ON custodian_prompts(project_id, created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_query_log_tool ON query_log(tool_name, timestamp);`,
	`CREATE VIEW IF NOT EXISTS project_overview AS
                SELECT
                        p.id,
                        p.name,
                        p.status,
                        p.last_indexed,
                        COALESCE(MAX(f.version), 0) AS fossil_version,
                        COUNT(DISTINCT f.id) AS fossil_count
                FROM projects p
                LEFT JOIN fossils f ON f.project_id = p.id
                GROUP BY p.id;`,
}

// defaultPrompt is seeded as the global instruction text for the external
// transform step when no global prompt exists yet. The detective appends
// refined versions over time; rows are never rewritten.
const defaultPrompt = `You are the Custodian. You are given a complete codebase dump, a symbol index, and recent git history for a project. Produce a JSON fossil with these fields:

- file_tree: array of {path, description (one line), lines (count)} for every significant file (skip node_modules, .git, dist, build, __pycache__, .next)
- architecture: how the major components connect (data flow, dependencies, entry points). Be specific about which files talk to which.
- recent_changes: summarize the last 20 commits - what changed and why. Group related commits.
- known_issues: any TODOs, FIXMEs, hacks, or tech debt you can identify. Include file paths.
- dependencies: array of {name, version, purpose} for key dependencies (from package.json, requirements.txt, etc.)
- summary: one paragraph describing what this project is, its current state, and how it works
- symbols: array of {file_path, line_number, type, name, signature, description, relationships} for every important function/class/component/hook/store/type. For relationships, include {calls: [], called_by: [], depends_on: []} where you can determine them.

Types for symbols: function, class, component, route, hook, store, type, interface, enum, constant

Output ONLY valid JSON. No markdown fences, no commentary. The JSON should have these top-level keys:
file_tree, architecture, recent_changes, known_issues, dependencies, summary, symbols`

// SeedDefaultPrompt inserts the built-in global prompt when none exists.
// Safe to call on every startup.
func (s *Store) SeedDefaultPrompt(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("store not initialised")
	}
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM custodian_prompts WHERE project_id IS NULL`); err != nil {
		return fmt.Errorf("count global prompts: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO custodian_prompts (project_id, prompt, created_by, notes) VALUES (NULL, ?, 'initial', 'Default custodian prompt')`,
		defaultPrompt)
	if err != nil {
		return fmt.Errorf("seed default prompt: %w", err)
	}
	return nil
}
