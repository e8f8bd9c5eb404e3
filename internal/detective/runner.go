// Package detective mines fossil history and the tool audit log for
// cross-version findings: files that change together, modules that keep
// growing, patterns repeated or abandoned across projects. It also evolves
// the global custodian prompt from what agents actually query. Everything
// it writes is append-only; prior insights and prompts are never touched.
package detective

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/common/telemetry"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/llm"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

const analysisPrompt = `You are the Detective. Analyze the fossil history and query patterns below. Produce insights in JSON format.

For each insight, output a JSON object in an array:
[
  {
    "type": "coupling|growth|pattern|regression|prompt_refinement",
    "content": "detailed finding",
    "projects": ["project-name"]
  }
]

Analyze for:
1. COUPLING: Files that always change together (look at recent_changes across fossils)
2. GROWTH: Modules getting bigger over time (compare file line counts across fossil versions)
3. PATTERNS: Similar architectural choices repeated across projects (stores, data flow, etc.)
4. REGRESSION: Patterns tried and abandoned (things in earlier fossils but not later ones)
5. CROSS-PROJECT: Solutions in one project that could benefit another

Also analyze the tool query patterns:
- What do agents search for most?
- What queries might return empty results (gaps in fossil data)?
- What additional fields would make fossils more useful?

Output ONLY valid JSON array. No markdown fences.`

const refinementPrompt = `Analyze the current custodian prompt and the tool query patterns. The query patterns show what coding agents actually search for when working on projects.

Identify:
1. Gaps: What agents search for that the fossil doesn't provide well
2. Improvements: How to restructure the prompt for better fossils
3. New fields: Any data that should be added to the fossil format

Output a JSON object:
{
    "analysis": "what you found",
    "suggested_prompt": "the complete improved custodian prompt",
    "changes": ["list of what changed and why"]
}

Output ONLY valid JSON.`

// Runner executes detective batch jobs against the store.
type Runner struct {
	store    *store.Store
	provider llm.Provider
}

func NewRunner(st *store.Store, provider llm.Provider) (*Runner, error) {
	if st == nil {
		return nil, fmt.Errorf("store required")
	}
	if provider == nil {
		return nil, fmt.Errorf("transform provider required")
	}
	return &Runner{store: st, provider: provider}, nil
}

// Report summarises one analysis run.
type Report struct {
	RunID    string
	Project  string
	Insights int
	Raw      bool
}

// Run performs one analysis pass: build the context, ask the provider for
// an insight array, store every finding. Output that does not parse as
// JSON is kept as a single raw pattern insight rather than discarded.
func (r *Runner) Run(ctx context.Context, projectRef string) (*Report, error) {
	runID := uuid.NewString()
	logger := common.Logger()
	stored := 0
	spanCtx, finish := telemetry.StartSpan(ctx, "detective.run")
	defer func() {
		finish("run", runID, "insights", stored)
	}()

	scope, err := r.buildAnalysisContext(spanCtx, projectRef)
	if err != nil {
		return nil, err
	}
	logger.Info("detective: analysis started",
		"run", runID, "project", scope.name, "model", r.provider.Name(), "context_bytes", len(scope.text))

	raw, err := r.provider.Transform(spanCtx, analysisPrompt, scope.text)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}

	docs, parseErr := parseInsights(raw)
	if parseErr != nil {
		if err := r.store.AppendInsight(spanCtx, scope.projectID, nil,
			"pattern", strings.TrimSpace(raw), r.provider.Name(), scope.involved); err != nil {
			return nil, fmt.Errorf("append raw insight: %w", err)
		}
		stored = 1
		telemetry.RecordDetectiveRun(stored)
		logger.Warn("detective: analysis output stored raw", "run", runID, "error", parseErr)
		return &Report{RunID: runID, Project: scope.name, Insights: stored, Raw: true}, nil
	}

	for _, doc := range docs {
		if err := r.store.AppendInsight(spanCtx, scope.projectID, nil,
			normalizeInsightType(doc.Type), doc.Content, r.provider.Name(), doc.Projects); err != nil {
			return nil, fmt.Errorf("append insight: %w", err)
		}
		stored++
	}
	telemetry.RecordDetectiveRun(stored)
	logger.Info("detective: analysis stored", "run", runID, "insights", stored)
	return &Report{RunID: runID, Project: scope.name, Insights: stored}, nil
}

// RefineReport summarises one prompt refinement run.
type RefineReport struct {
	RunID    string
	Analysis string
	Changes  []string
}

// RefinePrompt asks the provider to rework the global custodian prompt
// from the audit log: what agents query, what they look up, and which
// lookups matched nothing. A usable answer appends a new global prompt
// (created_by=detective) plus a prompt_refinement insight.
func (r *Runner) RefinePrompt(ctx context.Context) (*RefineReport, error) {
	runID := uuid.NewString()
	logger := common.Logger()
	spanCtx, finish := telemetry.StartSpan(ctx, "detective.refine")
	defer func() {
		finish("run", runID)
	}()

	text, err := r.buildRefinementContext(spanCtx)
	if err != nil {
		return nil, err
	}
	logger.Info("detective: prompt refinement started",
		"run", runID, "model", r.provider.Name(), "context_bytes", len(text))

	raw, err := r.provider.Transform(spanCtx, refinementPrompt, text)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	doc, err := parseRefinement(raw)
	if err != nil {
		return nil, err
	}

	notes, err := json.Marshal(map[string]interface{}{
		"analysis": doc.Analysis,
		"changes":  doc.Changes,
	})
	if err != nil {
		return nil, fmt.Errorf("encode refinement notes: %w", err)
	}
	if err := r.store.AppendPrompt(spanCtx, nil, doc.SuggestedPrompt, "detective", string(notes)); err != nil {
		return nil, fmt.Errorf("append refined prompt: %w", err)
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode refinement insight: %w", err)
	}
	if err := r.store.AppendInsight(spanCtx, nil, nil,
		"prompt_refinement", string(content), r.provider.Name(), nil); err != nil {
		return nil, fmt.Errorf("append refinement insight: %w", err)
	}

	telemetry.RecordDetectiveRun(1)
	logger.Info("detective: refined prompt stored", "run", runID, "changes", len(doc.Changes))
	return &RefineReport{RunID: runID, Analysis: doc.Analysis, Changes: doc.Changes}, nil
}

var insightKinds = map[string]bool{
	"coupling":          true,
	"growth":            true,
	"pattern":           true,
	"regression":        true,
	"prompt_refinement": true,
}

// normalizeInsightType clamps model-invented kinds to pattern so every
// stored row stays reachable through the insight_type filter.
func normalizeInsightType(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if insightKinds[kind] {
		return kind
	}
	return "pattern"
}
