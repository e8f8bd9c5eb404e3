package detective

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

const (
	// analysisHistoryDepth caps how many fossil versions per project feed
	// the analysis context; very old snapshots add bytes, not signal.
	analysisHistoryDepth = 20
	// patternSampleSize is how many parameter-level audit rows are folded
	// into the tool-on-project totals.
	patternSampleSize  = 200
	analysisPatternCap = 30
	recentQuerySample  = 50
	sectionClip        = 500

	refinePatternCap   = 50
	refineLookupSample = 30
	refineMissCap      = 20
)

// analysisScope carries the rendered context plus the attribution the run
// needs when it stores insights.
type analysisScope struct {
	text      string
	name      string
	projectID *int64
	involved  []string
}

func (r *Runner) buildAnalysisContext(ctx context.Context, projectRef string) (*analysisScope, error) {
	scope := &analysisScope{}
	var projects []store.Project
	if strings.TrimSpace(projectRef) != "" {
		project, err := r.store.ResolveProject(ctx, projectRef)
		if err != nil {
			return nil, err
		}
		projects = []store.Project{*project}
		scope.name = project.Name
		scope.involved = []string{project.Name}
	} else {
		all, err := r.store.ListProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		for _, p := range all {
			if p.Status == "active" {
				projects = append(projects, p)
			}
		}
	}
	if len(projects) == 1 {
		id := projects[0].ID
		scope.projectID = &id
	}

	var b strings.Builder
	for _, proj := range projects {
		if err := r.writeProjectSection(ctx, &b, proj); err != nil {
			return nil, err
		}
	}
	if err := r.writeQuerySections(ctx, &b); err != nil {
		return nil, err
	}
	scope.text = b.String()
	return scope, nil
}

func (r *Runner) writeProjectSection(ctx context.Context, b *strings.Builder, proj store.Project) error {
	fmt.Fprintf(b, "\n=== PROJECT: %s ===\n", proj.Name)
	fmt.Fprintf(b, "Path: %s\n", proj.Path)
	fmt.Fprintf(b, "Stack: %s\n", proj.Stack)

	history, err := r.store.FossilHistory(ctx, proj.ID, analysisHistoryDepth)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return nil
	}
	// History arrives newest-first; the narrative reads oldest-first.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	fmt.Fprintf(b, "\nFossil history (%d versions):\n", len(history))
	for _, fossil := range history {
		fmt.Fprintf(b, "\n--- Fossil v%d (%s) ---\n", fossil.Version, fossil.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Fprintf(b, "Summary: %s\n", fossil.Summary)
		if fossil.Architecture != "" {
			fmt.Fprintf(b, "Architecture: %s\n", clip(fossil.Architecture, sectionClip))
		}
		if fossil.KnownIssues != "" {
			fmt.Fprintf(b, "Known issues: %s\n", clip(fossil.KnownIssues, sectionClip))
		}
		if fossil.RecentChanges != "" {
			fmt.Fprintf(b, "Changes: %s\n", clip(fossil.RecentChanges, sectionClip))
		}
		tree := fossil.FileTreeEntries()
		totalLines := 0
		for _, entry := range tree {
			totalLines += entry.Lines
		}
		fmt.Fprintf(b, "Total files: %d, Total lines: %d\n", len(tree), totalLines)
	}

	latest := history[len(history)-1]
	kinds, err := r.store.SymbolKindCounts(ctx, latest.ID)
	if err != nil {
		return err
	}
	if len(kinds) > 0 {
		fmt.Fprintf(b, "Latest symbols: %s\n", formatKindCounts(kinds))
	}
	return nil
}

func (r *Runner) writeQuerySections(ctx context.Context, b *strings.Builder) error {
	patterns, err := r.store.QueryPatterns(ctx, patternSampleSize)
	if err != nil {
		return err
	}
	merged := mergeToolProjectCounts(patterns)
	if len(merged) > 0 {
		b.WriteString("\n=== MCP QUERY PATTERNS ===\n")
		for _, line := range merged {
			project := line.project
			if project == "" {
				project = "*"
			}
			fmt.Fprintf(b, "  %s on %s: %d calls\n", line.tool, project, line.count)
		}
	}

	fmt.Fprintf(b, "\n=== RECENT QUERY DETAILS (last %d) ===\n", recentQuerySample)
	recent, err := r.store.RecentAudit(ctx, recentQuerySample)
	if err != nil {
		return err
	}
	for _, row := range recent {
		fmt.Fprintf(b, "  [%s] %s(%s)\n",
			row.Timestamp.Format("2006-01-02 15:04:05"), row.ToolName, row.QueryParams)
	}
	return nil
}

func (r *Runner) buildRefinementContext(ctx context.Context) (string, error) {
	prompt, err := r.store.GlobalPrompt(ctx)
	if err != nil {
		return "", err
	}
	patterns, err := r.store.QueryPatterns(ctx, refinePatternCap)
	if err != nil {
		return "", err
	}
	lookups, err := r.store.SymbolLookupParams(ctx, refineLookupSample)
	if err != nil {
		return "", err
	}
	misses, err := r.store.LookupMisses(ctx, refineMissCap)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Current custodian prompt:\n")
	b.WriteString(prompt)
	b.WriteString("\n\nQuery patterns (what agents ask for):\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "  %s: %s (×%d)\n", p.ToolName, p.QueryParams, p.Count)
	}
	b.WriteString("\nSymbol searches (what agents look up):\n")
	for _, params := range lookups {
		fmt.Fprintf(&b, "  %s\n", params)
	}
	if len(misses) > 0 {
		b.WriteString("\nSymbol searches that matched nothing (cover these first):\n")
		for _, miss := range misses {
			fmt.Fprintf(&b, "  %s (×%d)\n", miss.Symbol, miss.Count)
		}
	}
	return b.String(), nil
}

type patternLine struct {
	tool    string
	project string
	count   int
}

// mergeToolProjectCounts folds parameter-level audit aggregates into
// tool-on-project totals, most queried first.
func mergeToolProjectCounts(patterns []store.QueryPattern) []patternLine {
	keyed := map[string]*patternLine{}
	order := []string{}
	for _, p := range patterns {
		key := p.ToolName + "|" + p.ProjectName
		line, ok := keyed[key]
		if !ok {
			line = &patternLine{tool: p.ToolName, project: p.ProjectName}
			keyed[key] = line
			order = append(order, key)
		}
		line.count += p.Count
	}
	merged := make([]patternLine, 0, len(order))
	for _, key := range order {
		merged = append(merged, *keyed[key])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].count == merged[j].count {
			if merged[i].tool == merged[j].tool {
				return merged[i].project < merged[j].project
			}
			return merged[i].tool < merged[j].tool
		}
		return merged[i].count > merged[j].count
	})
	if len(merged) > analysisPatternCap {
		merged = merged[:analysisPatternCap]
	}
	return merged
}

func formatKindCounts(kinds map[string]int) string {
	type kindCount struct {
		kind  string
		count int
	}
	pairs := make([]kindCount, 0, len(kinds))
	for kind, count := range kinds {
		pairs = append(pairs, kindCount{kind, count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count == pairs[j].count {
			return pairs[i].kind < pairs[j].kind
		}
		return pairs[i].count > pairs[j].count
	})
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s: %d", p.kind, p.count)
	}
	return strings.Join(parts, ", ")
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
