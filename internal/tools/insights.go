package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

const insightLimit = 20

// InsightsTool surfaces detective findings: coupling, growth, recurring
// patterns, regressions, and prompt refinements.
type InsightsTool struct {
	deps *Deps
}

func NewInsightsTool(deps *Deps) *InsightsTool { return &InsightsTool{deps: deps} }

func (t *InsightsTool) Definition() mcp.Tool {
	return mcp.NewTool("get_detective_insights",
		mcp.WithDescription(
			"Get known patterns, warnings, coupling analysis, and architectural insights "+
				"for a project, or cross-project insights when no project is given.",
		),
		mcp.WithString("project", mcp.Description("Project name. Omit for cross-project insights.")),
		mcp.WithString("insight_type",
			mcp.Description("Filter by insight type."),
			mcp.Enum("coupling", "growth", "pattern", "regression", "prompt_refinement"),
		),
	)
}

func (t *InsightsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	insightType := strings.TrimSpace(req.GetString("insight_type", ""))
	ref := strings.TrimSpace(req.GetString("project", ""))

	var rows []store.Insight
	var header string
	if ref != "" {
		project, errResult := t.deps.resolveProject(ctx, ref)
		if errResult != nil {
			return errResult, nil
		}
		found, err := t.deps.Store.ListInsights(ctx, &project.ID, insightType, insightLimit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list insights: %v", err)), nil
		}
		rows = found
		header = fmt.Sprintf("Project: %s\nInsights: %d\n", project.Name, len(rows))
	} else {
		// Without a project only cross-project findings apply; rows that
		// carry a project id answer project-scoped queries instead.
		all, err := t.deps.Store.ListInsights(ctx, nil, insightType, insightLimit*5)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list insights: %v", err)), nil
		}
		for _, row := range all {
			if row.ProjectID.Valid {
				continue
			}
			rows = append(rows, row)
			if len(rows) == insightLimit {
				break
			}
		}
		header = fmt.Sprintf("Insights: %d (cross-project)\n", len(rows))
	}
	if len(rows) == 0 {
		return mcp.NewToolResultText("No detective insights found."), nil
	}

	var b strings.Builder
	b.WriteString(header)
	for _, row := range rows {
		fmt.Fprintf(&b, "\n[%s] %s\n", row.InsightType, row.CreatedAt.Format("2006-01-02"))
		b.WriteString(strings.TrimSpace(row.Content) + "\n")
		if names := row.InvolvedProjects(); len(names) > 0 {
			fmt.Fprintf(&b, "projects: %s\n", strings.Join(names, ", "))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
