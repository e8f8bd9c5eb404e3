package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

// ListProjectsTool lists every registered project with its index state.
type ListProjectsTool struct {
	deps *Deps
}

func NewListProjectsTool(deps *Deps) *ListProjectsTool { return &ListProjectsTool{deps: deps} }

func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List all registered projects with their status, stack, and last indexed time."),
	)
}

func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.deps.Store.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list projects: %v", err)), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects registered yet. Register one over the ops API or the admin CLI."), nil
	}
	counts := map[int64]store.Overview{}
	if overviews, err := t.deps.Store.ListOverviews(ctx); err == nil {
		for _, ov := range overviews {
			counts[ov.ID] = ov
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Projects: %d\n", len(projects))
	for _, p := range projects {
		stack := p.Stack
		if stack == "" {
			stack = "unknown"
		}
		fmt.Fprintf(&b, "\n%s (%s) %s\n", p.Name, stack, p.Status)
		fmt.Fprintf(&b, "  path: %s\n", p.Path)
		fmt.Fprintf(&b, "  last indexed: %s\n", formatNullTime(p.LastIndexed))
		if ov, ok := counts[p.ID]; ok && ov.FossilCount > 0 {
			fmt.Fprintf(&b, "  fossils: %d (latest v%d)\n", ov.FossilCount, ov.FossilVersion)
		} else {
			b.WriteString("  fossils: none\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// TriggerCustodianTool starts an asynchronous reindex run for one project.
type TriggerCustodianTool struct {
	deps *Deps
}

func NewTriggerCustodianTool(deps *Deps) *TriggerCustodianTool {
	return &TriggerCustodianTool{deps: deps}
}

func (t *TriggerCustodianTool) Definition() mcp.Tool {
	return mcp.NewTool("trigger_custodian",
		mcp.WithDescription("Run custodian indexing for a project, producing a new fossil version. Asynchronous: results are not immediate."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name to index.")),
	)
}

func (t *TriggerCustodianTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	runID, err := t.deps.Pipeline.Start(project)
	if errors.Is(err, pipeline.ErrRunInProgress) {
		return mcp.NewToolResultError(fmt.Sprintf("busy: indexing is already running for '%s'", project.Name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start indexing: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Custodian indexing started for '%s' (run %s). Check get_project_fossil in a minute for the fresh snapshot.",
		project.Name, runID)), nil
}
