package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/design"
)

// Any design-tool fault is reported with this one message; the underlying
// cause only appears in the engine log.
const designUnavailableMsg = "external dependency unavailable: design tool"

// PenpotListTool lists Penpot design projects and their files.
type PenpotListTool struct {
	deps *Deps
}

func NewPenpotListTool(deps *Deps) *PenpotListTool { return &PenpotListTool{deps: deps} }

func (t *PenpotListTool) Definition() mcp.Tool {
	return mcp.NewTool("penpot_list_projects",
		mcp.WithDescription("List all Penpot projects and their files (wireframes and designs)."),
	)
}

func (t *PenpotListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.deps.Design.ListProjects(ctx)
	if err != nil {
		return mcp.NewToolResultError(designUnavailableMsg), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No design projects found."), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Design projects: %d\n", len(projects))
	for _, p := range projects {
		fmt.Fprintf(&b, "\n%s (id %s)\n", p.Name, p.ID)
		if len(p.Files) == 0 {
			b.WriteString("  (no files)\n")
			continue
		}
		for _, f := range p.Files {
			line := fmt.Sprintf("  - %s (file %s)", f.Name, f.ID)
			if f.ModifiedAt != "" {
				line += ", modified " + f.ModifiedAt
			}
			b.WriteString(line + "\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// PenpotPageTool reads the component structure of a Penpot file page.
type PenpotPageTool struct {
	deps *Deps
}

func NewPenpotPageTool(deps *Deps) *PenpotPageTool { return &PenpotPageTool{deps: deps} }

func (t *PenpotPageTool) Definition() mcp.Tool {
	return mcp.NewTool("penpot_get_page",
		mcp.WithDescription(
			"Get the structure of a Penpot file page: component names, layout frames, text content. "+
				"Use it to understand a wireframe design.",
		),
		mcp.WithString("file_id", mcp.Required(), mcp.Description("Penpot file UUID, from penpot_list_projects.")),
		mcp.WithString("page", mcp.Description("Page name. All pages are returned when omitted.")),
	)
}

func (t *PenpotPageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileID := strings.TrimSpace(req.GetString("file_id", ""))
	if fileID == "" {
		return mcp.NewToolResultError("'file_id' is required"), nil
	}
	pageName := strings.TrimSpace(req.GetString("page", ""))
	pages, err := t.deps.Design.GetPage(ctx, fileID, pageName)
	if err != nil {
		return mcp.NewToolResultError(designUnavailableMsg), nil
	}
	if len(pages) == 0 {
		if pageName != "" {
			return mcp.NewToolResultText(fmt.Sprintf("No page matching '%s' in file %s.", pageName, fileID)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("No pages found in file %s.", fileID)), nil
	}
	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Page: %s (id %s)\n", page.Name, page.PageID)
		fmt.Fprintf(&b, "Shapes: %d\n", page.ShapeCount)
		if len(page.Components) == 0 {
			continue
		}
		b.WriteString("Components:\n")
		for _, shape := range page.Components {
			name := shape.Name
			if name == "" {
				name = shape.Type
			}
			line := fmt.Sprintf("- %s (%s)", name, shape.Type)
			if shape.Text != "" {
				line += ": " + shape.Text
			}
			b.WriteString(line + "\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// PenpotExportTool renders a Penpot page as simplified SVG.
type PenpotExportTool struct {
	deps *Deps
}

func NewPenpotExportTool(deps *Deps) *PenpotExportTool { return &PenpotExportTool{deps: deps} }

func (t *PenpotExportTool) Definition() mcp.Tool {
	return mcp.NewTool("penpot_export_svg",
		mcp.WithDescription(
			"Export a Penpot page as simplified SVG. Read it as XML to understand layout and visual structure.",
		),
		mcp.WithString("file_id", mcp.Required(), mcp.Description("Penpot file UUID.")),
		mcp.WithString("page", mcp.Description("Page name. The first page is used when omitted.")),
	)
}

func (t *PenpotExportTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fileID := strings.TrimSpace(req.GetString("file_id", ""))
	if fileID == "" {
		return mcp.NewToolResultError("'file_id' is required"), nil
	}
	pageName := strings.TrimSpace(req.GetString("page", ""))
	svg, err := t.deps.Design.ExportSVG(ctx, fileID, pageName)
	if errors.Is(err, design.ErrPageNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("No page matching '%s' in file %s.", pageName, fileID)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(designUnavailableMsg), nil
	}
	return mcp.NewToolResultText(svg), nil
}
