package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

// FossilTool serves the latest stored snapshot for a project.
type FossilTool struct {
	deps *Deps
}

func NewFossilTool(deps *Deps) *FossilTool { return &FossilTool{deps: deps} }

func (t *FossilTool) Definition() mcp.Tool {
	return mcp.NewTool("get_project_fossil",
		mcp.WithDescription(
			"Get the latest fossil (architecture summary, dependencies, known issues) for a project. "+
				"This is the fastest way to understand a project's structure without exploring files.",
		),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
		mcp.WithBoolean("include_file_tree", mcp.Description("Include the stored file tree (can be large). Default: false.")),
		mcp.WithBoolean("include_symbols", mcp.Description("Include the fossil's full symbol list. Default: false.")),
	)
}

func (t *FossilTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	fossil, err := t.deps.latestFossil(ctx, project)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No fossil found for '%s'. Run trigger_custodian to create one.", project.Name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load fossil: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Version: %d\n", fossil.Version)
	fmt.Fprintf(&b, "Indexed: %s\n", fossil.CreatedAt.Format(time.RFC3339))
	if project.Stack != "" {
		fmt.Fprintf(&b, "Stack: %s\n", project.Stack)
	}
	fmt.Fprintf(&b, "Path: %s\n", project.Path)
	if summary := strings.TrimSpace(fossil.Summary); summary != "" {
		fmt.Fprintf(&b, "\nSummary:\n%s\n", summary)
	}
	if arch := strings.TrimSpace(fossil.Architecture); arch != "" {
		fmt.Fprintf(&b, "\nArchitecture:\n%s\n", arch)
	}
	if issues := strings.TrimSpace(fossil.KnownIssues); issues != "" {
		fmt.Fprintf(&b, "\nKnown issues:\n%s\n", issues)
	}
	if deps := fossil.DependencyList(); len(deps) > 0 {
		b.WriteString("\nDependencies:\n")
		for _, dep := range deps {
			line := "- " + dep.Name
			if dep.Version != "" {
				line += " " + dep.Version
			}
			if dep.Purpose != "" {
				line += ": " + dep.Purpose
			}
			b.WriteString(line + "\n")
		}
	}
	if boolArg(req, "include_file_tree", false) {
		entries := fossil.FileTreeEntries()
		fmt.Fprintf(&b, "\nFile tree (%d files):\n", len(entries))
		for _, entry := range entries {
			line := fmt.Sprintf("- %s (%d lines)", entry.Path, entry.Lines)
			if entry.Description != "" {
				line += ": " + entry.Description
			}
			b.WriteString(line + "\n")
		}
	}
	if boolArg(req, "include_symbols", false) {
		syms, err := t.deps.Store.FossilSymbols(ctx, fossil.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load symbols: %v", err)), nil
		}
		fmt.Fprintf(&b, "\nSymbols (%d):\n", len(syms))
		for _, sym := range syms {
			b.WriteString(symbolLine(sym.Name, sym.Type, sym.FilePath, sym.LineNumber, sym.Signature) + "\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// RecentChangesTool reports the commit summary captured by the last run.
type RecentChangesTool struct {
	deps *Deps
}

func NewRecentChangesTool(deps *Deps) *RecentChangesTool { return &RecentChangesTool{deps: deps} }

func (t *RecentChangesTool) Definition() mcp.Tool {
	return mcp.NewTool("get_recent_changes",
		mcp.WithDescription("Get summarized recent commits for a project, from the latest fossil."),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
	)
}

func (t *RecentChangesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	fossil, err := t.deps.latestFossil(ctx, project)
	if errors.Is(err, store.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No fossil found for '%s'. Run trigger_custodian to create one.", project.Name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load fossil: %v", err)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Version: %d\n", fossil.Version)
	fmt.Fprintf(&b, "Indexed: %s\n", fossil.CreatedAt.Format(time.RFC3339))
	if changes := strings.TrimSpace(fossil.RecentChanges); changes != "" {
		fmt.Fprintf(&b, "\nRecent changes:\n%s\n", changes)
	} else {
		b.WriteString("\nNo recent changes were recorded in this snapshot.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
