package tools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/common/telemetry"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

// audited wraps a handler so the invocation lands in the audit log before
// the handler runs. The detective mines this log, so the append happens on
// every call including failing ones; an audit write error is logged and
// swallowed rather than surfaced to the caller.
func audited(st *store.Store, name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		project, _ := args["project"].(string)
		if err := st.AppendAudit(ctx, name, project, args); err != nil {
			common.Logger().Warn("tools: audit append failed", "tool", name, "error", err)
		}
		result, err := handler(ctx, req)
		telemetry.RecordToolCall(name, err != nil || (result != nil && result.IsError))
		return result, err
	}
}

// resolveProject maps the project argument to a registered project. An
// unknown name produces an error result listing the projects that do
// exist, so the caller can retry without a second round trip.
func (d *Deps) resolveProject(ctx context.Context, ref string) (*store.Project, *mcp.CallToolResult) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, mcp.NewToolResultError("'project' is required")
	}
	project, err := d.Store.ResolveProject(ctx, ref)
	if err == nil {
		return project, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, mcp.NewToolResultError(unknownProject(ctx, d.Store, ref))
	}
	return nil, mcp.NewToolResultError(fmt.Sprintf("resolve project: %v", err))
}

func unknownProject(ctx context.Context, st *store.Store, ref string) string {
	projects, err := st.ListProjects(ctx)
	if err != nil {
		return fmt.Sprintf("unknown project %q", ref)
	}
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		if p.Status == "active" {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("unknown project %q: no active projects are registered yet", ref)
	}
	return fmt.Sprintf("unknown project %q: known projects are %s", ref, strings.Join(names, ", "))
}

// intArg reads an integer argument. JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, def int) int {
	if v, ok := req.GetArguments()[key].(float64); ok {
		return int(v)
	}
	return def
}

// boolArg reads a boolean argument.
func boolArg(req mcp.CallToolRequest, key string, def bool) bool {
	if v, ok := req.GetArguments()[key].(bool); ok {
		return v
	}
	return def
}

// symbolLine renders one symbol as a single listing line.
func symbolLine(name, kind, path string, line int, signature string) string {
	s := fmt.Sprintf("- %s (%s) %s:%d", name, kind, path, line)
	if signature != "" {
		s += "  " + signature
	}
	return s
}

func formatNullTime(t sql.NullTime) string {
	if !t.Valid {
		return "never"
	}
	return t.Time.Format("2006-01-02 15:04")
}
