// Package tools implements the MCP catalog served over stdio: eight
// knowledge tools answering from the fossil store, six sandbox process
// controls, and three Penpot design pass-throughs. Every invocation is
// written to the audit log before its handler runs; the detective job
// mines that log for usage patterns.
package tools

import (
	"context"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/design"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/sandbox"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/symbols"
)

const serverName = "nai-workbench"

// Version is set at build time via ldflags.
var Version = "dev"

// Deps carries the collaborators shared by the whole catalog. Design may
// be an unconfigured client; the Penpot tools then answer with the generic
// unavailable message instead of failing registration.
type Deps struct {
	Store    *store.Store
	Pipeline *pipeline.Manager
	Sandbox  *sandbox.Manager
	Indexer  *symbols.Indexer
	Design   *design.Client

	cacheOnce sync.Once
	fossils   *fossilCache
}

// cache lazily builds the snapshot cache and hooks pipeline completions so
// a freshly written fossil is visible on the very next read.
func (d *Deps) cache() *fossilCache {
	d.cacheOnce.Do(func() {
		d.fossils = newFossilCache()
		if d.Pipeline != nil {
			d.Pipeline.OnComplete(func(project string, _ int) {
				d.fossils.invalidate(project)
			})
		}
	})
	return d.fossils
}

// Tool is one catalog entry: a schema for registration and its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Catalog returns all seventeen tools in registration order.
func Catalog(deps *Deps) []Tool {
	return []Tool{
		NewListProjectsTool(deps),
		NewFossilTool(deps),
		NewLookupSymbolTool(deps),
		NewSymbolContextTool(deps),
		NewRelatedFilesTool(deps),
		NewRecentChangesTool(deps),
		NewInsightsTool(deps),
		NewTriggerCustodianTool(deps),
		NewSandboxStartTool(deps),
		NewSandboxStopTool(deps),
		NewSandboxRestartTool(deps),
		NewSandboxStatusTool(deps),
		NewSandboxLogsTool(deps),
		NewSandboxTestTool(deps),
		NewPenpotListTool(deps),
		NewPenpotPageTool(deps),
		NewPenpotExportTool(deps),
	}
}

// New creates the MCP server with the full catalog registered.
func New(deps *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		serverName,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)
	RegisterAll(s, deps)
	return s
}

// RegisterAll wires the catalog onto s. Each handler is wrapped so every
// call appends exactly one audit entry and lands in the tool metrics.
func RegisterAll(s *server.MCPServer, deps *Deps) {
	for _, tool := range Catalog(deps) {
		def := tool.Definition()
		s.AddTool(def, audited(deps.Store, def.Name, tool.Handle))
	}
}

func serverInstructions() string {
	return `NAI Workbench keeps versioned knowledge snapshots ("fossils") of registered
projects and controls a dev sandbox per project.

Start with list_projects. For orientation inside a project, get_project_fossil
is the fastest route: it returns the stored architecture summary, dependencies,
and known issues without touching the working tree. lookup_symbol parses the
tree live and is always current. get_symbol_context and find_related_files
answer from the latest fossil's analysis instead. trigger_custodian refreshes
a project's fossil asynchronously; poll get_project_fossil afterwards.

Sandbox tools manage one dev process per project: sandbox_start auto-detects
the dev command, sandbox_logs reads the ring-buffered output, sandbox_test
runs the test suite once. All of them need the project argument.

Penpot tools read wireframe structure and export pages as simplified SVG when
a Penpot instance is configured; otherwise they report the design tool as
unavailable.`
}
