package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// LookupSymbolTool finds where a symbol is defined right now. It parses the
// working tree on demand instead of reading the fossil, so file paths and
// line numbers stay correct even when the index is stale.
type LookupSymbolTool struct {
	deps *Deps
}

func NewLookupSymbolTool(deps *Deps) *LookupSymbolTool { return &LookupSymbolTool{deps: deps} }

func (t *LookupSymbolTool) Definition() mcp.Tool {
	return mcp.NewTool("lookup_symbol",
		mcp.WithDescription(
			"Find a function, class, component, or type by name using live parsing. "+
				"Returns current file paths and line numbers, not fossil data. "+
				"Use this to find where something is defined.",
		),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Symbol name. Substring match unless exact is set.")),
		mcp.WithBoolean("exact", mcp.Description("Exact name match only. Default: false.")),
	)
}

func (t *LookupSymbolTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	symbol := strings.TrimSpace(req.GetString("symbol", ""))
	if symbol == "" {
		return mcp.NewToolResultError("'symbol' is required"), nil
	}
	matches, truncated, err := t.deps.Indexer.FindSymbol(ctx, project.Path, symbol, boolArg(req, "exact", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan symbols: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No symbols matching '%s' found in %s.", symbol, project.Name)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "Matches: %d\n\n", len(matches))
	for _, doc := range matches {
		b.WriteString(symbolLine(doc.Name, doc.Type, doc.FilePath, doc.LineNumber, doc.Signature) + "\n")
	}
	if truncated {
		b.WriteString("\nResults truncated to 50. Set exact=true for precise matches.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// SymbolContextTool returns the stored analysis for a known symbol: the
// model-written description and relationship data from fossil history.
type SymbolContextTool struct {
	deps *Deps
}

func NewSymbolContextTool(deps *Deps) *SymbolContextTool { return &SymbolContextTool{deps: deps} }

func (t *SymbolContextTool) Definition() mcp.Tool {
	return mcp.NewTool("get_symbol_context",
		mcp.WithDescription(
			"Get the stored description and relationship analysis for a known symbol. "+
				"Unlike lookup_symbol, which gives the current location, this gives semantic "+
				"understanding from the last fossil.",
		),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Symbol name. Substring match supported.")),
	)
}

func (t *SymbolContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	symbol := strings.TrimSpace(req.GetString("symbol", ""))
	if symbol == "" {
		return mcp.NewToolResultError("'symbol' is required"), nil
	}
	entries, err := t.deps.Store.SymbolContext(ctx, project.ID, symbol)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load symbol context: %v", err)), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No stored context for '%s' in %s. The symbol may be new; run trigger_custodian to refresh the fossil.",
			symbol, project.Name)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "Entries: %d\n\n", len(entries))
	for _, sym := range entries {
		b.WriteString(symbolLine(sym.Name, sym.Type, sym.FilePath, sym.LineNumber, sym.Signature) + "\n")
		if sym.Description != "" {
			fmt.Fprintf(&b, "    %s\n", sym.Description)
		}
		if rel := sym.RelationshipSet(); rel != nil {
			if len(rel.Calls) > 0 {
				fmt.Fprintf(&b, "    calls: %s\n", strings.Join(rel.Calls, ", "))
			}
			if len(rel.CalledBy) > 0 {
				fmt.Fprintf(&b, "    called by: %s\n", strings.Join(rel.CalledBy, ", "))
			}
			if len(rel.DependsOn) > 0 {
				fmt.Fprintf(&b, "    depends on: %s\n", strings.Join(rel.DependsOn, ", "))
			}
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// RelatedFilesTool lists the files a change to one symbol would likely
// touch, based on relationship data in the latest fossil.
type RelatedFilesTool struct {
	deps *Deps
}

func NewRelatedFilesTool(deps *Deps) *RelatedFilesTool { return &RelatedFilesTool{deps: deps} }

func (t *RelatedFilesTool) Definition() mcp.Tool {
	return mcp.NewTool("find_related_files",
		mcp.WithDescription(
			"Given a symbol or concept, find the files that would likely need changes. "+
				"Uses relationship data from fossils.",
		),
		mcp.WithString("project", mcp.Required(), mcp.Description("Project name.")),
		mcp.WithString("symbol", mcp.Required(), mcp.Description("Symbol name or concept to find related files for.")),
	)
}

func (t *RelatedFilesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, errResult := t.deps.resolveProject(ctx, req.GetString("project", ""))
	if errResult != nil {
		return errResult, nil
	}
	symbol := strings.TrimSpace(req.GetString("symbol", ""))
	if symbol == "" {
		return mcp.NewToolResultError("'symbol' is required"), nil
	}
	direct, related, err := t.deps.Store.RelatedFiles(ctx, project.ID, symbol)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("find related files: %v", err)), nil
	}
	if len(direct) == 0 && len(related) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No files found for '%s' in %s.", symbol, project.Name)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	fmt.Fprintf(&b, "Symbol: %s\n", symbol)
	if len(direct) > 0 {
		b.WriteString("\nDefined in:\n")
		for _, path := range direct {
			b.WriteString("- " + path + "\n")
		}
	}
	if len(related) > 0 {
		b.WriteString("\nRelated files:\n")
		for _, path := range related {
			b.WriteString("- " + path + "\n")
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
