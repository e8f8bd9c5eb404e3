package tools

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	mcppkg "github.com/mark3labs/mcp-go/mcp"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/design"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/sandbox"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/symbols"
)

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	indexer, err := symbols.NewIndexer(symbols.NewGrammarLoader(), nil)
	if err != nil {
		t.Fatalf("new indexer: %v", err)
	}
	return &Deps{
		Store:   st,
		Sandbox: sandbox.NewManager(),
		Indexer: indexer,
		Design:  design.NewClient(design.Config{}),
	}
}

func seedProject(t *testing.T, deps *Deps, name string) *store.Project {
	t.Helper()
	project, err := deps.Store.UpsertProject(context.Background(), name, t.TempDir(), "react")
	if err != nil {
		t.Fatalf("upsert project: %v", err)
	}
	return project
}

func seedFossil(t *testing.T, deps *Deps, projectID int64) *store.Fossil {
	t.Helper()
	doc := &store.FossilDoc{
		FileTree: []store.FileEntry{
			{Path: "src/app.ts", Description: "entry point", Lines: 120},
			{Path: "src/store/cart.ts", Description: "cart state", Lines: 80},
		},
		Architecture:  "app.ts wires routes to the cart store",
		RecentChanges: "added checkout flow",
		KnownIssues:   "cart total ignores coupons",
		Dependencies:  []store.Dependency{{Name: "react", Version: "18.2.0", Purpose: "ui"}},
		Summary:       "a small storefront",
		Symbols: []store.SymbolDoc{
			{FilePath: "src/app.ts", LineNumber: 10, Type: "component", Name: "App", Signature: "App()",
				Description: "top-level router"},
			{FilePath: "src/store/cart.ts", LineNumber: 5, Type: "store", Name: "useCartStore", Signature: "useCartStore()",
				Description:   "holds cart line items",
				Relationships: &store.Relationships{CalledBy: []string{"App"}}},
		},
	}
	fossil, err := deps.Store.CreateFossil(context.Background(), projectID, doc, "prompt")
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}
	return fossil
}

// invoke runs a tool through the same audit wrapper the server registers.
func invoke(t *testing.T, deps *Deps, tool Tool, args map[string]any) *mcppkg.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	def := tool.Definition()
	handler := audited(deps.Store, def.Name, tool.Handle)
	req := mcppkg.CallToolRequest{Params: mcppkg.CallToolParams{Name: def.Name, Arguments: args}}
	res, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("%s handler error: %v", def.Name, err)
	}
	return res
}

func resultText(t *testing.T, res *mcppkg.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatalf("expected non-empty tool result")
	}
	text, ok := mcppkg.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("expected text content")
	}
	return text.Text
}

func auditCount(t *testing.T, deps *Deps) int {
	t.Helper()
	rows, err := deps.Store.RecentAudit(context.Background(), 1000)
	if err != nil {
		t.Fatalf("recent audit: %v", err)
	}
	return len(rows)
}

func TestCatalogRegistersSeventeenTools(t *testing.T) {
	deps := newTestDeps(t)
	catalog := Catalog(deps)
	if len(catalog) != 17 {
		t.Fatalf("expected 17 tools, got %d", len(catalog))
	}
	seen := map[string]bool{}
	for _, tool := range catalog {
		name := tool.Definition().Name
		if seen[name] {
			t.Fatalf("duplicate tool name %q", name)
		}
		seen[name] = true
	}
	for _, required := range []string{
		"list_projects", "get_project_fossil", "lookup_symbol", "get_symbol_context",
		"find_related_files", "get_recent_changes", "get_detective_insights", "trigger_custodian",
		"sandbox_start", "sandbox_stop", "sandbox_restart", "sandbox_status", "sandbox_logs", "sandbox_test",
		"penpot_list_projects", "penpot_get_page", "penpot_export_svg",
	} {
		if !seen[required] {
			t.Fatalf("catalog is missing %q", required)
		}
	}
}

func TestListProjectsEmptyStore(t *testing.T) {
	deps := newTestDeps(t)
	res := invoke(t, deps, NewListProjectsTool(deps), nil)
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "No projects registered yet") {
		t.Fatalf("unexpected output: %q", resultText(t, res))
	}
}

func TestListProjectsShowsFossilState(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	seedFossil(t, deps, project.ID)

	text := resultText(t, invoke(t, deps, NewListProjectsTool(deps), nil))
	if !strings.Contains(text, "demo-app (react) active") {
		t.Fatalf("expected project line, got %q", text)
	}
	if !strings.Contains(text, "fossils: 1 (latest v1)") {
		t.Fatalf("expected fossil summary, got %q", text)
	}
}

func TestGetFossilRendersSnapshot(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	seedFossil(t, deps, project.ID)

	res := invoke(t, deps, NewFossilTool(deps), map[string]any{"project": "demo-app"})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "Project: demo-app\nVersion: 1\n") {
		t.Fatalf("expected stable leading lines, got %q", text)
	}
	if !strings.Contains(text, "a small storefront") {
		t.Fatalf("expected summary, got %q", text)
	}
	if !strings.Contains(text, "- react 18.2.0: ui") {
		t.Fatalf("expected dependency line, got %q", text)
	}
	if strings.Contains(text, "File tree") {
		t.Fatalf("file tree should be omitted by default: %q", text)
	}
}

func TestGetFossilIncludesTreeAndSymbols(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	seedFossil(t, deps, project.ID)

	text := resultText(t, invoke(t, deps, NewFossilTool(deps), map[string]any{
		"project":           "demo-app",
		"include_file_tree": true,
		"include_symbols":   true,
	}))
	if !strings.Contains(text, "File tree (2 files):") {
		t.Fatalf("expected file tree section, got %q", text)
	}
	if !strings.Contains(text, "- src/app.ts (120 lines): entry point") {
		t.Fatalf("expected file entry, got %q", text)
	}
	if !strings.Contains(text, "Symbols (2):") {
		t.Fatalf("expected symbol section, got %q", text)
	}
	if !strings.Contains(text, "- App (component) src/app.ts:10  App()") {
		t.Fatalf("expected symbol line, got %q", text)
	}
}

func TestGetFossilMissingSnapshotSuggestsCustodian(t *testing.T) {
	deps := newTestDeps(t)
	seedProject(t, deps, "demo-app")

	res := invoke(t, deps, NewFossilTool(deps), map[string]any{"project": "demo-app"})
	if res.IsError {
		t.Fatalf("a missing fossil is an answer, not an error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "Run trigger_custodian") {
		t.Fatalf("expected custodian hint, got %q", resultText(t, res))
	}
}

func TestUnknownProjectListsKnownNames(t *testing.T) {
	deps := newTestDeps(t)
	seedProject(t, deps, "demo-app")

	res := invoke(t, deps, NewFossilTool(deps), map[string]any{"project": "ghost"})
	if !res.IsError {
		t.Fatalf("expected tool error for unknown project")
	}
	text := resultText(t, res)
	if !strings.HasPrefix(text, "unknown project") {
		t.Fatalf("expected unknown project message, got %q", text)
	}
	if !strings.Contains(text, "demo-app") {
		t.Fatalf("expected known projects listed, got %q", text)
	}
}

func TestEveryCallAppendsExactlyOneAuditRow(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	seedFossil(t, deps, project.ID)

	before := auditCount(t, deps)
	invoke(t, deps, NewFossilTool(deps), map[string]any{"project": "demo-app", "include_symbols": true})
	if got := auditCount(t, deps); got != before+1 {
		t.Fatalf("expected one audit row per call, got %d new rows", got-before)
	}

	rows, err := deps.Store.RecentAudit(context.Background(), 1)
	if err != nil {
		t.Fatalf("recent audit: %v", err)
	}
	if rows[0].ToolName != "get_project_fossil" || rows[0].ProjectName != "demo-app" {
		t.Fatalf("unexpected audit row: %+v", rows[0])
	}
	if !strings.Contains(rows[0].QueryParams, "include_symbols") {
		t.Fatalf("expected params recorded, got %q", rows[0].QueryParams)
	}

	// Failing calls are audited too; the detective needs the misses.
	invoke(t, deps, NewFossilTool(deps), map[string]any{"project": "ghost"})
	if got := auditCount(t, deps); got != before+2 {
		t.Fatalf("expected failing call audited, got %d rows total", got)
	}
}

func TestFossilCacheServesRepeatsUntilInvalidated(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	seedFossil(t, deps, project.ID)

	first := resultText(t, invoke(t, deps, NewFossilTool(deps), map[string]any{"project": "demo-app"}))
	if !strings.Contains(first, "Version: 1") {
		t.Fatalf("expected version 1, got %q", first)
	}

	// A second snapshot lands; the cached copy keeps serving until dropped.
	if _, err := deps.Store.CreateFossil(context.Background(), project.ID, &store.FossilDoc{Summary: "v2"}, "prompt"); err != nil {
		t.Fatalf("create snapshot: %v", err)
	}
	second := resultText(t, invoke(t, deps, NewFossilTool(deps), map[string]any{"project": "demo-app"}))
	if !strings.Contains(second, "Version: 1") {
		t.Fatalf("expected cached version 1, got %q", second)
	}

	deps.cache().invalidate("demo-app")
	third := resultText(t, invoke(t, deps, NewFossilTool(deps), map[string]any{"project": "demo-app"}))
	if !strings.Contains(third, "Version: 2") {
		t.Fatalf("expected fresh version 2 after invalidation, got %q", third)
	}
}

type blockedProvider struct{}

func (blockedProvider) Transform(ctx context.Context, prompt, input string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockedProvider) Name() string { return "blocked" }

func TestTriggerCustodianReportsBusy(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	deps.Pipeline = pipeline.NewManager(deps.Store, blockedProvider{}, deps.Indexer, t.TempDir())
	t.Cleanup(func() {
		_ = deps.Pipeline.Stop("demo-app")
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) && deps.Pipeline.Status("demo-app").Running {
			time.Sleep(10 * time.Millisecond)
		}
	})

	if _, err := deps.Pipeline.Start(project); err != nil {
		t.Fatalf("start run: %v", err)
	}
	res := invoke(t, deps, NewTriggerCustodianTool(deps), map[string]any{"project": "demo-app"})
	if !res.IsError {
		t.Fatalf("expected busy rejection while a run is live")
	}
	if !strings.HasPrefix(resultText(t, res), "busy:") {
		t.Fatalf("expected busy message, got %q", resultText(t, res))
	}
}

func TestLookupSymbolReportsNoMatches(t *testing.T) {
	deps := newTestDeps(t)
	seedProject(t, deps, "demo-app")

	res := invoke(t, deps, NewLookupSymbolTool(deps), map[string]any{"project": "demo-app", "symbol": "HandleLogin"})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "No symbols matching 'HandleLogin' found in demo-app.") {
		t.Fatalf("unexpected output: %q", resultText(t, res))
	}
}

func TestSymbolContextRendersRelationships(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	seedFossil(t, deps, project.ID)

	text := resultText(t, invoke(t, deps, NewSymbolContextTool(deps), map[string]any{
		"project": "demo-app",
		"symbol":  "useCartStore",
	}))
	if !strings.HasPrefix(text, "Project: demo-app\nSymbol: useCartStore\n") {
		t.Fatalf("expected stable leading lines, got %q", text)
	}
	if !strings.Contains(text, "holds cart line items") {
		t.Fatalf("expected stored description, got %q", text)
	}
	if !strings.Contains(text, "called by: App") {
		t.Fatalf("expected relationship line, got %q", text)
	}
}

func TestRelatedFilesSplitsDirectAndRelated(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	seedFossil(t, deps, project.ID)

	text := resultText(t, invoke(t, deps, NewRelatedFilesTool(deps), map[string]any{
		"project": "demo-app",
		"symbol":  "useCartStore",
	}))
	if !strings.Contains(text, "Defined in:\n- src/store/cart.ts") {
		t.Fatalf("expected direct file, got %q", text)
	}
	if !strings.Contains(text, "Related files:\n- src/app.ts") {
		t.Fatalf("expected related file, got %q", text)
	}
}

func TestRecentChangesFromLatestFossil(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	seedFossil(t, deps, project.ID)

	text := resultText(t, invoke(t, deps, NewRecentChangesTool(deps), map[string]any{"project": "demo-app"}))
	if !strings.HasPrefix(text, "Project: demo-app\nVersion: 1\n") {
		t.Fatalf("expected stable leading lines, got %q", text)
	}
	if !strings.Contains(text, "added checkout flow") {
		t.Fatalf("expected change summary, got %q", text)
	}
}

func TestInsightsSeparateProjectAndCrossProject(t *testing.T) {
	deps := newTestDeps(t)
	project := seedProject(t, deps, "demo-app")
	ctx := context.Background()

	if err := deps.Store.AppendInsight(ctx, &project.ID, nil, "coupling", "cart and checkout move together", "model-a", nil); err != nil {
		t.Fatalf("append project insight: %v", err)
	}
	if err := deps.Store.AppendInsight(ctx, nil, nil, "pattern", "auth lookups repeat across projects", "model-a", []string{"demo-app", "other-app"}); err != nil {
		t.Fatalf("append global insight: %v", err)
	}

	global := resultText(t, invoke(t, deps, NewInsightsTool(deps), nil))
	if !strings.Contains(global, "auth lookups repeat across projects") {
		t.Fatalf("expected cross-project insight, got %q", global)
	}
	if strings.Contains(global, "cart and checkout move together") {
		t.Fatalf("project-scoped insight leaked into the cross-project view: %q", global)
	}
	if !strings.Contains(global, "projects: demo-app, other-app") {
		t.Fatalf("expected involved projects line, got %q", global)
	}

	scoped := resultText(t, invoke(t, deps, NewInsightsTool(deps), map[string]any{"project": "demo-app"}))
	if !strings.Contains(scoped, "cart and checkout move together") {
		t.Fatalf("expected project insight, got %q", scoped)
	}
}

func TestInsightsEmptyStore(t *testing.T) {
	deps := newTestDeps(t)
	text := resultText(t, invoke(t, deps, NewInsightsTool(deps), nil))
	if text != "No detective insights found." {
		t.Fatalf("unexpected output: %q", text)
	}
}

func TestSandboxStatusDefaultsToStopped(t *testing.T) {
	deps := newTestDeps(t)
	seedProject(t, deps, "demo-app")

	text := resultText(t, invoke(t, deps, NewSandboxStatusTool(deps), map[string]any{"project": "demo-app"}))
	if !strings.HasPrefix(text, "Project: demo-app\nState: stopped\n") {
		t.Fatalf("expected stopped state, got %q", text)
	}
	if !strings.Contains(text, "Log lines: 0 (0 errors, 0 warnings)") {
		t.Fatalf("expected empty log counts, got %q", text)
	}
}

func TestSandboxStartWithoutManifestFails(t *testing.T) {
	deps := newTestDeps(t)
	seedProject(t, deps, "demo-app")

	res := invoke(t, deps, NewSandboxStartTool(deps), map[string]any{"project": "demo-app"})
	if !res.IsError {
		t.Fatalf("expected detection failure in an empty directory")
	}
	if !strings.Contains(resultText(t, res), "no runnable command detected") {
		t.Fatalf("unexpected message: %q", resultText(t, res))
	}
}

func TestSandboxLogsBeforeAnyRun(t *testing.T) {
	deps := newTestDeps(t)
	seedProject(t, deps, "demo-app")

	res := invoke(t, deps, NewSandboxLogsTool(deps), map[string]any{"project": "demo-app"})
	if !res.IsError {
		t.Fatalf("expected error before any sandbox run")
	}
	if !strings.Contains(resultText(t, res), "no sandbox has run for 'demo-app'") {
		t.Fatalf("unexpected message: %q", resultText(t, res))
	}
}

func TestSandboxStopWithoutProcess(t *testing.T) {
	deps := newTestDeps(t)
	seedProject(t, deps, "demo-app")

	res := invoke(t, deps, NewSandboxStopTool(deps), map[string]any{"project": "demo-app"})
	if !res.IsError {
		t.Fatalf("expected error when nothing is running")
	}
	if !strings.Contains(resultText(t, res), "no sandbox is running for 'demo-app'") {
		t.Fatalf("unexpected message: %q", resultText(t, res))
	}
}

func TestPenpotToolsDegradeWhenUnconfigured(t *testing.T) {
	deps := newTestDeps(t)

	res := invoke(t, deps, NewPenpotListTool(deps), nil)
	if !res.IsError {
		t.Fatalf("expected unavailable error without Penpot configuration")
	}
	if got := resultText(t, res); got != designUnavailableMsg {
		t.Fatalf("expected generic unavailable message, got %q", got)
	}

	res = invoke(t, deps, NewPenpotExportTool(deps), map[string]any{"file_id": "file-1"})
	if !res.IsError || resultText(t, res) != designUnavailableMsg {
		t.Fatalf("expected generic unavailable message, got %q", resultText(t, res))
	}
}

func TestPenpotPageRequiresFileID(t *testing.T) {
	deps := newTestDeps(t)

	res := invoke(t, deps, NewPenpotPageTool(deps), nil)
	if !res.IsError {
		t.Fatalf("expected error without file_id")
	}
	if !strings.Contains(resultText(t, res), "'file_id' is required") {
		t.Fatalf("unexpected message: %q", resultText(t, res))
	}
}
