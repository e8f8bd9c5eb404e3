package detective

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

type scriptedProvider struct {
	output  string
	err     error
	prompts []string
	inputs  []string
}

func (s *scriptedProvider) Transform(ctx context.Context, prompt, input string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return "", s.err
	}
	return s.output, nil
}

func (s *scriptedProvider) Name() string { return "scripted" }

func newTestRunner(t *testing.T, provider *scriptedProvider) (*Runner, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	runner, err := NewRunner(st, provider)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return runner, st
}

func seedProject(t *testing.T, st *store.Store, name string) *store.Project {
	t.Helper()
	project, err := st.UpsertProject(context.Background(), name, t.TempDir(), "react")
	if err != nil {
		t.Fatalf("upsert project: %v", err)
	}
	return project
}

func seedFossil(t *testing.T, st *store.Store, projectID int64, summary, changes string) *store.Fossil {
	t.Helper()
	doc := &store.FossilDoc{
		FileTree: []store.FileEntry{
			{Path: "src/app.ts", Description: "entry point", Lines: 120},
			{Path: "src/store/cart.ts", Description: "cart state", Lines: 80},
		},
		Architecture:  "app.ts wires routes to the cart store",
		RecentChanges: changes,
		Summary:       summary,
		Symbols: []store.SymbolDoc{
			{FilePath: "src/app.ts", LineNumber: 10, Type: "component", Name: "App", Signature: "App()"},
			{FilePath: "src/store/cart.ts", LineNumber: 5, Type: "store", Name: "useCartStore", Signature: "useCartStore()"},
		},
	}
	fossil, err := st.CreateFossil(context.Background(), projectID, doc, "prompt")
	if err != nil {
		t.Fatalf("create snapshot: %v", err)
	}
	return fossil
}

func TestRunStoresParsedInsights(t *testing.T) {
	provider := &scriptedProvider{output: `[
  {"type": "growth", "content": "cart.ts doubled in size", "projects": ["demo-app"]},
  {"type": "speculation", "content": "some invented kind"},
  "a bare string element",
  {"type": "coupling"}
]`}
	runner, st := newTestRunner(t, provider)
	ctx := context.Background()
	project := seedProject(t, st, "demo-app")
	seedFossil(t, st, project.ID, "a small storefront", "added checkout flow")

	report, err := runner.Run(ctx, "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Raw {
		t.Fatalf("did not expect raw fallback")
	}
	if report.Insights != 3 {
		t.Fatalf("expected 3 stored insights, got %d", report.Insights)
	}
	if len(provider.prompts) != 1 || !strings.Contains(provider.prompts[0], "You are the Detective") {
		t.Fatalf("unexpected prompt: %v", provider.prompts)
	}
	if !strings.Contains(provider.inputs[0], "=== PROJECT: demo-app ===") {
		t.Fatalf("context missing project section: %q", provider.inputs[0])
	}

	rows, err := st.ListInsights(ctx, nil, "", 50)
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	byType := map[string]store.Insight{}
	for _, row := range rows {
		byType[row.InsightType] = row
	}
	growth, ok := byType["growth"]
	if !ok || growth.Content != "cart.ts doubled in size" {
		t.Fatalf("missing growth insight: %+v", byType)
	}
	if got := growth.InvolvedProjects(); len(got) != 1 || got[0] != "demo-app" {
		t.Fatalf("unexpected involved projects: %v", got)
	}
	if !growth.ProjectID.Valid || growth.ProjectID.Int64 != project.ID {
		t.Fatalf("single-project run should attribute the project id: %+v", growth)
	}
	if _, ok := byType["pattern"]; !ok {
		t.Fatalf("invented kind should normalize to pattern: %+v", byType)
	}
	coupling, ok := byType["coupling"]
	if !ok || !strings.Contains(coupling.Content, `"coupling"`) {
		t.Fatalf("content-less object should keep its JSON text: %+v", coupling)
	}
	if growth.ModelUsed != "scripted" {
		t.Fatalf("expected provider name recorded, got %q", growth.ModelUsed)
	}
}

func TestRunStoresRawOnUnparseableOutput(t *testing.T) {
	provider := &scriptedProvider{output: "The codebase looks fine to me."}
	runner, st := newTestRunner(t, provider)
	ctx := context.Background()
	project := seedProject(t, st, "demo-app")
	seedFossil(t, st, project.ID, "a small storefront", "")

	report, err := runner.Run(ctx, "demo-app")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Raw || report.Insights != 1 {
		t.Fatalf("expected one raw insight, got %+v", report)
	}
	if report.Project != "demo-app" {
		t.Fatalf("expected resolved project name, got %q", report.Project)
	}

	rows, err := st.ListInsights(ctx, nil, "pattern", 10)
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	if len(rows) != 1 || rows[0].Content != "The codebase looks fine to me." {
		t.Fatalf("unexpected raw insight: %+v", rows)
	}
	if got := rows[0].InvolvedProjects(); len(got) != 1 || got[0] != "demo-app" {
		t.Fatalf("raw insight should carry the requested project: %v", got)
	}
}

func TestRunUnknownProjectFails(t *testing.T) {
	runner, _ := newTestRunner(t, &scriptedProvider{output: "[]"})
	if _, err := runner.Run(context.Background(), "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnalysisContextSections(t *testing.T) {
	runner, st := newTestRunner(t, &scriptedProvider{})
	ctx := context.Background()
	project := seedProject(t, st, "demo-app")
	seedFossil(t, st, project.ID, "first cut", "initial import")
	seedFossil(t, st, project.ID, "second cut", "added checkout flow")

	params := map[string]interface{}{"symbol": "App"}
	if err := st.AppendAudit(ctx, "lookup_symbol", "demo-app", params); err != nil {
		t.Fatalf("append audit: %v", err)
	}
	if err := st.AppendAudit(ctx, "lookup_symbol", "demo-app", params); err != nil {
		t.Fatalf("append audit: %v", err)
	}
	if err := st.AppendAudit(ctx, "get_project_fossil", "demo-app", nil); err != nil {
		t.Fatalf("append audit: %v", err)
	}

	scope, err := runner.buildAnalysisContext(ctx, "")
	if err != nil {
		t.Fatalf("build context: %v", err)
	}
	if scope.projectID == nil || *scope.projectID != project.ID {
		t.Fatalf("single active project should set the scope id")
	}
	text := scope.text
	for _, want := range []string{
		"=== PROJECT: demo-app ===",
		"Fossil history (2 versions):",
		"--- Fossil v1",
		"--- Fossil v2",
		"Summary: second cut",
		"Changes: added checkout flow",
		"Total files: 2, Total lines: 200",
		"Latest symbols: component: 1, store: 1",
		"=== MCP QUERY PATTERNS ===",
		"lookup_symbol on demo-app: 2 calls",
		"=== RECENT QUERY DETAILS (last 50) ===",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("context missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "--- Fossil v1") > strings.Index(text, "--- Fossil v2") {
		t.Fatalf("fossil history should read oldest first:\n%s", text)
	}
}

func TestRefinePromptAppendsPromptAndInsight(t *testing.T) {
	provider := &scriptedProvider{output: "```json\n" +
		`{"analysis": "agents keep asking for hooks", "suggested_prompt": "Describe every hook.", "changes": ["added hook coverage"]}` +
		"\n```"}
	runner, st := newTestRunner(t, provider)
	ctx := context.Background()

	miss := map[string]interface{}{"symbol": "useCheckout"}
	if err := st.AppendAudit(ctx, "lookup_symbol", "demo-app", miss); err != nil {
		t.Fatalf("append audit: %v", err)
	}
	if err := st.AppendAudit(ctx, "lookup_symbol", "demo-app", miss); err != nil {
		t.Fatalf("append audit: %v", err)
	}

	report, err := runner.RefinePrompt(ctx)
	if err != nil {
		t.Fatalf("refine: %v", err)
	}
	if report.Analysis != "agents keep asking for hooks" {
		t.Fatalf("unexpected analysis: %q", report.Analysis)
	}
	if len(report.Changes) != 1 || report.Changes[0] != "added hook coverage" {
		t.Fatalf("unexpected changes: %v", report.Changes)
	}

	input := provider.inputs[0]
	if !strings.Contains(input, "Current custodian prompt:") {
		t.Fatalf("refinement context missing prompt section: %q", input)
	}
	if !strings.Contains(input, "useCheckout (×2)") {
		t.Fatalf("refinement context should emphasize lookup misses: %q", input)
	}

	prompt, err := st.GlobalPrompt(ctx)
	if err != nil {
		t.Fatalf("global prompt: %v", err)
	}
	if prompt != "Describe every hook." {
		t.Fatalf("expected refined prompt active, got %q", prompt)
	}

	rows, err := st.ListInsights(ctx, nil, "prompt_refinement", 10)
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	if len(rows) != 1 || !strings.Contains(rows[0].Content, "suggested_prompt") {
		t.Fatalf("expected one refinement insight: %+v", rows)
	}
}

func TestRefinePromptRejectsBadOutput(t *testing.T) {
	provider := &scriptedProvider{output: "no json here"}
	runner, st := newTestRunner(t, provider)
	ctx := context.Background()

	before, err := st.GlobalPrompt(ctx)
	if err != nil {
		t.Fatalf("global prompt: %v", err)
	}
	if _, err := runner.RefinePrompt(ctx); err == nil {
		t.Fatalf("expected error for unparseable refinement")
	}
	after, err := st.GlobalPrompt(ctx)
	if err != nil {
		t.Fatalf("global prompt: %v", err)
	}
	if before != after {
		t.Fatalf("failed refinement must not change the prompt")
	}
	rows, err := st.ListInsights(ctx, nil, "", 10)
	if err != nil {
		t.Fatalf("list insights: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("failed refinement must not store insights: %+v", rows)
	}
}

func TestParseInsightsStripsFences(t *testing.T) {
	docs, err := parseInsights("```json\n[{\"type\": \"growth\", \"content\": \"x\"}]\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(docs) != 1 || docs[0].Type != "growth" || docs[0].Content != "x" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if _, err := parseInsights("nothing structured"); err == nil {
		t.Fatalf("expected error for missing array")
	}
}
