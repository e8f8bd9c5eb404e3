package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/symbols"
)

// stubProvider blocks until its context is canceled, keeping a started
// indexing run alive for as long as a test needs it.
type stubProvider struct{}

func (stubProvider) Transform(ctx context.Context, prompt, input string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stubProvider) Name() string { return "stub" }

func newTestServer(t *testing.T) (*Server, *store.Store, *pipeline.Manager) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "knowledge.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	indexer, err := symbols.NewIndexer(symbols.NewGrammarLoader(), nil)
	if err != nil {
		t.Fatalf("new indexer: %v", err)
	}
	pipe := pipeline.NewManager(st, stubProvider{}, indexer, t.TempDir())
	srv, err := NewServer(st, pipe)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv, st, pipe
}

func seedProject(t *testing.T, st *store.Store, name string) *store.Project {
	t.Helper()
	project, err := st.UpsertProject(context.Background(), name, t.TempDir(), "react")
	if err != nil {
		t.Fatalf("upsert project: %v", err)
	}
	return project
}

func seedFossil(t *testing.T, st *store.Store, projectID int64) *store.Fossil {
	t.Helper()
	doc := &store.FossilDoc{
		FileTree: []store.FileEntry{
			{Path: "src/app.ts", Description: "entry point", Lines: 120},
			{Path: "src/store/cart.ts", Description: "cart state", Lines: 80},
		},
		Architecture:  "app.ts wires routes to the cart store",
		RecentChanges: "added checkout flow",
		Dependencies:  []store.Dependency{{Name: "react", Version: "18.2.0", Purpose: "ui"}},
		Summary:       "a small storefront",
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

func doJSON(t *testing.T, srv *Server, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("unexpected body: %q", rr.Body.String())
	}
}

func TestRegisterListArchiveProject(t *testing.T) {
	srv, _, _ := newTestServer(t)

	dir := t.TempDir()
	manifest := `{"dependencies": {"react": "^18.2.0"}, "devDependencies": {"typescript": "^5.4.0"}}`
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifest), 0o644); err != nil {
		t.Fatalf("write package.json: %v", err)
	}

	rr := doJSON(t, srv, http.MethodPost, "/api/projects", registerRequest{Name: "Demo App", Path: dir})
	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var created projectSummary
	if err := json.NewDecoder(rr.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Name != "demo-app" {
		t.Fatalf("expected slugged name demo-app, got %q", created.Name)
	}
	if created.Stack != "React + TypeScript" {
		t.Fatalf("expected detected stack, got %q", created.Stack)
	}
	if created.Status != "active" {
		t.Fatalf("expected active status, got %q", created.Status)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/projects", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected list status: %d", rr.Code)
	}
	var listed struct {
		Projects []projectSummary `json:"projects"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Projects) != 1 || listed.Projects[0].Name != "demo-app" {
		t.Fatalf("unexpected project list: %+v", listed.Projects)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/projects/demo-app/archive", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected archive status: %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/projects", nil)
	if err := json.NewDecoder(rr.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list after archive: %v", err)
	}
	if len(listed.Projects) != 1 || listed.Projects[0].Status != "archived" {
		t.Fatalf("expected archived project, got %+v", listed.Projects)
	}
}

func TestRegisterValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/projects", registerRequest{Name: "   ", Path: t.TempDir()})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/projects", registerRequest{Name: "demo"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty path, got %d", rr.Code)
	}

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	rr = doJSON(t, srv, http.MethodPost, "/api/projects", registerRequest{Name: "demo", Path: missing})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing directory, got %d", rr.Code)
	}
}

func TestArchiveUnknownProject(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := doJSON(t, srv, http.MethodPost, "/api/projects/ghost/archive", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestFossilEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(t)
	project := seedProject(t, st, "demo-app")

	rr := doJSON(t, srv, http.MethodGet, "/api/projects/demo-app/fossil", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before first snapshot, got %d", rr.Code)
	}

	seedFossil(t, st, project.ID)
	rr = doJSON(t, srv, http.MethodGet, "/api/projects/demo-app/fossil", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var resp fossilResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Project != "demo-app" || resp.Version != 1 {
		t.Fatalf("unexpected fossil header: %+v", resp)
	}
	if resp.SymbolCount != 2 {
		t.Fatalf("expected 2 symbols, got %d", resp.SymbolCount)
	}
	if resp.SymbolKinds["component"] != 1 || resp.SymbolKinds["store"] != 1 {
		t.Fatalf("unexpected symbol kinds: %v", resp.SymbolKinds)
	}
	if len(resp.FileTree) != 2 {
		t.Fatalf("expected file tree, got %+v", resp.FileTree)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/projects/demo-app/fossil?version=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected versioned status: %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/projects/demo-app/fossil?version=9", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing version, got %d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/projects/demo-app/fossil?version=zero", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid version, got %d", rr.Code)
	}
}

func TestSymbolsSearch(t *testing.T) {
	srv, st, _ := newTestServer(t)
	project := seedProject(t, st, "demo-app")
	seedFossil(t, st, project.ID)

	rr := doJSON(t, srv, http.MethodGet, "/api/projects/demo-app/symbols", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without q, got %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/projects/demo-app/symbols?q=cart", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp struct {
		Symbols   []symbolResponse `json:"symbols"`
		Truncated bool             `json:"truncated"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Symbols) != 1 || resp.Symbols[0].Name != "useCartStore" {
		t.Fatalf("unexpected matches: %+v", resp.Symbols)
	}
	if resp.Truncated {
		t.Fatalf("did not expect truncation")
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/projects/ghost/symbols?q=cart", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown project, got %d", rr.Code)
	}
}

func TestReindexAcceptsAndConflicts(t *testing.T) {
	srv, st, pipe := newTestServer(t)
	seedProject(t, st, "demo-app")

	rr := doJSON(t, srv, http.MethodPost, "/api/projects/demo-app/reindex", nil)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d (%s)", rr.Code, rr.Body.String())
	}
	var accepted map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted["run_id"] == "" || accepted["status"] != "accepted" {
		t.Fatalf("unexpected accept payload: %v", accepted)
	}
	t.Cleanup(func() {
		_ = pipe.Stop("demo-app")
		deadline := time.Now().Add(10 * time.Second)
		for pipe.Status("demo-app").Running {
			if time.Now().After(deadline) {
				t.Errorf("indexing run did not stop")
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	})

	rr = doJSON(t, srv, http.MethodPost, "/api/projects/demo-app/reindex", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 while running, got %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/projects/demo-app/reindex/status", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status endpoint code: %d", rr.Code)
	}
	var state pipeline.State
	if err := json.NewDecoder(rr.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if !state.Running || state.RunID != accepted["run_id"] {
		t.Fatalf("unexpected run state: %+v", state)
	}
}

func TestInsightsEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(t)
	project := seedProject(t, st, "demo-app")
	ctx := context.Background()

	if err := st.AppendInsight(ctx, &project.ID, nil, "growth", "symbol count doubled", "stub", nil); err != nil {
		t.Fatalf("append insight: %v", err)
	}
	if err := st.AppendInsight(ctx, nil, nil, "coupling", "projects share a cart model", "stub",
		[]string{"demo-app", "other-app"}); err != nil {
		t.Fatalf("append cross insight: %v", err)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/insights", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp struct {
		Insights []insightResponse `json:"insights"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Insights) != 2 {
		t.Fatalf("expected 2 insights, got %d", len(resp.Insights))
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/insights?project=demo-app&type=growth", nil)
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(resp.Insights) != 1 || resp.Insights[0].Type != "growth" {
		t.Fatalf("unexpected filtered insights: %+v", resp.Insights)
	}
	if resp.Insights[0].ProjectID == nil || *resp.Insights[0].ProjectID != project.ID {
		t.Fatalf("expected project id on scoped insight: %+v", resp.Insights[0])
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/insights?project=ghost", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown project, got %d", rr.Code)
	}
}

func TestLogsEndpoint(t *testing.T) {
	srv, _, pipe := newTestServer(t)
	marker := fmt.Sprintf("log marker %d", time.Now().UnixNano())
	pipe.AppendLog("info", "%s", marker)

	rr := doJSON(t, srv, http.MethodGet, "/api/logs", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp struct {
		Entries []struct {
			Level     string `json:"level"`
			Message   string `json:"message"`
			Component string `json:"component"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// AppendLog mirrors into the common sink too, so the marker can appear
	// twice; at least one copy must carry the pipeline component.
	found := false
	for _, entry := range resp.Entries {
		if entry.Message == marker && entry.Component == "pipeline" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected pipeline log marker in entries")
	}
}
