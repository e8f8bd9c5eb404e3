package design

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakePenpot struct {
	mu     sync.Mutex
	logins int
	token  string
	broken bool
	file   map[string]interface{}
}

func (f *fakePenpot) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/api/rpc/command/"
		if !strings.HasPrefix(r.URL.Path, prefix) {
			http.NotFound(w, r)
			return
		}
		command := strings.TrimPrefix(r.URL.Path, prefix)
		w.Header().Set("Content-Type", "application/json")

		if command == "login-with-password" {
			var creds struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if creds.Email != "admin@local.dev" || creds.Password != "secret" {
				http.Error(w, "bad credentials", http.StatusUnauthorized)
				return
			}
			f.mu.Lock()
			f.logins++
			f.token = fmt.Sprintf("token-%d", f.logins)
			token := f.token
			f.mu.Unlock()
			http.SetCookie(w, &http.Cookie{Name: "auth-token", Value: token, Path: "/"})
			w.Write([]byte(`{}`))
			return
		}

		f.mu.Lock()
		broken := f.broken
		expected := f.token
		f.mu.Unlock()
		if broken {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		cookie, err := r.Cookie("auth-token")
		if err != nil || cookie.Value != expected {
			http.Error(w, "session expired", http.StatusUnauthorized)
			return
		}

		switch command {
		case "get-all-projects":
			json.NewEncoder(w).Encode([]map[string]string{{"id": "proj-1", "name": "Marketing Site"}})
		case "get-project-files":
			json.NewEncoder(w).Encode([]map[string]string{
				{"id": "file-1", "name": "Landing", "modified-at": "2025-06-01T10:00:00Z"},
			})
		case "get-file":
			json.NewEncoder(w).Encode(f.file)
		default:
			http.NotFound(w, r)
		}
	}
}

func (f *fakePenpot) expireSession() {
	f.mu.Lock()
	f.token = "revoked"
	f.mu.Unlock()
}

func (f *fakePenpot) loginCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logins
}

func fixtureFile() map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"pages": []string{"page-1", "page-2"},
			"pages-index": map[string]interface{}{
				"page-1": map[string]interface{}{
					"name": "Desktop",
					"objects": map[string]interface{}{
						rootFrameID: map[string]interface{}{
							"type": "frame", "name": "Root", "width": 1440, "height": 900,
						},
						"shape-1": map[string]interface{}{
							"type": "rect", "name": "Hero", "x": 10, "y": 20, "width": 300, "height": 120,
							"fills": []map[string]interface{}{{"color": "#3b82f6"}},
						},
						"shape-2": map[string]interface{}{
							"type": "text", "name": "Headline", "x": 24, "y": 40,
							"content": map[string]interface{}{
								"children": []map[string]interface{}{
									{"children": []map[string]interface{}{{"text": "Sign"}, {"text": "in"}}},
								},
							},
						},
						"shape-3": map[string]interface{}{"type": "circle"},
					},
				},
				"page-2": map[string]interface{}{
					"name": "Mobile",
					"objects": map[string]interface{}{
						"shape-9": map[string]interface{}{"type": "rect", "name": "Nav", "width": 80, "height": 12},
					},
				},
			},
		},
	}
}

func newFakePenpot(t *testing.T) (*fakePenpot, *Client) {
	t.Helper()
	fake := &fakePenpot{file: fixtureFile()}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)
	client := NewClient(Config{BaseURL: server.URL, Email: "admin@local.dev", Password: "secret"})
	return fake, client
}

func TestListProjectsNormalizesFiles(t *testing.T) {
	fake, client := newFakePenpot(t)
	projects, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(projects))
	}
	proj := projects[0]
	if proj.ID != "proj-1" || proj.Name != "Marketing Site" {
		t.Fatalf("unexpected project: %+v", proj)
	}
	if len(proj.Files) != 1 || proj.Files[0].Name != "Landing" {
		t.Fatalf("unexpected files: %+v", proj.Files)
	}
	if proj.Files[0].ModifiedAt != "2025-06-01T10:00:00Z" {
		t.Fatalf("modified timestamp not carried over: %+v", proj.Files[0])
	}
	if got := fake.loginCount(); got != 1 {
		t.Fatalf("expected a single login for the whole listing, got %d", got)
	}
}

func TestSessionRetriesAfterExpiry(t *testing.T) {
	fake, client := newFakePenpot(t)
	if _, err := client.ListProjects(context.Background()); err != nil {
		t.Fatalf("first listing: %v", err)
	}
	fake.expireSession()
	projects, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("listing after expiry: %v", err)
	}
	if len(projects) != 1 {
		t.Fatalf("expected 1 project after re-login, got %d", len(projects))
	}
	if got := fake.loginCount(); got != 2 {
		t.Fatalf("expected exactly one re-login, got %d logins", got)
	}
}

func TestGetPageReturnsStructure(t *testing.T) {
	_, client := newFakePenpot(t)
	pages, err := client.GetPage(context.Background(), "file-1", "")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	desktop := pages[0]
	if desktop.Name != "Desktop" || desktop.ShapeCount != 4 {
		t.Fatalf("unexpected first page: %+v", desktop)
	}
	if len(desktop.Components) != 3 {
		t.Fatalf("expected nameless shapes filtered, got %+v", desktop.Components)
	}
	var headline *Shape
	for i := range desktop.Components {
		if desktop.Components[i].Name == "Headline" {
			headline = &desktop.Components[i]
		}
	}
	if headline == nil {
		t.Fatalf("headline shape missing: %+v", desktop.Components)
	}
	if headline.Text != "Sign in" {
		t.Fatalf("expected joined text content, got %q", headline.Text)
	}
	if pages[1].Name != "Mobile" {
		t.Fatalf("expected document page order, got %+v", pages)
	}
}

func TestGetPageFiltersByName(t *testing.T) {
	_, client := newFakePenpot(t)
	pages, err := client.GetPage(context.Background(), "file-1", "mobile")
	if err != nil {
		t.Fatalf("get page: %v", err)
	}
	if len(pages) != 1 || pages[0].Name != "Mobile" {
		t.Fatalf("expected case-insensitive match on Mobile, got %+v", pages)
	}

	none, err := client.GetPage(context.Background(), "file-1", "Tablet")
	if err != nil {
		t.Fatalf("get page with unknown name: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected empty result for unknown page, got %+v", none)
	}
}

func TestExportSVGBuildsWireframe(t *testing.T) {
	_, client := newFakePenpot(t)
	svg, err := client.ExportSVG(context.Background(), "file-1", "")
	if err != nil {
		t.Fatalf("export svg: %v", err)
	}
	if !strings.HasPrefix(svg, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Fatalf("missing xml header: %q", svg)
	}
	if !strings.Contains(svg, `viewBox="0 0 1440 900"`) {
		t.Fatalf("root frame dimensions not applied: %q", svg)
	}
	if !strings.Contains(svg, `<rect x="10" y="20" width="300" height="120" fill="#3b82f6" data-name="Hero"/>`) {
		t.Fatalf("rect shape missing: %q", svg)
	}
	if !strings.Contains(svg, `<text x="24" y="56" font-size="14" data-name="Headline">Sign in</text>`) {
		t.Fatalf("text shape missing: %q", svg)
	}
	if !strings.Contains(svg, `stroke="#999"`) {
		t.Fatalf("frame outline missing: %q", svg)
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Fatalf("unterminated svg: %q", svg)
	}
}

func TestExportSVGPageNotFound(t *testing.T) {
	_, client := newFakePenpot(t)
	if _, err := client.ExportSVG(context.Background(), "file-1", "Tablet"); !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("expected ErrPageNotFound, got %v", err)
	}
}

func TestUnconfiguredClientReportsUnavailable(t *testing.T) {
	client := NewClient(Config{})
	if client.Available() {
		t.Fatal("client without endpoint should not be available")
	}
	if _, err := client.ListProjects(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var nilClient *Client
	if nilClient.Available() {
		t.Fatal("nil client should not be available")
	}
	if _, err := nilClient.GetPage(context.Background(), "file-1", ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from nil client, got %v", err)
	}
}

func TestServerFaultMapsToUnavailable(t *testing.T) {
	fake, client := newFakePenpot(t)
	fake.mu.Lock()
	fake.broken = true
	fake.mu.Unlock()
	if _, err := client.ListProjects(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from failing server, got %v", err)
	}

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	unreachable := NewClient(Config{BaseURL: down.URL, Email: "a@b.c", Password: "x"})
	if _, err := unreachable.ExportSVG(context.Background(), "file-1", ""); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from unreachable server, got %v", err)
	}
}
