// Package design talks to the Penpot wireframe tool over its RPC API. Penpot
// is treated as an unreliable collaborator: every fault degrades to
// ErrUnavailable and the engine keeps running without it.
package design

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/common/telemetry"
)

// ErrUnavailable is returned for any design-tool fault. Callers surface it as
// a generic "external dependency unavailable" result; the underlying cause is
// only logged.
var ErrUnavailable = errors.New("design tool unavailable")

// ErrPageNotFound reports that a requested page does not exist in the file.
var ErrPageNotFound = errors.New("page not found")

// maxPageComponents bounds the component list returned per page so a dense
// design file cannot blow up a tool response.
const maxPageComponents = 100

// Client talks to a Penpot instance. A nil or unconfigured client reports
// every operation unavailable, so callers can hold one unconditionally.
type Client struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string

	mu     sync.Mutex
	authed bool
}

// NewClient constructs a client from the provided configuration.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		common.Logger().Warn("design: cookie jar init failed", "error", err)
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout, Jar: jar},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// NewFromEnv loads configuration and constructs a client instance.
func NewFromEnv() *Client {
	cfg := LoadConfig()
	if !cfg.Enabled() {
		common.Logger().Info("design: penpot not configured; design tools disabled")
	} else {
		common.Logger().Info("design: penpot client configured", "endpoint", cfg.BaseURL)
	}
	return NewClient(cfg)
}

// Available reports whether the client has connection settings. It does not
// probe the server; a configured but unreachable instance still fails per
// call.
func (c *Client) Available() bool {
	return c != nil && c.cfg.Enabled()
}

// ListProjects returns every project with its files.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	var raw []wireProject
	if err := c.rpc(ctx, "get-all-projects", nil, &raw); err != nil {
		common.Logger().Warn("design: list projects failed", "error", err)
		return nil, ErrUnavailable
	}
	projects := make([]Project, 0, len(raw))
	for _, proj := range raw {
		entry := Project{ID: proj.ID, Name: proj.Name}
		var files []wireFile
		if err := c.rpc(ctx, "get-project-files", map[string]string{"project-id": proj.ID}, &files); err != nil {
			common.Logger().Warn("design: project files lookup failed", "project", proj.ID, "error", err)
			return nil, ErrUnavailable
		}
		for _, file := range files {
			entry.Files = append(entry.Files, File{ID: file.ID, Name: file.Name, ModifiedAt: file.ModifiedAt})
		}
		projects = append(projects, entry)
	}
	return projects, nil
}

// GetPage returns the structure of a design file's pages: component names,
// layout frames and text content. A non-empty pageName narrows the result to
// pages whose name matches case-insensitively; no match yields an empty
// slice, not an error.
func (c *Client) GetPage(ctx context.Context, fileID, pageName string) ([]Page, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}
	if strings.TrimSpace(fileID) == "" {
		return nil, errors.New("file id required")
	}
	var file fileResponse
	if err := c.rpc(ctx, "get-file", map[string]string{"id": fileID}, &file); err != nil {
		common.Logger().Warn("design: get file failed", "file", fileID, "error", err)
		return nil, ErrUnavailable
	}
	pages := make([]Page, 0, len(file.Data.PagesIndex))
	for _, pageID := range file.pageOrder() {
		page := file.Data.PagesIndex[pageID]
		if pageName != "" && !strings.EqualFold(pageName, page.Name) {
			continue
		}
		shapes := make([]Shape, 0, len(page.Objects))
		for _, objectID := range objectOrder(page.Objects) {
			info := shapeInfo(page.Objects[objectID])
			if info.Name == "" && info.Text == "" {
				continue
			}
			shapes = append(shapes, info)
		}
		if len(shapes) > maxPageComponents {
			shapes = shapes[:maxPageComponents]
		}
		pages = append(pages, Page{
			PageID:     pageID,
			Name:       page.Name,
			ShapeCount: len(page.Objects),
			Components: shapes,
		})
	}
	return pages, nil
}

// ensureSession logs in with the configured credentials on first use. The
// auth cookie lands in the client's jar and rides along on later requests.
func (c *Client) ensureSession(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.authed {
		return nil
	}
	payload := map[string]string{"email": c.cfg.Email, "password": c.cfg.Password}
	status, _, err := c.post(ctx, "login-with-password", payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("login failed: status %d", status)
	}
	c.authed = true
	return nil
}

func (c *Client) dropSession() {
	c.mu.Lock()
	c.authed = false
	c.mu.Unlock()
}

// rpc invokes one Penpot command and decodes its response into out. A
// non-200 status is retried exactly once after a fresh login, since the
// session cookie may simply have expired.
func (c *Client) rpc(ctx context.Context, command string, payload, out interface{}) error {
	spanCtx, finish := telemetry.StartSpan(ctx, "design.rpc")
	statusCode := 0
	defer func() {
		finish("command", command, "status", statusCode)
	}()

	if err := c.ensureSession(spanCtx); err != nil {
		return err
	}
	status, data, err := c.post(spanCtx, command, payload)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		c.dropSession()
		if err := c.ensureSession(spanCtx); err != nil {
			return err
		}
		status, data, err = c.post(spanCtx, command, payload)
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			statusCode = status
			return fmt.Errorf("%s failed: status %d", command, status)
		}
	}
	statusCode = status
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", command, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, command string, payload interface{}) (int, []byte, error) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	body := &bytes.Buffer{}
	if err := json.NewEncoder(body).Encode(payload); err != nil {
		return 0, nil, fmt.Errorf("encode %s payload: %w", command, err)
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/rpc/command/"+command, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", command, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(request)
	if err != nil {
		return 0, nil, fmt.Errorf("%s request failed: %w", command, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", command, err)
	}
	return resp.StatusCode, data, nil
}
