// Package tui implements the Bubbletea admin terminal UI.
//
// One Model value holds all screen state. Update routes messages with a
// type switch into per-screen key handlers that return (tea.Model, tea.Cmd),
// data loads run as tea.Cmd closures that report back through typed messages,
// and navigation uses vim keys (j/k) with PrevScreen for going back.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/project"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

// ─── Screens ─────────────────────────────────────────────────────────────────

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenRegister
	ScreenReindex
	ScreenInsights
	ScreenInsightDetail
)

const (
	storeTimeout        = 5 * time.Second
	reindexPollInterval = 250 * time.Millisecond
	insightPageSize     = 100
)

// ─── Custom Messages ─────────────────────────────────────────────────────────

type projectsLoadedMsg struct {
	projects  []store.Project
	overviews map[int64]store.Overview
	err       error
}

type registerDoneMsg struct {
	project *store.Project
	err     error
}

type reindexStartedMsg struct {
	err error
}

type reindexStatusMsg struct {
	state pipeline.State
}

type insightsLoadedMsg struct {
	insights []store.Insight
	err      error
}

// ─── Model ───────────────────────────────────────────────────────────────────

type Model struct {
	store    *store.Store
	pipeline *pipeline.Manager
	Version  string

	Screen     Screen
	PrevScreen Screen
	Width      int
	Height     int
	Cursor     int
	Scroll     int

	// Error display
	ErrorMsg string

	// Dashboard
	Projects  []store.Project
	Overviews map[int64]store.Overview

	// Register form
	NameInput     textinput.Model
	PathInput     textinput.Model
	StackInput    textinput.Model
	RegisterFocus int

	// Reindex
	ReindexProject string
	ReindexState   pipeline.State
	ReindexRunning bool
	ReindexSpinner spinner.Model

	// Insights
	Insights        []store.Insight
	SelectedInsight *store.Insight
	DetailScroll    int
}

// New creates a TUI model over the given store and indexing manager.
func New(s *store.Store, mgr *pipeline.Manager, version string) Model {
	name := textinput.New()
	name.Placeholder = "display name, slugified on save"
	name.CharLimit = 128
	name.Width = 48

	path := textinput.New()
	path.Placeholder = "/absolute/path/to/repo"
	path.CharLimit = 512
	path.Width = 48

	stack := textinput.New()
	stack.Placeholder = "leave empty to auto-detect"
	stack.CharLimit = 128
	stack.Width = 48

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAmber)

	return Model{
		store:          s,
		pipeline:       mgr,
		Version:        version,
		Screen:         ScreenDashboard,
		NameInput:      name,
		PathInput:      path,
		StackInput:     stack,
		ReindexSpinner: sp,
	}
}

// Init loads initial data (projects for the dashboard).
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadProjects(m.store),
		tea.EnterAltScreen,
	)
}

// ─── Commands (data loading) ─────────────────────────────────────────────────

func loadProjects(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		projects, err := s.ListProjects(ctx)
		if err != nil {
			return projectsLoadedMsg{err: err}
		}
		overviews, err := s.ListOverviews(ctx)
		if err != nil {
			return projectsLoadedMsg{err: err}
		}
		byID := make(map[int64]store.Overview, len(overviews))
		for _, ov := range overviews {
			byID[ov.ID] = ov
		}
		return projectsLoadedMsg{projects: projects, overviews: byID}
	}
}

func registerProject(s *store.Store, name, path, stack string) tea.Cmd {
	return func() tea.Msg {
		slug := project.Slugify(name)
		if slug == "" {
			return registerDoneMsg{err: fmt.Errorf("project name is required")}
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return registerDoneMsg{err: fmt.Errorf("project path is required")}
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return registerDoneMsg{err: fmt.Errorf("resolve path: %w", err)}
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			return registerDoneMsg{err: fmt.Errorf("%s is not a directory", abs)}
		}
		if stack = strings.TrimSpace(stack); stack == "" {
			stack = project.DetectStack(abs)
		}
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		registered, err := s.UpsertProject(ctx, slug, abs, stack)
		return registerDoneMsg{project: registered, err: err}
	}
}

func startReindex(p *pipeline.Manager, pr store.Project) tea.Cmd {
	return func() tea.Msg {
		_, err := p.Start(&pr)
		return reindexStartedMsg{err: err}
	}
}

func pollReindex(p *pipeline.Manager, projectName string) tea.Cmd {
	return tea.Tick(reindexPollInterval, func(time.Time) tea.Msg {
		return reindexStatusMsg{state: p.Status(projectName)}
	})
}

func stopReindex(p *pipeline.Manager, projectName string) tea.Cmd {
	return func() tea.Msg {
		// A stop error means the run already reached a terminal state,
		// which the status snapshot below reports anyway.
		_ = p.Stop(projectName)
		return reindexStatusMsg{state: p.Status(projectName)}
	}
}

func loadInsights(s *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		insights, err := s.ListInsights(ctx, nil, "", insightPageSize)
		return insightsLoadedMsg{insights: insights, err: err}
	}
}
