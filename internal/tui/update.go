package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
)

// ─── Update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Global quit
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// The register form owns the keyboard while visible
		if m.Screen == ScreenRegister {
			return m.handleRegisterKeys(msg)
		}
		return m.handleKeyPress(msg.String())

	// ─── Data loaded messages ────────────────────────────────────────────
	case projectsLoadedMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.Projects = msg.projects
		m.Overviews = msg.overviews
		if m.Screen == ScreenDashboard && m.Cursor >= len(m.Projects) {
			m.Cursor = 0
			m.Scroll = 0
		}
		return m, nil

	case registerDoneMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.NameInput.Blur()
		m.PathInput.Blur()
		m.StackInput.Blur()
		m.Screen = ScreenDashboard
		m.Cursor = 0
		m.Scroll = 0
		return m, loadProjects(m.store)

	case reindexStartedMsg:
		if msg.err != nil && !errors.Is(msg.err, pipeline.ErrRunInProgress) {
			m.ErrorMsg = msg.err.Error()
			m.ReindexRunning = false
			return m, nil
		}
		// An already-running run is attached to, not rejected: the status
		// poll below picks up whichever run holds the project slot.
		return m, pollReindex(m.pipeline, m.ReindexProject)

	case reindexStatusMsg:
		m.ReindexState = msg.state
		if msg.state.Running {
			if m.Screen == ScreenReindex {
				return m, pollReindex(m.pipeline, m.ReindexProject)
			}
			return m, nil
		}
		m.ReindexRunning = false
		return m, loadProjects(m.store)

	case insightsLoadedMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.Insights = msg.insights
		return m, nil

	case spinner.TickMsg:
		// Only forward spinner ticks while a run is on screen
		if m.ReindexRunning {
			var cmd tea.Cmd
			m.ReindexSpinner, cmd = m.ReindexSpinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// ─── Key Press Router ────────────────────────────────────────────────────────

func (m Model) handleKeyPress(key string) (tea.Model, tea.Cmd) {
	// Clear error on any keypress
	m.ErrorMsg = ""

	switch m.Screen {
	case ScreenDashboard:
		return m.handleDashboardKeys(key)
	case ScreenReindex:
		return m.handleReindexKeys(key)
	case ScreenInsights:
		return m.handleInsightsKeys(key)
	case ScreenInsightDetail:
		return m.handleInsightDetailKeys(key)
	}
	return m, nil
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

func (m Model) handleDashboardKeys(key string) (tea.Model, tea.Cmd) {
	visibleItems := m.Height - 22 // logo, stats card and help frame the list
	if visibleItems < 4 {
		visibleItems = 4
	}

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Scroll {
				m.Scroll = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < len(m.Projects)-1 {
			m.Cursor++
			if m.Cursor >= m.Scroll+visibleItems {
				m.Scroll = m.Cursor - visibleItems + 1
			}
		}
	case "enter", " ":
		if len(m.Projects) > 0 && m.Cursor < len(m.Projects) {
			pr := m.Projects[m.Cursor]
			m.PrevScreen = ScreenDashboard
			m.Screen = ScreenReindex
			m.ReindexProject = pr.Name
			m.ReindexState = pipeline.State{}
			m.ReindexRunning = true
			return m, tea.Batch(m.ReindexSpinner.Tick, startReindex(m.pipeline, pr))
		}
	case "r":
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenRegister
		m.RegisterFocus = 0
		m.NameInput.SetValue("")
		m.PathInput.SetValue("")
		m.StackInput.SetValue("")
		m.NameInput.Focus()
		m.PathInput.Blur()
		m.StackInput.Blur()
		return m, nil
	case "i":
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenInsights
		m.Cursor = 0
		m.Scroll = 0
		return m, loadInsights(m.store)
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// ─── Register Form ───────────────────────────────────────────────────────────

const registerFieldCount = 3

func (m Model) handleRegisterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.ErrorMsg = ""
		m.NameInput.Blur()
		m.PathInput.Blur()
		m.StackInput.Blur()
		m.Screen = ScreenDashboard
		m.Cursor = 0
		return m, nil
	case "tab", "down":
		return m.cycleRegisterFocus(1), nil
	case "shift+tab", "up":
		return m.cycleRegisterFocus(-1), nil
	case "enter":
		// Enter advances through the fields; on the last one it submits
		if m.RegisterFocus < registerFieldCount-1 {
			return m.cycleRegisterFocus(1), nil
		}
		return m, registerProject(m.store, m.NameInput.Value(), m.PathInput.Value(), m.StackInput.Value())
	}

	// Let the focused text input handle everything else
	var cmd tea.Cmd
	switch m.RegisterFocus {
	case 0:
		m.NameInput, cmd = m.NameInput.Update(msg)
	case 1:
		m.PathInput, cmd = m.PathInput.Update(msg)
	case 2:
		m.StackInput, cmd = m.StackInput.Update(msg)
	}
	return m, cmd
}

func (m Model) cycleRegisterFocus(delta int) Model {
	m.RegisterFocus = (m.RegisterFocus + delta + registerFieldCount) % registerFieldCount
	inputs := []*textinput.Model{&m.NameInput, &m.PathInput, &m.StackInput}
	for i, input := range inputs {
		if i == m.RegisterFocus {
			input.Focus()
		} else {
			input.Blur()
		}
	}
	return m
}

// ─── Reindex ─────────────────────────────────────────────────────────────────

func (m Model) handleReindexKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "s":
		if m.ReindexState.Running {
			return m, stopReindex(m.pipeline, m.ReindexProject)
		}
	case "enter":
		if !m.ReindexState.Running {
			m.Screen = ScreenDashboard
			m.Cursor = 0
			m.Scroll = 0
			return m, loadProjects(m.store)
		}
	case "esc", "q":
		// Leaving the screen does not cancel the run; the manager keeps
		// indexing in the background.
		m.Screen = ScreenDashboard
		m.Cursor = 0
		m.Scroll = 0
		return m, loadProjects(m.store)
	}
	return m, nil
}

// ─── Insights ────────────────────────────────────────────────────────────────

func (m Model) handleInsightsKeys(key string) (tea.Model, tea.Cmd) {
	visibleItems := (m.Height - 8) / 2 // 2 lines per insight item
	if visibleItems < 3 {
		visibleItems = 3
	}

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Scroll {
				m.Scroll = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < len(m.Insights)-1 {
			m.Cursor++
			if m.Cursor >= m.Scroll+visibleItems {
				m.Scroll = m.Cursor - visibleItems + 1
			}
		}
	case "enter":
		if len(m.Insights) > 0 && m.Cursor < len(m.Insights) {
			ins := m.Insights[m.Cursor]
			m.SelectedInsight = &ins
			m.PrevScreen = ScreenInsights
			m.Screen = ScreenInsightDetail
			m.DetailScroll = 0
			return m, nil
		}
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = 0
		m.Scroll = 0
		return m, loadProjects(m.store)
	}
	return m, nil
}

// ─── Insight Detail ──────────────────────────────────────────────────────────

func (m Model) handleInsightDetailKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.DetailScroll > 0 {
			m.DetailScroll--
		}
	case "down", "j":
		m.DetailScroll++
	case "esc", "q":
		m.Screen = m.PrevScreen
		m.DetailScroll = 0
		return m, m.refreshScreen(m.PrevScreen)
	}
	return m, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// refreshScreen returns the data-loading Cmd for a given screen. Used when
// navigating back so lists show fresh rows from the database.
func (m Model) refreshScreen(screen Screen) tea.Cmd {
	switch screen {
	case ScreenDashboard:
		return loadProjects(m.store)
	case ScreenInsights:
		return loadInsights(m.store)
	default:
		return nil
	}
}
