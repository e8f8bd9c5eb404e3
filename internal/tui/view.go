package tui

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/pipeline"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/store"
)

// ─── Logo ────────────────────────────────────────────────────────────────────

func renderLogo(version string) string {
	logoText := []string{
		`    _   __      ___       ____`,
		`   / | / /     /   |     /  _/`,
		`  /  |/ /     / /| |     / /  `,
		` / /|  /     / ___ |   _/ /   `,
		`/_/ |_/     /_/  |_|  /___/   `,
	}

	frameStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(colorOverlay).
		Padding(0, 1).
		MarginBottom(1)

	textStyle := lipgloss.NewStyle().Foreground(colorText).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(colorAmber).Bold(true)
	taglineStyle := lipgloss.NewStyle().Foreground(colorSubtext).Italic(true)

	if version == "" {
		version = "dev"
	}

	var b strings.Builder

	// Header line inside box
	b.WriteString(accentStyle.Render(" ◆ FOSSIL RECORD ") + strings.Repeat(" ", 6) + accentStyle.Render(" "+version+" ") + "\n\n")

	// Logo body
	for _, line := range logoText {
		b.WriteString(" " + textStyle.Render(line) + "\n")
	}
	b.WriteString("\n")

	// Footer inside box
	b.WriteString(taglineStyle.Render(" > every version remembered"))

	return frameStyle.Render(b.String()) + "\n"
}

// ─── View (main router) ─────────────────────────────────────────────────────

func (m Model) View() string {
	var content string

	switch m.Screen {
	case ScreenDashboard:
		content = m.viewDashboard()
	case ScreenRegister:
		content = m.viewRegister()
	case ScreenReindex:
		content = m.viewReindex()
	case ScreenInsights:
		content = m.viewInsights()
	case ScreenInsightDetail:
		content = m.viewInsightDetail()
	default:
		content = "Unknown screen"
	}

	// Show error if present
	if m.ErrorMsg != "" {
		content += "\n" + errorStyle.Render("Error: "+m.ErrorMsg)
	}

	return appStyle.Render(content)
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

func (m Model) viewDashboard() string {
	var b strings.Builder

	// Logo header
	b.WriteString(renderLogo(m.Version))
	b.WriteString("\n")

	// Stats card
	total := len(m.Projects)
	active := 0
	for _, p := range m.Projects {
		if p.Status == "active" {
			active++
		}
	}
	fossils := 0
	for _, ov := range m.Overviews {
		fossils += ov.FossilCount
	}
	statsContent := fmt.Sprintf(
		"%s %s\n%s %s\n%s %s",
		statNumberStyle.Render(fmt.Sprintf("%d", total)),
		statLabelStyle.Render("projects"),
		statNumberStyle.Render(fmt.Sprintf("%d", active)),
		statLabelStyle.Render("active"),
		statNumberStyle.Render(fmt.Sprintf("%d", fossils)),
		statLabelStyle.Render("fossils"),
	)
	b.WriteString(statCardStyle.Render(statsContent))
	b.WriteString("\n")

	// Project list
	b.WriteString(titleStyle.Render("  Projects"))
	b.WriteString("\n")

	if total == 0 {
		b.WriteString(noResultsStyle.Render("No projects registered yet. Press r to add one."))
		b.WriteString("\n")
	} else {
		visibleItems := m.Height - 22 // logo, stats card and help frame the list
		if visibleItems < 4 {
			visibleItems = 4
		}

		end := m.Scroll + visibleItems
		if end > total {
			end = total
		}

		for i := m.Scroll; i < end; i++ {
			b.WriteString(m.renderProjectRow(i, m.Projects[i]))
		}

		if total > visibleItems {
			b.WriteString(fmt.Sprintf("\n  %s",
				timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, total))))
		}
	}

	// Help
	b.WriteString(helpStyle.Render("\n  j/k navigate • enter reindex • r register • i insights • q quit"))

	return b.String()
}

func (m Model) renderProjectRow(index int, p store.Project) string {
	cursor := "  "
	style := listItemStyle
	if index == m.Cursor {
		cursor = "▸ "
		style = listSelectedStyle
	}

	ov := m.Overviews[p.ID]
	version := "·"
	if ov.FossilVersion > 0 {
		version = fmt.Sprintf("v%d", ov.FossilVersion)
	}

	stack := p.Stack
	if stack == "" {
		stack = "·"
	}

	status := statusActiveStyle.Render(fmt.Sprintf("%-9s", p.Status))
	if p.Status != "active" {
		status = statusArchivedStyle.Render(fmt.Sprintf("%-9s", p.Status))
	}

	return fmt.Sprintf("%s%s  %s %s %s  %s\n",
		cursor,
		style.Render(fmt.Sprintf("%-22s", truncateStr(p.Name, 22))),
		stackStyle.Render(fmt.Sprintf("%-20s", truncateStr(stack, 20))),
		status,
		idStyle.Render(fmt.Sprintf("%4s", version)),
		timestampStyle.Render(formatWhen(p.LastIndexed)))
}

// ─── Register Form ───────────────────────────────────────────────────────────

func (m Model) viewRegister() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Register Project"))
	b.WriteString("\n\n")

	fields := []string{
		renderFormField("Name:", m.NameInput.View(), m.RegisterFocus == 0),
		renderFormField("Path:", m.PathInput.View(), m.RegisterFocus == 1),
		renderFormField("Stack:", m.StackInput.View(), m.RegisterFocus == 2),
	}
	b.WriteString(formStyle.Render(strings.Join(fields, "\n\n")))
	b.WriteString("\n")

	b.WriteString(noResultsStyle.Render("The name is slugified; an empty stack is detected from the manifests on disk."))

	b.WriteString(helpStyle.Render("\n  tab next field • enter submit • esc cancel"))

	return b.String()
}

func renderFormField(label, input string, focused bool) string {
	style := detailLabelStyle
	if focused {
		style = fieldFocusedStyle
	}
	return fmt.Sprintf("%s %s", style.Render(label), input)
}

// ─── Reindex ─────────────────────────────────────────────────────────────────

func (m Model) viewReindex() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Reindex: " + m.ReindexProject))
	b.WriteString("\n")

	state := m.ReindexState
	if state.Status == "" {
		// Start request still in flight
		b.WriteString(fmt.Sprintf("\n  %s starting run...\n", m.ReindexSpinner.View()))
		b.WriteString(helpStyle.Render("\n  esc back, run continues"))
		return b.String()
	}

	if state.RunID != "" {
		b.WriteString(fmt.Sprintf("%s %s\n", detailLabelStyle.Render("Run:"), idStyle.Render(state.RunID)))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", detailLabelStyle.Render("Status:"), renderRunStatus(state.Status)))
	b.WriteString("\n")

	for _, step := range state.Steps {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			m.stepGlyph(step.Status),
			stepNameStyle.Render(step.Name),
			timestampStyle.Render(truncateStr(step.Message, 60))))
	}

	switch state.Status {
	case "done":
		b.WriteString("\n")
		b.WriteString(stepDoneStyle.Render(fmt.Sprintf("  ✓ fossil v%d stored (%d symbols)", state.Version, state.Symbols)))
		b.WriteString("\n")
	case "failed":
		b.WriteString("\n")
		b.WriteString(stepErrorStyle.Render("  ✗ " + state.Error))
		b.WriteString("\n")
	case "canceled":
		b.WriteString("\n")
		b.WriteString(noResultsStyle.Render("Run canceled."))
		b.WriteString("\n")
	}

	if state.Running {
		b.WriteString(helpStyle.Render("\n  s stop • esc back, run continues"))
	} else {
		b.WriteString(helpStyle.Render("\n  enter/esc back"))
	}

	return b.String()
}

func (m Model) stepGlyph(status pipeline.StepStatus) string {
	switch status {
	case pipeline.StepCompleted:
		return stepDoneStyle.Render("✓")
	case pipeline.StepRunning:
		return m.ReindexSpinner.View()
	case pipeline.StepError:
		return stepErrorStyle.Render("✗")
	default:
		return stepPendingStyle.Render("·")
	}
}

func renderRunStatus(status string) string {
	switch status {
	case "done":
		return stepDoneStyle.Render(status)
	case "failed":
		return stepErrorStyle.Render(status)
	case "canceling", "canceled":
		return statusArchivedStyle.Render(status)
	default:
		return detailValueStyle.Render(status)
	}
}

// ─── Insights ────────────────────────────────────────────────────────────────

func (m Model) viewInsights() string {
	var b strings.Builder

	count := len(m.Insights)
	header := fmt.Sprintf("  Insights: %d total", count)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if count == 0 {
		b.WriteString(noResultsStyle.Render("No insights yet. Run the detective to mine some."))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  esc back"))
		return b.String()
	}

	visibleItems := (m.Height - 8) / 2 // 2 lines per insight item
	if visibleItems < 3 {
		visibleItems = 3
	}

	end := m.Scroll + visibleItems
	if end > count {
		end = count
	}

	for i := m.Scroll; i < end; i++ {
		b.WriteString(m.renderInsightRow(i, m.Insights[i]))
	}

	if count > visibleItems {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, count))))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter detail • esc back"))

	return b.String()
}

func (m Model) renderInsightRow(index int, ins store.Insight) string {
	cursor := "  "
	style := listItemStyle
	if index == m.Cursor {
		cursor = "▸ "
		style = listSelectedStyle
	}

	line := fmt.Sprintf("%s%s %s %s  %s\n",
		cursor,
		idStyle.Render(fmt.Sprintf("#%-5d", ins.ID)),
		typeBadgeStyle.Render(fmt.Sprintf("[%-18s]", ins.InsightType)),
		style.Render(m.insightScope(ins)),
		timestampStyle.Render(ins.CreatedAt.Format("2006-01-02 15:04")))

	preview := truncateStr(ins.Content, 80)
	if preview != "" {
		line += contentPreviewStyle.Render(preview) + "\n"
	}

	return line
}

// ─── Insight Detail ──────────────────────────────────────────────────────────

func (m Model) viewInsightDetail() string {
	var b strings.Builder

	if m.SelectedInsight == nil {
		b.WriteString(headerStyle.Render("  Insight Detail"))
		b.WriteString("\n")
		b.WriteString(noResultsStyle.Render("Loading..."))
		return b.String()
	}

	ins := m.SelectedInsight

	header := fmt.Sprintf("  Insight #%d", ins.ID)
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	// Metadata rows
	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("Type:"),
		typeBadgeStyle.Render(ins.InsightType)))

	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("Scope:"),
		projectStyle.Render(m.insightScope(*ins))))

	if ins.ModelUsed != "" {
		b.WriteString(fmt.Sprintf("%s %s\n",
			detailLabelStyle.Render("Model:"),
			detailValueStyle.Render(ins.ModelUsed)))
	}

	b.WriteString(fmt.Sprintf("%s %s\n",
		detailLabelStyle.Render("Created:"),
		timestampStyle.Render(ins.CreatedAt.Format("2006-01-02 15:04:05"))))

	// Content section
	b.WriteString("\n")
	b.WriteString(sectionHeadingStyle.Render("  Content"))
	b.WriteString("\n")

	// Split content into lines and apply scroll
	contentLines := strings.Split(ins.Content, "\n")
	maxLines := m.Height - 14
	if maxLines < 5 {
		maxLines = 5
	}

	// Clamp scroll
	maxScroll := len(contentLines) - maxLines
	if maxScroll < 0 {
		maxScroll = 0
	}
	if m.DetailScroll > maxScroll {
		m.DetailScroll = maxScroll
	}

	end := m.DetailScroll + maxLines
	if end > len(contentLines) {
		end = len(contentLines)
	}

	for i := m.DetailScroll; i < end; i++ {
		b.WriteString(detailContentStyle.Render(contentLines[i]))
		b.WriteString("\n")
	}

	if len(contentLines) > maxLines {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("line %d-%d of %d", m.DetailScroll+1, end, len(contentLines)))))
	}

	b.WriteString(helpStyle.Render("\n  j/k scroll • esc back"))

	return b.String()
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// insightScope names the projects an insight speaks about. Global rows with
// no involved projects render as "global".
func (m Model) insightScope(ins store.Insight) string {
	if names := ins.InvolvedProjects(); len(names) > 0 {
		return strings.Join(names, ", ")
	}
	if ins.ProjectID.Valid {
		return m.projectName(ins.ProjectID.Int64)
	}
	return "global"
}

func (m Model) projectName(id int64) string {
	for _, p := range m.Projects {
		if p.ID == id {
			return p.Name
		}
	}
	return fmt.Sprintf("project %d", id)
}

func formatWhen(t sql.NullTime) string {
	if !t.Valid {
		return "never"
	}
	return t.Time.Format("2006-01-02 15:04")
}

func truncateStr(s string, max int) string {
	// Remove newlines for single-line display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
