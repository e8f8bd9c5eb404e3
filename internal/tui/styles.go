package tui

import "github.com/charmbracelet/lipgloss"

// ─── Colors (sediment palette) ───────────────────────────────────────────────

var (
	colorText    = lipgloss.Color("#d8dee9") // Light gray text
	colorSubtext = lipgloss.Color("#7b8597") // Dim slate
	colorOverlay = lipgloss.Color("#4c566a") // Muted borders
	colorAmber   = lipgloss.Color("#e5a458") // Primary brand amber
	colorGold    = lipgloss.Color("#ebcb8b") // Project names
	colorGreen   = lipgloss.Color("#a3be8c") // Success / active
	colorRed     = lipgloss.Color("#bf616a") // Errors
	colorBlue    = lipgloss.Color("#81a1c1") // IDs and counters
	colorTeal    = lipgloss.Color("#8fbcbb") // Stack labels
)

// ─── Layout Styles ───────────────────────────────────────────────────────────

var (
	// App frame
	appStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Padding(1, 2)

	// Header bar
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAmber).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorOverlay).
			PaddingBottom(1).
			MarginBottom(1)

	// Footer / help bar
	helpStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			MarginTop(1)

	// Error message
	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true).
			Padding(0, 1)
)

// ─── Dashboard Styles ────────────────────────────────────────────────────────

var (
	// Big stat number
	statNumberStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			Width(8).
			Align(lipgloss.Right)

	// Stat label
	statLabelStyle = lipgloss.NewStyle().
			Foreground(colorText).
			PaddingLeft(2)

	// Stat card container
	statCardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorOverlay).
			Padding(1, 2).
			MarginBottom(1)

	// Section title
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGold).
			MarginBottom(1)
)

// ─── List Styles ─────────────────────────────────────────────────────────────

var (
	// List item (normal)
	listItemStyle = lipgloss.NewStyle().
			Foreground(colorText).
			PaddingLeft(2)

	// List item (selected/cursor)
	listSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAmber).
				Bold(true).
				PaddingLeft(1)

	// Insight type badge
	typeBadgeStyle = lipgloss.NewStyle().
			Foreground(colorAmber).
			Bold(true)

	// Row ID
	idStyle = lipgloss.NewStyle().
		Foreground(colorBlue)

	// Timestamp
	timestampStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Italic(true)

	// Project name
	projectStyle = lipgloss.NewStyle().
			Foreground(colorGold)

	// Stack label
	stackStyle = lipgloss.NewStyle().
			Foreground(colorTeal)

	// Status badges
	statusActiveStyle = lipgloss.NewStyle().
				Foreground(colorGreen)

	statusArchivedStyle = lipgloss.NewStyle().
				Foreground(colorSubtext).
				Italic(true)

	// Content preview
	contentPreviewStyle = lipgloss.NewStyle().
				Foreground(colorSubtext).
				PaddingLeft(4)

	noResultsStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Italic(true).
			PaddingLeft(2).
			MarginTop(1)
)

// ─── Detail and Form Styles ──────────────────────────────────────────────────

var (
	// Section heading in detail views
	sectionHeadingStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorGold).
				MarginTop(1).
				MarginBottom(1)

	// Detail content
	detailContentStyle = lipgloss.NewStyle().
				Foreground(colorText).
				PaddingLeft(2)

	// Detail label
	detailLabelStyle = lipgloss.NewStyle().
				Foreground(colorSubtext).
				Width(12).
				Align(lipgloss.Right).
				PaddingRight(1)

	// Detail value
	detailValueStyle = lipgloss.NewStyle().
				Foreground(colorText)

	// Form field label (focused)
	fieldFocusedStyle = lipgloss.NewStyle().
				Foreground(colorAmber).
				Bold(true).
				Width(12).
				Align(lipgloss.Right).
				PaddingRight(1)

	formStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorOverlay).
			Padding(1, 2).
			MarginBottom(1)
)

// ─── Reindex Step Styles ─────────────────────────────────────────────────────

var (
	stepPendingStyle = lipgloss.NewStyle().
				Foreground(colorOverlay)

	stepDoneStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	stepErrorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	stepNameStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Width(18)
)
