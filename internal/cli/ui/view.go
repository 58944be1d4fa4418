package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current state of the TUI.
func (m *Model) View() string {
	if m.quitting {
		return "Exiting...\n"
	}
	if !m.initialized {
		return phaseInitializing
	}

	// --- Header ---
	headerLeft := fmt.Sprintf("Stack Formatter v%s", m.version)
	headerRight := m.phaseMessage
	if m.phaseMessage != phaseComplete && m.phaseMessage != phaseInitializing {
		headerRight = m.spinner.View() + " " + m.phaseMessage
	}
	header := HeaderStyle.Width(m.width).Render(spread(m.width, headerLeft, headerRight))

	// --- Footer ---
	summaryText := fmt.Sprintf(
		"Changed: %d | Unchanged: %d | Failed: %d | Not fixed: %d | Jobs: %d | Elapsed: %s",
		m.summary.ChangedCount,
		m.summary.UnchangedCount,
		m.summary.FailedCount,
		m.summary.NotFixedCount,
		m.summary.TotalJobs,
		m.summary.Elapsed().Round(time.Millisecond),
	)
	footer := FooterStyle.Width(m.width).Render(spread(m.width, summaryText, "q: quit"))

	statusView := ""
	if m.statusMessage != "" {
		style := StatusStyleChanged
		if m.summary.FailedCount > 0 {
			style = StatusStyleFailed
		}
		statusView = style.Render(m.statusMessage)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.list.View(),
		statusView,
		footer,
	)
}

// spread places left and right at the edges of a line of the given width.
func spread(width int, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	center := ""
	if gap > 0 {
		center = lipgloss.PlaceHorizontal(gap, lipgloss.Center, " ")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, left, center, right)
}

// --- Styles ---

const (
	ColorHeaderFg = lipgloss.Color("252")
	ColorHeaderBg = lipgloss.Color("62")

	ColorFooterFg = lipgloss.Color("252")
	ColorFooterBg = lipgloss.Color("56")

	ColorNormalFg     = lipgloss.Color("250")
	ColorNormalDescFg = lipgloss.Color("244")

	ColorSelectedFg     = lipgloss.Color("255")
	ColorSelectedBg     = lipgloss.Color("56")
	ColorSelectedDescFg = lipgloss.Color("248")

	ColorStatusChanged    = lipgloss.Color("40")  // Green
	ColorStatusUnchanged  = lipgloss.Color("39")  // Blue
	ColorStatusFailed     = lipgloss.Color("196") // Red
	ColorStatusSkipped    = lipgloss.Color("214") // Orange/Yellow
	ColorStatusPending    = lipgloss.Color("244") // Dim gray
	ColorStatusProcessing = lipgloss.Color("205") // Pink (matches spinner)
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHeaderFg).
			Background(ColorHeaderBg).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorFooterFg).
			Background(ColorFooterBg).
			Padding(0, 1)

	StatusStyleChanged    = lipgloss.NewStyle().Foreground(ColorStatusChanged)
	StatusStyleUnchanged  = lipgloss.NewStyle().Foreground(ColorStatusUnchanged)
	StatusStyleFailed     = lipgloss.NewStyle().Foreground(ColorStatusFailed)
	StatusStyleSkipped    = lipgloss.NewStyle().Foreground(ColorStatusSkipped)
	StatusStylePending    = lipgloss.NewStyle().Foreground(ColorStatusPending)
	StatusStyleProcessing = lipgloss.NewStyle().Foreground(ColorStatusProcessing)
)
