package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/stackvity/stack-formatter/internal/cli/hooks"
	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// --- Constants ---

const listHeightMargin = 4 // header, footer and status line

const (
	phaseInitializing = "Initializing..."
	phaseComplete     = "Complete"
)

// --- Model Struct ---

// Model represents the state of the job-progress TUI. Update runs on the
// bubbletea goroutine only, so the model needs no locking.
type Model struct {
	list        list.Model
	spinner     spinner.Model
	width       int
	height      int
	initialized bool
	version     string

	jobItems []listItem
	// itemMap maps origin keys to their index in jobItems.
	itemMap map[string]int
	summary Summary

	phaseMessage string
	// statusMessage is the run's final status line, set on completion.
	statusMessage string
	quitting      bool
	// listDirty is set while an UpdateListMsg tick is pending.
	listDirty bool
}

// listItem represents a single job in the TUI list.
type listItem struct {
	key      string
	label    string
	status   formatter.Status
	message  string
	duration time.Duration
}

// Summary holds the aggregated statistics displayed in the TUI footer.
type Summary struct {
	TotalJobs      int
	ChangedCount   int
	UnchangedCount int
	FailedCount    int
	NotFixedCount  int
	StartTime      time.Time
	EndTime        time.Time
}

// Elapsed is frozen once the run completes.
func (s Summary) Elapsed() time.Duration {
	end := s.EndTime
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.StartTime)
}

// --- Bubble Tea Interface Implementations ---

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles user input and hook messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	// --- Internal Bubble Tea Messages ---
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, max(m.height-listHeightMargin, 1))
		m.initialized = true

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}
		var listCmd tea.Cmd
		m.list, listCmd = m.list.Update(msg)
		cmds = append(cmds, listCmd)

	case spinner.TickMsg:
		if m.quitting {
			return m, nil
		}
		var spinnerCmd tea.Cmd
		m.spinner, spinnerCmd = m.spinner.Update(msg)
		cmds = append(cmds, spinnerCmd)

	// --- Custom Messages from Pipeline Hooks ---
	case hooks.JobQueuedMsg:
		if _, exists := m.itemMap[msg.Key]; !exists {
			m.addItem(listItem{key: msg.Key, label: DisplayLabel(msg.Key), status: formatter.StatusQueued})
			cmds = append(cmds, m.scheduleListUpdate())
		}
		if m.phaseMessage == phaseInitializing {
			m.phaseMessage = formatter.MessageFormatting
		}

	case hooks.JobStatusUpdateMsg:
		idx, ok := m.itemMap[msg.Key]
		if !ok {
			m.addItem(listItem{key: msg.Key, label: DisplayLabel(msg.Key), status: formatter.StatusQueued})
			idx = len(m.jobItems) - 1
		}
		item := &m.jobItems[idx]
		if msg.Status.IsFinal() && !item.status.IsFinal() {
			m.incrementSummaryCount(msg.Status)
		}
		item.status = msg.Status
		item.message = msg.Message
		if msg.Duration > 0 {
			item.duration = msg.Duration
		}
		if m.phaseMessage == phaseInitializing {
			m.phaseMessage = formatter.MessageFormatting
		}
		cmds = append(cmds, m.scheduleListUpdate())

	case hooks.RunCompleteMsg:
		m.phaseMessage = phaseComplete
		m.statusMessage = msg.Report.Summary.StatusMessage
		s := msg.Report.Summary
		// the report is authoritative over counts derived from messages
		m.summary.TotalJobs = s.TotalJobs
		m.summary.ChangedCount = s.ChangedCount
		m.summary.UnchangedCount = s.UnchangedCount
		m.summary.FailedCount = s.FailedCount
		m.summary.NotFixedCount = s.NotFixedCount
		m.summary.EndTime = time.Now()
		cmds = append(cmds, m.scheduleListUpdate())

	case UpdateListMsg:
		m.listDirty = false
		items := make([]list.Item, len(m.jobItems))
		for i, item := range m.jobItems {
			items[i] = item
		}
		cmds = append(cmds, m.list.SetItems(items))
	}

	return m, tea.Batch(cmds...)
}

// --- Helper Methods ---

// NewModel creates the initial model for the TUI.
func NewModel(version string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorStatusProcessing)

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)
	delegate.ShowDescription = true
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorSelectedFg).
		Background(ColorSelectedBg).
		Bold(true).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorSelectedDescFg).
		Background(ColorSelectedBg).
		Padding(0, 0, 0, 1)
	delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.
		Foreground(ColorNormalFg).Padding(0, 0, 0, 1)
	delegate.Styles.NormalDesc = delegate.Styles.NormalDesc.
		Foreground(ColorNormalDescFg).Padding(0, 0, 0, 1)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowTitle(false)
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	if version == "" {
		version = "dev"
	}
	return Model{
		list:         l,
		spinner:      s,
		version:      version,
		summary:      Summary{StartTime: time.Now()},
		phaseMessage: phaseInitializing,
		jobItems:     make([]listItem, 0, 64),
		itemMap:      make(map[string]int),
	}
}

// DisplayLabel strips the origin kind from an origin key.
func DisplayLabel(key string) string {
	for _, prefix := range []string{"file:", "buffer:"} {
		if rest, ok := strings.CutPrefix(key, prefix); ok {
			return rest
		}
	}
	return key
}

func (m *Model) addItem(item listItem) {
	m.jobItems = append(m.jobItems, item)
	m.itemMap[item.key] = len(m.jobItems) - 1
	m.summary.TotalJobs++
}

// incrementSummaryCount updates summary counts for a job entering a final status.
func (m *Model) incrementSummaryCount(status formatter.Status) {
	switch status {
	case formatter.StatusChanged:
		m.summary.ChangedCount++
	case formatter.StatusUnchanged, formatter.StatusCached:
		m.summary.UnchangedCount++
	case formatter.StatusFailed:
		m.summary.FailedCount++
	}
}

// --- List Item Interface ---

// FilterValue implements the list.Item interface.
func (i listItem) FilterValue() string { return i.label }

// Title implements the list.Item interface.
func (i listItem) Title() string { return i.label }

// Description implements the list.Item interface.
func (i listItem) Description() string {
	var statusStyle lipgloss.Style
	statusIcon := " "
	switch i.status {
	case formatter.StatusChanged:
		statusStyle = StatusStyleChanged
		statusIcon = "✓"
	case formatter.StatusUnchanged, formatter.StatusCached:
		statusStyle = StatusStyleUnchanged
		statusIcon = "="
	case formatter.StatusFailed:
		statusStyle = StatusStyleFailed
		statusIcon = "✗"
	case formatter.StatusSkipped:
		statusStyle = StatusStyleSkipped
		statusIcon = "S"
	case formatter.StatusProcessing:
		statusStyle = StatusStyleProcessing
		statusIcon = "…"
	default:
		statusStyle = StatusStylePending
	}

	details := ""
	switch {
	case i.status == formatter.StatusFailed:
		details = i.message
	case i.status.IsFinal():
		details = formatDuration(i.duration)
	}
	return strings.TrimRight(fmt.Sprintf("%s %s", statusStyle.Render("["+statusIcon+"]"), details), " ")
}

// formatDuration formats duration for display.
func formatDuration(d time.Duration) string {
	switch {
	case d == 0:
		return ""
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// --- Update Debouncing ---

// UpdateListMsg signals that the list component should update its items.
type UpdateListMsg struct{}

const listUpdateDebounceDuration = 50 * time.Millisecond

// scheduleListUpdate coalesces list refreshes to one per debounce window.
func (m *Model) scheduleListUpdate() tea.Cmd {
	if m.listDirty {
		return nil
	}
	m.listDirty = true
	return tea.Tick(listUpdateDebounceDuration, func(time.Time) tea.Msg { return UpdateListMsg{} })
}
