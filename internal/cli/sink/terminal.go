// Package sink provides terminal implementations of the formatter's
// user-facing output.
package sink

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// Options configures a TerminalReporter.
type Options struct {
	// NoColor disables ANSI sequences regardless of terminal detection.
	NoColor bool
	// ShowViews prints status messages, the revealed panel and scratch views.
	// When false they are only recorded; errors are always printed.
	ShowViews bool
}

// TerminalReporter implements formatter.Reporter by printing to a terminal.
// Preview diffs are colorized line by line; the diagnostics panel is printed
// only when revealed.
type TerminalReporter struct {
	mu        sync.Mutex
	out       io.Writer
	logger    *slog.Logger
	showViews bool

	status   *color.Color
	errStyle *color.Color
	panel    *color.Color
	added    *color.Color
	removed  *color.Color
	hunk     *color.Color
	header   *color.Color

	lastStatus string
	panelText  string
	scratch    int
}

// NewTerminalReporter creates a reporter writing to out.
func NewTerminalReporter(out io.Writer, opts Options, loggerHandler slog.Handler) *TerminalReporter {
	r := &TerminalReporter{
		out:       out,
		logger:    slog.New(loggerHandler).With(slog.String("component", "reporter")),
		showViews: opts.ShowViews,
		status:    color.New(color.FgGreen, color.Bold),
		errStyle:  color.New(color.FgRed, color.Bold),
		panel:     color.New(color.FgYellow),
		added:     color.New(color.FgGreen),
		removed:   color.New(color.FgRed),
		hunk:      color.New(color.FgCyan),
		header:    color.New(color.Bold),
	}
	if opts.NoColor {
		for _, c := range []*color.Color{r.status, r.errStyle, r.panel, r.added, r.removed, r.hunk, r.header} {
			c.DisableColor()
		}
	}
	return r
}

// StatusMessage implements formatter.Reporter. Clearing is silent.
func (r *TerminalReporter) StatusMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastStatus = msg
	if msg == "" || !r.showViews {
		return
	}
	r.println(r.status, msg)
}

// ShowPanel implements formatter.Reporter.
func (r *TerminalReporter) ShowPanel(text string, reveal bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panelText = text
	if !reveal || !r.showViews {
		r.logger.Debug("Panel updated", slog.String("text", text))
		return
	}
	r.println(r.panel, strings.TrimRight(text, "\n"))
}

// NewScratchView implements formatter.Reporter by printing the colorized diff.
func (r *TerminalReporter) NewScratchView(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scratch++
	if !r.showViews {
		return
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		r.print(r.diffStyle(line), line)
	}
	if !strings.HasSuffix(text, "\n") {
		_, _ = fmt.Fprintln(r.out)
	}
}

// ReportError implements formatter.Reporter.
func (r *TerminalReporter) ReportError(info formatter.ErrorInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.println(r.errStyle, fmt.Sprintf("error: %s: %s", info.Path, info.Error))
}

// LastStatus returns the most recent status message, "" once cleared.
func (r *TerminalReporter) LastStatus() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStatus
}

// PanelText returns the current panel text.
func (r *TerminalReporter) PanelText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.panelText
}

// ScratchViews returns how many scratch views were opened.
func (r *TerminalReporter) ScratchViews() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scratch
}

func (r *TerminalReporter) diffStyle(line string) *color.Color {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		return r.header
	case strings.HasPrefix(line, "@@"):
		return r.hunk
	case strings.HasPrefix(line, "+"):
		return r.added
	case strings.HasPrefix(line, "-"):
		return r.removed
	}
	return nil
}

func (r *TerminalReporter) print(c *color.Color, s string) {
	var err error
	if c == nil {
		_, err = fmt.Fprint(r.out, s)
	} else {
		_, err = c.Fprint(r.out, s)
	}
	if err != nil {
		r.logger.Warn("Failed to write to terminal", slog.Any("error", err))
	}
}

func (r *TerminalReporter) println(c *color.Color, s string) {
	r.print(c, s+"\n")
}
