package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

// LineProgress renders a single-line progress bar for non-TUI terminals.
// It implements hooks.ProgressBar; callers serialize access.
type LineProgress struct {
	w     io.Writer
	bar   progress.Model
	total int
	done  int
	desc  string
}

// NewLineProgress creates a bar for total jobs writing to w.
func NewLineProgress(w io.Writer, total int) *LineProgress {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage())
	return &LineProgress{w: w, bar: bar, total: total}
}

// Add advances the bar by num jobs.
func (p *LineProgress) Add(num int) error {
	p.done = min(p.done+num, p.total)
	return p.render()
}

// Describe sets the text shown after the counter.
func (p *LineProgress) Describe(description string) error {
	p.desc = description
	return p.render()
}

// Close renders the final state and ends the line.
func (p *LineProgress) Close() error {
	if err := p.render(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(p.w)
	return err
}

func (p *LineProgress) render() error {
	percent := 1.0
	if p.total > 0 {
		percent = float64(p.done) / float64(p.total)
	}
	_, err := fmt.Fprintf(p.w, "\r%s %d/%d %s", p.bar.ViewAs(percent), p.done, p.total, p.desc)
	return err
}
