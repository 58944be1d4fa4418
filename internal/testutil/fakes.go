// --- START OF FINAL REVISED FILE internal/testutil/fakes.go ---
package testutil

import (
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// --- Scheduler ---

// ScheduledTask is a callback captured by ManualScheduler.
type ScheduledTask struct {
	Fn    func()
	Delay time.Duration
}

// ManualScheduler records SetTimeout callbacks and runs them only when the
// test asks, on the test goroutine.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []ScheduledTask
	delays  []time.Duration
}

// SetTimeout implements formatter.Scheduler.
func (s *ManualScheduler) SetTimeout(fn func(), delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, ScheduledTask{Fn: fn, Delay: delay})
	s.delays = append(s.delays, delay)
}

// Pending returns the number of callbacks not yet run.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Delays returns the delay of every SetTimeout call so far, in call order.
func (s *ManualScheduler) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// RunNext runs the oldest pending callback and reports whether there was one.
func (s *ManualScheduler) RunNext() bool {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return false
	}
	task := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()
	task.Fn()
	return true
}

// RunUntil runs callbacks, pausing briefly between them so workers can make
// progress, until done returns true. It fails after timeout.
func (s *ManualScheduler) RunUntil(done func() bool, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for !done() {
		if time.Now().After(deadline) {
			return fmt.Errorf("condition not met after %s", timeout)
		}
		if !s.RunNext() {
			time.Sleep(time.Millisecond)
			continue
		}
		time.Sleep(time.Millisecond)
	}
	return nil
}

// --- Reporter ---

// RecordingReporter is a thread-safe formatter.Reporter that keeps every call.
type RecordingReporter struct {
	mu       sync.Mutex
	Statuses []string
	Panels   []PanelCall
	Scratch  []string
	Errors   []formatter.ErrorInfo
}

// PanelCall is one ShowPanel invocation.
type PanelCall struct {
	Text   string
	Reveal bool
}

// StatusMessage implements formatter.Reporter.
func (r *RecordingReporter) StatusMessage(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Statuses = append(r.Statuses, msg)
}

// ShowPanel implements formatter.Reporter.
func (r *RecordingReporter) ShowPanel(text string, reveal bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Panels = append(r.Panels, PanelCall{Text: text, Reveal: reveal})
}

// NewScratchView implements formatter.Reporter.
func (r *RecordingReporter) NewScratchView(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Scratch = append(r.Scratch, text)
}

// ReportError implements formatter.Reporter.
func (r *RecordingReporter) ReportError(info formatter.ErrorInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, info)
}

// Snapshot returns copies of the recorded calls.
func (r *RecordingReporter) Snapshot() (statuses []string, panels []PanelCall, scratch []string, errs []formatter.ErrorInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Statuses...), append([]PanelCall(nil), r.Panels...),
		append([]string(nil), r.Scratch...), append([]formatter.ErrorInfo(nil), r.Errors...)
}

// --- Buffer ---

// FakeBuffer is an in-memory formatter.BufferSink and formatter.Saver with
// failure injection.
type FakeBuffer struct {
	mu         sync.Mutex
	text       string
	cursor     formatter.Position
	scroll     formatter.Point
	ReplaceErr error
	SaveErr    error
	Replaces   int
	Saves      int
	// CursorDuringReplace is the cursor position observed by the last Replace.
	CursorDuringReplace formatter.Position
}

// NewFakeBuffer creates a buffer holding text.
func NewFakeBuffer(text string) *FakeBuffer {
	return &FakeBuffer{text: text}
}

// Text implements formatter.BufferSink.
func (b *FakeBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Replace implements formatter.BufferSink. A replace moves the cursor to the
// end of the new text, like an editor would.
func (b *FakeBuffer) Replace(region formatter.Region, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ReplaceErr != nil {
		return b.ReplaceErr
	}
	if region.Start < 0 || region.End > len(b.text) || region.Start > region.End {
		return fmt.Errorf("region %s out of bounds", region)
	}
	b.text = b.text[:region.Start] + text + b.text[region.End:]
	b.Replaces++
	b.CursorDuringReplace = b.cursor
	b.cursor = formatter.Position{Row: -1, Col: -1}
	b.scroll = formatter.Point{}
	return nil
}

// CursorPosition implements formatter.BufferSink.
func (b *FakeBuffer) CursorPosition() formatter.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// SetCursorPosition implements formatter.BufferSink.
func (b *FakeBuffer) SetCursorPosition(pos formatter.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = pos
}

// ScrollOffset implements formatter.BufferSink.
func (b *FakeBuffer) ScrollOffset() formatter.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scroll
}

// SetScrollOffset implements formatter.BufferSink.
func (b *FakeBuffer) SetScrollOffset(offset formatter.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scroll = offset
}

// Save implements formatter.Saver.
func (b *FakeBuffer) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SaveErr != nil {
		return b.SaveErr
	}
	b.Saves++
	return nil
}

// --- File sink ---

// MemFileSink is an in-memory formatter.FileSink.
type MemFileSink struct {
	mu       sync.Mutex
	files    map[string][]byte
	ReadErr  map[string]error
	WriteErr error
	Writes   []string
}

// NewMemFileSink creates a sink holding files.
func NewMemFileSink(files map[string]string) *MemFileSink {
	s := &MemFileSink{files: make(map[string][]byte), ReadErr: make(map[string]error)}
	for k, v := range files {
		s.files[k] = []byte(v)
	}
	return s
}

// ReadFile implements formatter.FileSink.
func (s *MemFileSink) ReadFile(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ReadErr[path]; err != nil {
		return nil, err
	}
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// WriteFile implements formatter.FileSink.
func (s *MemFileSink) WriteFile(path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.WriteErr != nil {
		return s.WriteErr
	}
	s.files[path] = append([]byte(nil), data...)
	s.Writes = append(s.Writes, path)
	return nil
}

// Content returns the current content of path.
func (s *MemFileSink) Content(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.files[path])
}

// WriteCount returns the number of successful writes.
func (s *MemFileSink) WriteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Writes)
}

// --- END OF FINAL REVISED FILE internal/testutil/fakes.go ---
