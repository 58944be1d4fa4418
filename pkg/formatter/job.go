// --- START OF FINAL REVISED FILE pkg/formatter/job.go ---
package formatter

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Region is a half-open byte range [Start, End) inside a buffer.
type Region struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Size returns the number of bytes covered by the region.
func (r Region) Size() int { return r.End - r.Start }

// Empty reports whether the region covers nothing.
func (r Region) Empty() bool { return r.End <= r.Start }

// String renders the region as "start-end".
func (r Region) String() string { return fmt.Sprintf("%d-%d", r.Start, r.End) }

// Origin identifies where a job's text came from and where its result goes.
// It is implemented only by BufferOrigin and FileOrigin.
type Origin interface {
	// Key is unique per origin within one invocation.
	Key() string
	// Label is the display name used in diff headers and diagnostics.
	Label() string
	isOrigin()
}

// BufferOrigin is a region of an open editor buffer.
type BufferOrigin struct {
	Buffer BufferSink
	// Name identifies the buffer, usually the file path it was loaded from.
	Name   string
	Region Region
	// AutoSave saves the buffer after the region is replaced.
	AutoSave bool
}

// Key implements Origin.
func (o BufferOrigin) Key() string { return "buffer:" + o.Name + "@" + o.Region.String() }

// Label implements Origin.
func (o BufferOrigin) Label() string { return o.Name }

func (BufferOrigin) isOrigin() {}

// FileOrigin is a whole file on disk.
type FileOrigin struct {
	Path string
	// Encoding is the name the file was decoded with; writes encode back to it.
	Encoding string
}

// Key implements Origin.
func (o FileOrigin) Key() string { return "file:" + filepath.Clean(o.Path) }

// Label implements Origin.
func (o FileOrigin) Label() string { return o.Path }

func (FileOrigin) isOrigin() {}

// DiagnosticSink is an append-only capture buffer for engine messages.
// It is owned by exactly one goroutine at a time and is not locked.
type DiagnosticSink struct {
	buf strings.Builder
}

// Write implements io.Writer.
func (s *DiagnosticSink) Write(p []byte) (int, error) { return s.buf.Write(p) }

// WriteString implements io.StringWriter.
func (s *DiagnosticSink) WriteString(str string) (int, error) { return s.buf.WriteString(str) }

// String returns everything written so far.
func (s *DiagnosticSink) String() string { return s.buf.String() }

// Len returns the number of bytes written so far.
func (s *DiagnosticSink) Len() int { return s.buf.Len() }

// Job is one unit of formatting work.
type Job struct {
	ID uuid.UUID
	// Seq is the position of the job in the input batch, used to order diffs.
	Seq         int
	Source      string
	Origin      Origin
	Preview     bool
	Options     *FormatOptions
	Diagnostics *DiagnosticSink
}

// NewJob creates a job for source text taken from origin.
// The preview flag is taken from opts.
func NewJob(seq int, source string, origin Origin, opts *FormatOptions) (*Job, error) {
	if origin == nil {
		return nil, fmt.Errorf("%w: job %d has no origin", ErrConfigValidation, seq)
	}
	if opts == nil {
		return nil, fmt.Errorf("%w: job %d has no format options", ErrConfigValidation, seq)
	}
	if bo, ok := origin.(BufferOrigin); ok && bo.Buffer == nil {
		return nil, fmt.Errorf("%w: buffer origin %q has no buffer", ErrConfigValidation, bo.Name)
	}
	return &Job{
		ID:          uuid.New(),
		Seq:         seq,
		Source:      source,
		Origin:      origin,
		Preview:     opts.Preview(),
		Options:     opts,
		Diagnostics: &DiagnosticSink{},
	}, nil
}

// JobResult is the immutable outcome of one job, created by the worker that ran it.
type JobResult struct {
	JobID        uuid.UUID
	Seq          int
	Origin       Origin
	Preview      bool
	Options      *FormatOptions
	OriginalText string
	// NewText is the engine output; empty when the engine faulted.
	NewText string
	// Diff is the unified diff in preview mode, empty below the line threshold.
	Diff        string
	Diagnostics string
	// Changed reports an applicable change (see isApplicableChange).
	Changed  bool
	Fault    error
	Duration time.Duration
	WorkerID int
}

// --- END OF FINAL REVISED FILE pkg/formatter/job.go ---
