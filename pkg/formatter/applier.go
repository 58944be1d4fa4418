// --- START OF FINAL REVISED FILE pkg/formatter/applier.go ---
package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/stackvity/stack-formatter/pkg/formatter/encoding"
)

// Position is a cursor location in a buffer.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Point is a viewport scroll offset.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BufferSink is an editor buffer that formatted text can be written back to.
type BufferSink interface {
	Text() string
	Replace(region Region, text string) error
	CursorPosition() Position
	SetCursorPosition(pos Position)
	ScrollOffset() Point
	SetScrollOffset(offset Point)
}

// Saver is implemented by buffers that can be saved to their backing file.
type Saver interface {
	Save() error
}

// FileSink reads and replaces whole files.
type FileSink interface {
	ReadFile(path string) ([]byte, error)
	// WriteFile replaces path; partial content must never be observable.
	WriteFile(path string, data []byte) error
}

// OSFileSink is the local filesystem. Writes go to a temp file in the target
// directory which is then renamed over the target.
type OSFileSink struct{}

// ReadFile implements FileSink.
func (s *OSFileSink) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile implements FileSink.
func (s *OSFileSink) WriteFile(path string, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in '%s': %w", dir, err)
	}
	tempPath := tempFile.Name()

	closed := false
	renamed := false
	defer func() {
		if !closed {
			_ = tempFile.Close()
		}
		if !renamed {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temporary file '%s': %w", tempPath, err)
	}
	if err := tempFile.Chmod(mode); err != nil {
		return fmt.Errorf("failed to set mode on temporary file '%s': %w", tempPath, err)
	}
	closed = true
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file '%s': %w", tempPath, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename '%s' to '%s': %w", tempPath, path, err)
	}
	renamed = true
	return nil
}

// appliedEdit records a replaced buffer region by its original start offset.
type appliedEdit struct {
	start int
	delta int
}

// ChangeApplier writes formatted text back to its origin.
// It is used from the scheduler goroutine only and holds per-run state.
type ChangeApplier struct {
	files        FileSink
	encodings    encoding.EncodingHandler
	avoidNewLine bool
	onApplied    func(origin Origin, text string)
	logger       *slog.Logger

	applied map[uuid.UUID]struct{}
	edits   map[string][]appliedEdit
}

// NewChangeApplier creates an applier for one run.
func NewChangeApplier(files FileSink, encodings encoding.EncodingHandler, avoidNewLine bool, loggerHandler slog.Handler) *ChangeApplier {
	return &ChangeApplier{
		files:        files,
		encodings:    encodings,
		avoidNewLine: avoidNewLine,
		logger:       slog.New(loggerHandler).With(slog.String("component", "applier")),
		applied:      make(map[uuid.UUID]struct{}),
		edits:        make(map[string][]appliedEdit),
	}
}

// Apply writes r.NewText to r.Origin. It returns false without error when
// there is nothing to do: r is not a change, was applied before, or the
// origin already holds the text.
func (a *ChangeApplier) Apply(r JobResult) (bool, error) {
	if !r.Changed || r.Preview {
		return false, nil
	}
	if _, done := a.applied[r.JobID]; done {
		return false, nil
	}

	var (
		applied bool
		err     error
		text    = r.NewText
	)
	switch o := r.Origin.(type) {
	case BufferOrigin:
		applied, text, err = a.applyBuffer(o, r.NewText)
	case FileOrigin:
		applied, err = a.applyFile(o, r.NewText)
	default:
		err = fmt.Errorf("unsupported origin type %T", r.Origin)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s: %w", ErrWriteFailed, r.Origin.Label(), err)
	}
	a.applied[r.JobID] = struct{}{}
	if applied {
		a.logger.Debug("Applied change", slog.String("origin", r.Origin.Key()))
		if a.onApplied != nil {
			a.onApplied(r.Origin, text)
		}
	}
	return applied, nil
}

// applyBuffer replaces the region and restores cursor and scroll on every path.
func (a *ChangeApplier) applyBuffer(o BufferOrigin, text string) (applied bool, written string, err error) {
	buf := o.Buffer
	current := buf.Text()
	region := a.shifted(o)
	if region.Start < 0 || region.End > len(current) || region.Start > region.End {
		return false, "", fmt.Errorf("region %s out of bounds for buffer of %d bytes", region, len(current))
	}

	old := current[region.Start:region.End]
	// a partial selection keeps the line break that follows it
	if a.avoidNewLine && region.Size() < len(current) {
		text = strings.TrimSuffix(text, "\n")
	}
	if old == text {
		return false, text, nil
	}

	cursor := buf.CursorPosition()
	scroll := buf.ScrollOffset()
	defer func() {
		buf.SetCursorPosition(cursor)
		buf.SetScrollOffset(scroll)
	}()

	if err := buf.Replace(region, text); err != nil {
		return false, "", err
	}
	a.edits[o.Name] = append(a.edits[o.Name], appliedEdit{start: o.Region.Start, delta: len(text) - region.Size()})

	if o.AutoSave {
		saver, ok := buf.(Saver)
		if !ok {
			a.logger.Warn("Buffer cannot be saved, skipping autosave", slog.String("buffer", o.Name))
		} else if err := saver.Save(); err != nil {
			return true, text, fmt.Errorf("autosave failed: %w", err)
		}
	}
	return true, text, nil
}

// shifted moves o.Region by the edits already applied before it in the same buffer.
func (a *ChangeApplier) shifted(o BufferOrigin) Region {
	offset := 0
	for _, e := range a.edits[o.Name] {
		if e.start < o.Region.Start {
			offset += e.delta
		}
	}
	return Region{Start: o.Region.Start + offset, End: o.Region.End + offset}
}

func (a *ChangeApplier) applyFile(o FileOrigin, text string) (bool, error) {
	data, err := a.encodings.Encode(text, o.Encoding)
	if err != nil {
		return false, err
	}
	current, err := a.files.ReadFile(o.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err == nil && bytes.Equal(current, data) {
		return false, nil
	}
	if err := a.files.WriteFile(o.Path, data); err != nil {
		return false, err
	}
	return true, nil
}

// --- END OF FINAL REVISED FILE pkg/formatter/applier.go ---
