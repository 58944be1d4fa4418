// Package editor provides an in-memory text buffer that stands in for an
// editor view when formatting regions of a file from the command line.
package editor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/encoding"
)

// ErrInvalidLineRange is returned for malformed or out-of-bounds line ranges.
var ErrInvalidLineRange = errors.New("invalid line range")

// Buffer is a file loaded into memory. It implements formatter.BufferSink and
// formatter.Saver. Methods are safe for concurrent use.
type Buffer struct {
	mu sync.Mutex

	path     string
	encoding string
	text     string
	cursor   formatter.Position
	scroll   formatter.Point
	modified bool
	saves    int

	files     formatter.FileSink
	encodings encoding.EncodingHandler
}

// Open reads path through files and decodes it with encodingName.
func Open(path, encodingName string, files formatter.FileSink, encodings encoding.EncodingHandler) (*Buffer, error) {
	if files == nil {
		files = &formatter.OSFileSink{}
	}
	if encodings == nil {
		encodings = encoding.NewCharsetEncodingHandler(formatter.DefaultEncoding)
	}
	data, err := files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", formatter.ErrReadFailed, path, err)
	}
	if encodings.IsBinary(data) {
		return nil, fmt.Errorf("%w: %s", formatter.ErrBinaryFile, path)
	}
	text, resolved, err := encodings.Decode(data, encodingName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", formatter.ErrReadFailed, path, err)
	}
	return &Buffer{
		path:      path,
		encoding:  resolved,
		text:      text,
		files:     files,
		encodings: encodings,
	}, nil
}

// NewBuffer creates an unsaved buffer holding text. Save writes to path.
func NewBuffer(path, text string, files formatter.FileSink, encodings encoding.EncodingHandler) *Buffer {
	if files == nil {
		files = &formatter.OSFileSink{}
	}
	if encodings == nil {
		encodings = encoding.NewCharsetEncodingHandler(formatter.DefaultEncoding)
	}
	return &Buffer{path: path, text: text, files: files, encodings: encodings}
}

// Path returns the backing file path.
func (b *Buffer) Path() string { return b.path }

// Encoding returns the name the buffer was decoded with.
func (b *Buffer) Encoding() string { return b.encoding }

// Text implements formatter.BufferSink.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

// Replace implements formatter.BufferSink.
func (b *Buffer) Replace(region formatter.Region, text string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if region.Start < 0 || region.End > len(b.text) || region.Start > region.End {
		return fmt.Errorf("region %s out of bounds for buffer of %d bytes", region, len(b.text))
	}
	b.text = b.text[:region.Start] + text + b.text[region.End:]
	b.modified = true
	// a replacement moves the cursor to its end, like an editor would
	b.cursor = positionAt(b.text, region.Start+len(text))
	return nil
}

// CursorPosition implements formatter.BufferSink.
func (b *Buffer) CursorPosition() formatter.Position {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor
}

// SetCursorPosition implements formatter.BufferSink.
func (b *Buffer) SetCursorPosition(pos formatter.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cursor = pos
}

// ScrollOffset implements formatter.BufferSink.
func (b *Buffer) ScrollOffset() formatter.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.scroll
}

// SetScrollOffset implements formatter.BufferSink.
func (b *Buffer) SetScrollOffset(offset formatter.Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scroll = offset
}

// Modified reports whether the buffer holds unsaved changes.
func (b *Buffer) Modified() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.modified
}

// Saves returns how many times the buffer was written to disk.
func (b *Buffer) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

// Save implements formatter.Saver.
func (b *Buffer) Save() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, err := b.encodings.Encode(b.text, b.encoding)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", formatter.ErrWriteFailed, b.path, err)
	}
	if err := b.files.WriteFile(b.path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", formatter.ErrWriteFailed, b.path, err)
	}
	b.modified = false
	b.saves++
	return nil
}

// --- Line ranges ---

// LineRegion converts the 1-based inclusive line range [first, last] to a
// byte region of text. The region includes the newline ending last.
func LineRegion(text string, first, last int) (formatter.Region, error) {
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if first < 1 || last < first || last > len(lines) {
		return formatter.Region{}, fmt.Errorf("%w: %d-%d (buffer has %d lines)", ErrInvalidLineRange, first, last, len(lines))
	}
	start := 0
	for _, l := range lines[:first-1] {
		start += len(l)
	}
	end := start
	for _, l := range lines[first-1 : last] {
		end += len(l)
	}
	return formatter.Region{Start: start, End: end}, nil
}

// ParseLineRanges parses specs like "3-10" or "7" into regions of text.
func ParseLineRanges(text string, specs []string) ([]formatter.Region, error) {
	regions := make([]formatter.Region, 0, len(specs))
	for _, spec := range specs {
		first, last, err := parseLineRange(spec)
		if err != nil {
			return nil, err
		}
		region, err := LineRegion(text, first, last)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}

func parseLineRange(spec string) (int, int, error) {
	spec = strings.TrimSpace(spec)
	lo, hi, isRange := strings.Cut(spec, "-")
	first, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLineRange, spec)
	}
	if !isRange {
		return first, first, nil
	}
	last, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidLineRange, spec)
	}
	return first, last, nil
}

// positionAt returns the zero-based row and column of byte offset in text.
func positionAt(text string, offset int) formatter.Position {
	offset = min(max(offset, 0), len(text))
	before := text[:offset]
	row := strings.Count(before, "\n")
	col := offset - (strings.LastIndex(before, "\n") + 1)
	return formatter.Position{Row: row, Col: col}
}
