// --- START OF FINAL REVISED FILE pkg/formatter/pep8/engine.go ---

// Package pep8 is the built-in formatting engine. It fixes a small set of
// whitespace rules and reports what it leaves alone in the verbose format
// external autopep8-style engines use, so both feed the same diagnostics parser.
package pep8

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// Rule codes handled by the engine.
const (
	CodeTabIndent          = "W191"
	CodeTrailingWhitespace = "W291"
	CodeWhitespaceBlank    = "W293"
	CodeNoFinalNewline     = "W292"
	CodeBlankLineAtEOF     = "W391"
	CodeTooManyBlankLines  = "E303"
	CodeLineTooLong        = "E501"
)

// DefaultMaxPasses bounds the fix/re-check loop.
const DefaultMaxPasses = 8

// maxBlankLines is the longest run of blank lines E303 tolerates.
const maxBlankLines = 2

// ErrNulByte is returned for input that cannot be source text.
var ErrNulByte = errors.New("source contains NUL bytes")

// Issue is one rule violation found on a 1-based line.
type Issue struct {
	Code    string
	Line    int
	Fixable bool
}

// Engine implements formatter.FormattingEngine. It is stateless and safe for
// concurrent use.
type Engine struct {
	maxPasses int
}

// New creates an engine with DefaultMaxPasses.
func New() *Engine {
	return &Engine{maxPasses: DefaultMaxPasses}
}

var _ formatter.FormattingEngine = (*Engine)(nil)

// Format implements formatter.FormattingEngine.
func (e *Engine) Format(ctx context.Context, source string, opts *formatter.FormatOptions, diagnostics io.Writer) (string, error) {
	if strings.IndexByte(source, 0) >= 0 {
		return "", ErrNulByte
	}
	lines := splitLines(source)
	for pass := 0; pass < e.maxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var fixable []Issue
		for _, is := range check(lines, opts) {
			if is.Fixable {
				fixable = append(fixable, is)
			}
		}
		_, _ = fmt.Fprintf(diagnostics, "--->  %d issue(s) to fix %s\n", len(fixable), summarize(fixable))
		if len(fixable) == 0 {
			break
		}
		lines = fix(lines, fixable, opts)
	}
	for _, is := range check(lines, opts) {
		_, _ = fmt.Fprintf(diagnostics, "--->  Not fixing %s on line %d\n", is.Code, is.Line)
	}
	return joinLines(lines), nil
}

// line is one source line without its terminator.
type line struct {
	text string
	eol  string
}

func (l line) blank() bool { return strings.TrimSpace(l.text) == "" }

func splitLines(s string) []line {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	lines := make([]line, 0, len(parts))
	for _, p := range parts {
		switch {
		case strings.HasSuffix(p, "\r\n"):
			lines = append(lines, line{text: p[:len(p)-2], eol: "\r\n"})
		case strings.HasSuffix(p, "\n"):
			lines = append(lines, line{text: p[:len(p)-1], eol: "\n"})
		default:
			lines = append(lines, line{text: p})
		}
	}
	return lines
}

func joinLines(lines []line) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.text)
		b.WriteString(l.eol)
	}
	return b.String()
}

// Lint lists the enabled rule violations of source without fixing anything.
func Lint(source string, opts *formatter.FormatOptions) []Issue {
	return check(splitLines(source), opts)
}

// check lists the enabled rule violations of lines in line order.
func check(lines []line, opts *formatter.FormatOptions) []Issue {
	var issues []Issue
	add := func(code string, n int, fixable bool) {
		if opts.RuleEnabled(code) {
			issues = append(issues, Issue{Code: code, Line: n, Fixable: fixable})
		}
	}

	trailingStart := len(lines)
	for trailingStart > 0 && lines[trailingStart-1].blank() {
		trailingStart--
	}

	blankRun := 0
	for i, l := range lines {
		n := i + 1
		if strings.ContainsRune(leadingWhitespace(l.text), '\t') {
			add(CodeTabIndent, n, true)
		}
		if l.blank() {
			if l.text != "" {
				add(CodeWhitespaceBlank, n, true)
			}
		} else if strings.TrimRight(l.text, " \t") != l.text {
			add(CodeTrailingWhitespace, n, true)
		}
		if utf8.RuneCountInString(l.text) > opts.MaxLineLength() {
			add(CodeLineTooLong, n, false)
		}
		if l.blank() {
			blankRun++
			continue
		}
		if blankRun > maxBlankLines {
			add(CodeTooManyBlankLines, n, opts.Aggressive() >= 1)
		}
		blankRun = 0
	}

	if trailingStart < len(lines) {
		add(CodeBlankLineAtEOF, trailingStart+1, true)
	} else if len(lines) > 0 && lines[len(lines)-1].eol == "" {
		add(CodeNoFinalNewline, len(lines), true)
	}
	return issues
}

// fix applies every fix kind present in issues to the whole text.
func fix(lines []line, issues []Issue, opts *formatter.FormatOptions) []line {
	codes := make(map[string]bool, len(issues))
	for _, is := range issues {
		codes[is.Code] = true
	}
	indent := strings.Repeat(" ", opts.IndentSize())

	out := make([]line, 0, len(lines))
	for _, l := range lines {
		if codes[CodeTabIndent] {
			lead := leadingWhitespace(l.text)
			l.text = strings.ReplaceAll(lead, "\t", indent) + l.text[len(lead):]
		}
		if (codes[CodeTrailingWhitespace] && !l.blank()) || (codes[CodeWhitespaceBlank] && l.blank()) {
			l.text = strings.TrimRight(l.text, " \t")
		}
		out = append(out, l)
	}

	if codes[CodeTooManyBlankLines] {
		out = collapseBlankRuns(out)
	}
	if codes[CodeBlankLineAtEOF] {
		end := len(out)
		for end > 0 && out[end-1].blank() {
			end--
		}
		out = out[:end]
		if end > 0 && out[end-1].eol == "" {
			out[end-1].eol = "\n"
		}
	}
	if codes[CodeNoFinalNewline] && len(out) > 0 && out[len(out)-1].eol == "" {
		out[len(out)-1].eol = dominantEOL(out)
	}
	return out
}

// collapseBlankRuns shortens interior runs of blank lines to maxBlankLines.
// Trailing blank lines are left to the W391 fix.
func collapseBlankRuns(lines []line) []line {
	trailingStart := len(lines)
	for trailingStart > 0 && lines[trailingStart-1].blank() {
		trailingStart--
	}
	out := make([]line, 0, len(lines))
	run := 0
	for i, l := range lines {
		if !l.blank() {
			run = 0
		} else if run++; run > maxBlankLines && i < trailingStart {
			continue
		}
		out = append(out, l)
	}
	return out
}

func leadingWhitespace(s string) string {
	return s[:len(s)-len(strings.TrimLeft(s, " \t"))]
}

func dominantEOL(lines []line) string {
	crlf, lf := 0, 0
	for _, l := range lines {
		switch l.eol {
		case "\r\n":
			crlf++
		case "\n":
			lf++
		}
	}
	if crlf > lf {
		return "\r\n"
	}
	return "\n"
}

// summarize renders issues grouped by code, e.g. {'W291': {2, 5}}.
func summarize(issues []Issue) string {
	byCode := make(map[string][]int)
	for _, is := range issues {
		byCode[is.Code] = append(byCode[is.Code], is.Line)
	}
	codes := make([]string, 0, len(byCode))
	for c := range byCode {
		codes = append(codes, c)
	}
	slices.Sort(codes)
	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		nums := make([]string, 0, len(byCode[c]))
		for _, n := range byCode[c] {
			nums = append(nums, fmt.Sprint(n))
		}
		parts = append(parts, fmt.Sprintf("'%s': {%s}", c, strings.Join(nums, ", ")))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// --- END OF FINAL REVISED FILE pkg/formatter/pep8/engine.go ---
