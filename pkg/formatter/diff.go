// --- START OF FINAL REVISED FILE pkg/formatter/diff.go ---
package formatter

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	diffContextLines = 3
	noNewlineMarker  = "\\ No newline at end of file\n"
)

// CreateDiff renders a unified diff between original and formatted text with
// "original: <label>" / "fixed: <label>" headers. Diffs shorter than minLines
// lines are treated as noise and returned as "".
// Every rendered line ends with a newline so diffs can be concatenated.
func CreateDiff(original, formatted, label string, minLines int) string {
	if original == formatted {
		return ""
	}
	diff := difflib.UnifiedDiff{
		A:        splitDiffLines(original),
		B:        splitDiffLines(formatted),
		FromFile: "original: " + label,
		ToFile:   "fixed: " + label,
		Context:  diffContextLines,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil || text == "" {
		return ""
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if DiffLineCount(text) < minLines {
		return ""
	}
	return text
}

// DiffLineCount returns the number of lines in a rendered diff.
func DiffLineCount(diff string) int {
	if diff == "" {
		return 0
	}
	n := strings.Count(diff, "\n")
	if !strings.HasSuffix(diff, "\n") {
		n++
	}
	return n
}

// splitDiffLines keeps line terminators. A final line without one carries the
// conventional marker so "x" and "x\n" compare as different lines.
func splitDiffLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	last := lines[len(lines)-1]
	if !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n" + noNewlineMarker
	}
	return lines
}

// --- END OF FINAL REVISED FILE pkg/formatter/diff.go ---
