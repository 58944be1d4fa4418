// --- START OF FINAL REVISED FILE pkg/formatter/notfixed.go ---
package formatter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// toFixMarker precedes each pass summary in engine diagnostics. Only lines
// after the last marker describe issues the engine finally gave up on.
const toFixMarker = "issue(s) to fix"

var notFixedPattern = regexp.MustCompile(`Not fixing (?P<code>[A-Z]\d+) on line (?P<line>\d+)`)

// FindNotFixed extracts unresolved issues from engine diagnostics.
// Diagnostics without a marker hold no unresolved issues.
func FindNotFixed(diagnostics string) []Issue {
	idx := strings.LastIndex(diagnostics, toFixMarker)
	if idx < 0 {
		return nil
	}
	diagnostics = diagnostics[idx+len(toFixMarker):]
	codeIdx := notFixedPattern.SubexpIndex("code")
	lineIdx := notFixedPattern.SubexpIndex("line")

	var issues []Issue
	for _, m := range notFixedPattern.FindAllStringSubmatch(diagnostics, -1) {
		line, err := strconv.Atoi(m[lineIdx])
		if err != nil {
			continue
		}
		issues = append(issues, Issue{Code: m[codeIdx], Line: line})
	}
	return issues
}

// FormatNotFixed renders issues of one origin, one line each.
func FormatNotFixed(label string, issues []Issue) string {
	lines := make([]string, 0, len(issues))
	for _, is := range issues {
		lines = append(lines, fmt.Sprintf("File \"%s\", line %d: not fixed %s", label, is.Line, is.Code))
	}
	return strings.Join(lines, "\n")
}

// --- END OF FINAL REVISED FILE pkg/formatter/notfixed.go ---
