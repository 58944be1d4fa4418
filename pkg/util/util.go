// --- START OF FINAL REVISED FILE pkg/util/util.go ---
package util

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// pattern is one parsed exclude rule.
type pattern struct {
	glob      string // '/'-separated, without leading '/' or trailing '/'
	orig      string
	negated   bool
	dirOnly   bool
	rooted    bool
	anchorRel string // directory of the defining file relative to the matcher root, "" for the root
}

// PatternSet matches '/'-separated paths relative to a root against
// gitignore-style rules: "!" negates, a trailing "/" matches directories
// only, a leading "/" anchors the rule to the directory it was defined in,
// and unanchored rules match any trailing run of path components. The last
// matching rule wins.
type PatternSet struct {
	patterns []pattern
}

// NewPatternSet creates a set holding patterns defined at the matcher root.
func NewPatternSet(patterns []string) *PatternSet {
	s := &PatternSet{}
	s.Add(patterns, "")
	return s
}

// Add appends rules defined in anchorRel, a directory relative to the root.
// Blank lines and "#" comments are ignored.
func (s *PatternSet) Add(patterns []string, anchorRel string) {
	anchorRel = strings.Trim(filepath.ToSlash(anchorRel), "/")
	if anchorRel == "." {
		anchorRel = ""
	}
	for _, raw := range patterns {
		p := pattern{orig: raw, anchorRel: anchorRel}
		glob := strings.TrimSpace(raw)
		if glob == "" || strings.HasPrefix(glob, "#") {
			continue
		}
		if strings.HasPrefix(glob, "!") {
			p.negated = true
			glob = strings.TrimSpace(glob[1:])
		}
		if strings.HasPrefix(glob, "/") {
			p.rooted = true
			glob = strings.TrimLeft(glob, "/")
		}
		if strings.HasSuffix(glob, "/") {
			p.dirOnly = true
			glob = strings.TrimRight(glob, "/")
		}
		p.glob = filepath.ToSlash(glob)
		if p.glob == "" {
			continue
		}
		s.patterns = append(s.patterns, p)
	}
}

// Len returns the number of parsed rules.
func (s *PatternSet) Len() int { return len(s.patterns) }

// Match reports whether rel is excluded and the rule that decided it.
func (s *PatternSet) Match(rel string, isDir bool) (bool, string) {
	rel = strings.Trim(filepath.ToSlash(rel), "/")
	if rel == "" || rel == "." {
		return false, ""
	}
	matched := false
	decidedBy := ""
	for _, p := range s.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if MatchesGitignore(p.glob, p.anchorRel, rel, p.rooted) {
			matched = !p.negated
			decidedBy = p.orig
		}
	}
	if !matched {
		return false, ""
	}
	return true, decidedBy
}

// MatchesGitignore reports whether rel (relative to the matcher root) matches
// glob defined in anchorRel. Rooted globs must match the whole path below the
// anchor; others may match any trailing run of components.
func MatchesGitignore(glob, anchorRel, rel string, rooted bool) bool {
	if glob == "" || rel == "" {
		return false
	}
	if anchorRel != "" {
		if !strings.HasPrefix(rel, anchorRel+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, anchorRel+"/")
	}
	if ok, _ := path.Match(glob, rel); ok {
		return true
	}
	if rooted || (strings.Contains(glob, "/") && !strings.HasPrefix(glob, "**/")) {
		return false
	}
	glob = strings.TrimPrefix(glob, "**/")
	parts := strings.Split(rel, "/")
	for i := range parts {
		if ok, _ := path.Match(glob, strings.Join(parts[i:], "/")); ok {
			return true
		}
	}
	return false
}

// LoadPatternFile reads rules from an ignore file, one per line.
func LoadPatternFile(filePath string) ([]string, error) { // Minimal comment
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open ignore file %s: %w", filePath, err)
	}
	defer file.Close()
	var patterns []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", filePath, err)
	}
	return patterns, nil
}

// --- END OF FINAL REVISED FILE pkg/util/util.go ---
