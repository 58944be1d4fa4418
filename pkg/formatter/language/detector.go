// --- START OF FINAL REVISED FILE pkg/formatter/language/detector.go ---
package language

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-enry/go-enry/v2"
)

// Unknown is returned when no language could be determined.
const Unknown = "unknown"

// LanguageDetector names the language of a file from its path and, optionally, its content.
type LanguageDetector interface {
	// Detect returns a lowercase language name, or Unknown.
	// content may be nil, in which case only the path is used.
	Detect(content []byte, filePath string) string
}

// goEnryDetector implements LanguageDetector with go-enry plus extension overrides.
type goEnryDetector struct {
	overrides map[string]string // .ext -> language
}

// NewGoEnryDetector creates a detector. Override keys are extensions with or
// without the leading dot; both sides are lowercased.
func NewGoEnryDetector(overrides map[string]string) LanguageDetector { // minimal comment
	normalized := make(map[string]string, len(overrides))
	for ext, lang := range overrides {
		ext = strings.ToLower(strings.TrimSpace(ext))
		lang = strings.ToLower(strings.TrimSpace(lang))
		if ext == "" || ext == "." || lang == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized[ext] = lang
	}
	return &goEnryDetector{overrides: normalized}
}

// Detect implements LanguageDetector. Overrides win, then the extension, then
// well-known filenames, then content analysis (shebangs, modelines).
func (d *goEnryDetector) Detect(content []byte, filePath string) string { // minimal comment
	if lang, ok := d.overrides[strings.ToLower(filepath.Ext(filePath))]; ok {
		return lang
	}
	if lang, safe := enry.GetLanguageByExtension(filePath); safe && lang != "" {
		return strings.ToLower(lang)
	}
	if lang, safe := enry.GetLanguageByFilename(filePath); safe && lang != "" {
		return strings.ToLower(lang)
	}
	if len(content) > 0 {
		if lang := enry.GetLanguage(filepath.Base(filePath), content); lang != "" && lang != "Text" {
			return strings.ToLower(lang)
		}
	}
	return Unknown
}

// SyntaxGate admits only files whose language is in a configured list.
type SyntaxGate struct {
	detector  LanguageDetector
	languages []string
}

// NewSyntaxGate creates a gate for languages (matched case-insensitively).
// An empty list admits everything.
func NewSyntaxGate(detector LanguageDetector, languages []string) *SyntaxGate {
	if detector == nil {
		detector = NewGoEnryDetector(nil)
	}
	normalized := make([]string, 0, len(languages))
	for _, l := range languages {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			normalized = append(normalized, l)
		}
	}
	return &SyntaxGate{detector: detector, languages: normalized}
}

// Allows reports whether filePath should be formatted and the language detected for it.
func (g *SyntaxGate) Allows(content []byte, filePath string) (bool, string) {
	lang := g.detector.Detect(content, filePath)
	if len(g.languages) == 0 {
		return true, lang
	}
	return slices.Contains(g.languages, lang), lang
}

// --- END OF FINAL REVISED FILE pkg/formatter/language/detector.go ---
