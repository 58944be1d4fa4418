// --- START OF FINAL REVISED FILE pkg/formatter/template/template.go ---
package template

import (
	_ "embed" // Required for //go:embed
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

//go:embed report.tmpl
var defaultTemplateContent string

// ReportRenderer writes a run report as text.
type ReportRenderer interface {
	Render(w io.Writer, report formatter.Report) error
}

// TextRenderer renders reports with a text/template.
type TextRenderer struct {
	tmpl *template.Template
}

var customTemplateFuncs = template.FuncMap{
	"seconds": func(s float64) string {
		return time.Duration(s * float64(time.Second)).Round(time.Millisecond).String()
	},
	"trimNewline": func(s string) string { return strings.TrimRight(s, "\n") },
	"formatDate": func(t time.Time, layout string) string {
		if layout == "" {
			layout = time.RFC3339
		}
		return t.Format(layout)
	},
}

// LoadDefaultTemplate parses the embedded report template.
func LoadDefaultTemplate() (*template.Template, error) { // minimal comment
	if defaultTemplateContent == "" {
		return nil, fmt.Errorf("embedded default template content is empty")
	}
	tmpl, err := template.New("report").Funcs(customTemplateFuncs).Parse(defaultTemplateContent)
	if err != nil {
		return nil, fmt.Errorf("failed to parse default template: %w", err)
	}
	return tmpl, nil
}

// LoadTemplateFile parses a user supplied report template. The same helper
// functions as in the default template are available.
func LoadTemplateFile(path string) (*template.Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report template %q: %w", path, err)
	}
	tmpl, err := template.New("custom").Funcs(customTemplateFuncs).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template %q: %w", path, err)
	}
	return tmpl, nil
}

// NewTextRenderer creates a renderer; a nil tmpl uses the embedded default.
func NewTextRenderer(tmpl *template.Template) (*TextRenderer, error) {
	if tmpl == nil {
		var err error
		if tmpl, err = LoadDefaultTemplate(); err != nil {
			return nil, err
		}
	}
	return &TextRenderer{tmpl: tmpl}, nil
}

// Render implements ReportRenderer. The output always ends with a newline.
func (r *TextRenderer) Render(w io.Writer, report formatter.Report) error { // minimal comment
	var b strings.Builder
	if err := r.tmpl.Execute(&b, report); err != nil {
		return fmt.Errorf("template execution failed for %q: %w", r.tmpl.Name(), err)
	}
	out := b.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

// --- END OF FINAL REVISED FILE pkg/formatter/template/template.go ---
