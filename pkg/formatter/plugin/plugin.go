// --- START OF FINAL REVISED FILE pkg/formatter/plugin/plugin.go ---
package plugin

import (
	"fmt"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// --- Data Structures ---

// EngineOptions is the wire form of formatter.FormatOptions.
type EngineOptions struct {
	Ignore            []string `json:"ignore"`
	Select            []string `json:"select"`
	MaxLineLength     int      `json:"maxLineLength"`
	IndentSize        int      `json:"indentSize"`
	Aggressive        int      `json:"aggressive"`
	HangClosing       bool     `json:"hangClosing"`
	GlobalConfig      string   `json:"globalConfig,omitempty"`
	IgnoreLocalConfig bool     `json:"ignoreLocalConfig"`
}

// EngineInput is written to an external engine's stdin by the json protocol.
type EngineInput struct {
	SchemaVersion string        `json:"$schemaVersion"`
	Source        string        `json:"source"`
	Options       EngineOptions `json:"options"`
	// Config is free-form engine configuration from engine.config.
	Config map[string]any `json:"config,omitempty"`
}

// EngineOutput is expected on an external engine's stdout.
type EngineOutput struct {
	SchemaVersion string `json:"$schemaVersion"`
	// Error, when non-empty, is a functional failure; the job faults.
	Error string `json:"error,omitempty"`
	// Formatted is the complete formatted source.
	Formatted string `json:"formatted"`
	// Diagnostics is verbose engine output, parsed for unresolved issues.
	Diagnostics string `json:"diagnostics,omitempty"`
}

// NewEngineInput builds the request for one job.
func NewEngineInput(source string, opts *formatter.FormatOptions, config map[string]any) EngineInput {
	return EngineInput{
		SchemaVersion: formatter.EngineSchemaVersion,
		Source:        source,
		Options: EngineOptions{
			Ignore:            opts.Ignore(),
			Select:            opts.Select(),
			MaxLineLength:     opts.MaxLineLength(),
			IndentSize:        opts.IndentSize(),
			Aggressive:        opts.Aggressive(),
			HangClosing:       opts.HangClosing(),
			GlobalConfig:      opts.GlobalConfig(),
			IgnoreLocalConfig: opts.IgnoreLocalConfig(),
		},
		Config: config,
	}
}

// Validate checks the schema version and the engine-reported error.
func (o EngineOutput) Validate() error {
	if o.SchemaVersion != formatter.EngineSchemaVersion {
		return WrapEngineError(formatter.ErrEngineBadOutput, "incompatible schema version '%s', expected '%s'", o.SchemaVersion, formatter.EngineSchemaVersion)
	}
	if o.Error != "" {
		return WrapEngineError(formatter.ErrEngineBadOutput, "engine reported error: %s", o.Error)
	}
	return nil
}

// Errorf returns a formatted error that wraps formatter.ErrEngineExecution.
func Errorf(format string, args ...any) error {
	// minimal comment
	return fmt.Errorf("%w: "+format, append([]any{formatter.ErrEngineExecution}, args...)...)
}

// WrapEngineError wraps a specific engine error (timeout, bad output) with
// formatter.ErrEngineExecution so both match errors.Is.
func WrapEngineError(specificError error, format string, args ...any) error {
	// minimal comment
	return fmt.Errorf("%w: %s: %w", formatter.ErrEngineExecution, fmt.Sprintf(format, args...), specificError)
}

// --- END OF FINAL REVISED FILE pkg/formatter/plugin/plugin.go ---
