// --- START OF FINAL REVISED FILE pkg/formatter/types.go ---
package formatter

// Status defines the possible processing states of a job.
type Status string

// Constants representing the defined job statuses.
const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusChanged    Status = "changed"
	StatusUnchanged  Status = "unchanged"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
	StatusCached     Status = "cached"
)

// IsFinal reports whether no further updates follow this status for a job.
func (s Status) IsFinal() bool {
	switch s {
	case StatusChanged, StatusUnchanged, StatusFailed, StatusSkipped, StatusCached:
		return true
	}
	return false
}

// OutputFormat defines the format for the final summary report printed when TUI is disabled.
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatTOML OutputFormat = "toml"
)

// EngineName selects the formatting engine implementation.
type EngineName string

const (
	EngineBuiltin EngineName = "builtin"
	EngineExec    EngineName = "exec"
)

// EngineProtocol defines how an exec engine exchanges data with the subprocess.
type EngineProtocol string

const (
	// EngineProtocolArgs passes options as command line flags, source on stdin,
	// formatted text on stdout and diagnostics on stderr.
	EngineProtocolArgs EngineProtocol = "args"
	// EngineProtocolJSON exchanges plugin.EngineInput / plugin.EngineOutput documents.
	EngineProtocolJSON EngineProtocol = "json"
)

// GitDiffMode defines the strategy for using Git differences to filter discovered files.
type GitDiffMode string

const (
	GitDiffModeNone     GitDiffMode = "none"
	GitDiffModeDiffOnly GitDiffMode = "diffOnly"
	GitDiffModeSince    GitDiffMode = "since"
)

// --- END OF FINAL REVISED FILE pkg/formatter/types.go ---
