// --- START OF FINAL REVISED FILE pkg/formatter/constants.go ---
package formatter

import "time"

// Constants defining default values for configuration options.
// These are used when setting up Viper defaults in the configuration loading process.
const (
	// DefaultMaxWorkers bounds the worker pool when max-threads is not configured.
	DefaultMaxWorkers = 5
	// DefaultPollInterval is the delay between two completion polls of the orchestrator.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultStatusClearDelay is how long the end-of-run status message stays visible.
	DefaultStatusClearDelay = 3 * time.Second
	// DefaultMinDiffLines is the smallest preview diff that is reported as a change.
	DefaultMinDiffLines = 3
	// DefaultMaxLineLength mirrors the pep8 default.
	DefaultMaxLineLength = 79
	// DefaultIndentSize is the number of spaces per indentation level.
	DefaultIndentSize = 4
	// DefaultAggressive disables aggressive fixes.
	DefaultAggressive = 0
	// DefaultSearchDepth limits HasFormattableFiles when walking a directory.
	DefaultSearchDepth = 3
	// DefaultEncoding is used for files when no encoding is configured.
	DefaultEncoding = "utf-8"
	// DefaultShowOutputPanel reveals the diagnostics panel when unresolved issues remain.
	DefaultShowOutputPanel = true
	// DefaultCacheEnabled is the default state for the clean-file cache.
	DefaultCacheEnabled = true
	// DefaultTuiEnabled is the default state for the Terminal UI.
	DefaultTuiEnabled = true
	// DefaultOutputFormat is the default format for the final summary report.
	DefaultOutputFormat = OutputFormatText
	// DefaultEngineName selects the built-in engine.
	DefaultEngineName = EngineBuiltin
	// DefaultEngineProtocol is used by exec engines.
	DefaultEngineProtocol = EngineProtocolArgs
	// DefaultWatchDebounceString is the default debounce duration string for watch mode.
	DefaultWatchDebounceString = "300ms"
	// DefaultWatchDebounceDuration is the parsed default debounce duration.
	DefaultWatchDebounceDuration = 300 * time.Millisecond
	// DefaultVerbose is the default state for verbose logging.
	DefaultVerbose = false
)

// DefaultSyntaxList is the set of languages formatted when syntax-list is not configured.
var DefaultSyntaxList = []string{"Python"}

// Constants related to report and engine schemas.
const (
	// ReportSchemaVersion indicates the version of the JSON report structure.
	ReportSchemaVersion = "1.0"
	// EngineSchemaVersion indicates the version of the JSON engine protocol.
	EngineSchemaVersion = "1.0"
)

// User facing status messages delivered to the Reporter.
const (
	MessageIssuesFixed   = "Issues fixed."
	MessageNoIssues      = "No issues to fix."
	MessageIssuesFound   = "Issues found, see the diff."
	MessageNothingToDo   = "Nothing to format."
	MessageFormatting    = "Formatting..."
	PanelNoErrors        = "There are no errors."
	PanelNotFixedHeading = "some issue(s) were not fixed:\n"
)

// Constants defining skip reasons used in the Report.
const (
	SkipReasonBinary     = "binary_file"
	SkipReasonCached     = "clean_in_cache"
	SkipReasonExcluded   = "excluded_pattern"
	SkipReasonLanguage   = "language_not_selected"
	SkipReasonGitExclude = "excluded_by_git_diff"
)

// --- END OF FINAL REVISED FILE pkg/formatter/constants.go ---
