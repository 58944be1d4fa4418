// --- START OF FINAL REVISED FILE pkg/formatter/errors.go ---
package formatter

import (
	"errors"

	"github.com/stackvity/stack-formatter/pkg/formatter/cache"
	"github.com/stackvity/stack-formatter/pkg/formatter/git"
)

// --- Exported Error Variables ---
// Per-job faults are stored as data in the Report; only configuration faults
// and ErrNothingToDo are returned from Format and Orchestrator.Start.
// Library users can check against these using errors.Is.

var (
	// ErrConfigValidation indicates that FormatOptions or Options failed validation.
	// It is returned before any worker starts.
	ErrConfigValidation = errors.New("invalid configuration options provided")

	// ErrNothingToDo is returned by Orchestrator.Start when it receives no jobs.
	// Format translates it into a "nothing to format" report.
	ErrNothingToDo = errors.New("nothing to format")

	// ErrFormattingFault marks a job whose engine call failed or panicked.
	// Recorded in Report.Errors, never returned.
	ErrFormattingFault = errors.New("formatting failed")

	// ErrReadFailed indicates a failure to read a source file while building jobs.
	ErrReadFailed = errors.New("failed to read file")

	// ErrWriteFailed indicates a failure to write formatted content back to its origin.
	ErrWriteFailed = errors.New("failed to write formatted content")

	// ErrBinaryFile indicates that a file was detected as binary and skipped.
	ErrBinaryFile = errors.New("binary file encountered")

	// ErrEngineExecution indicates a general failure of an external formatting engine.
	// Use errors.Is to check for this category or for the specific errors below.
	ErrEngineExecution = errors.New("engine execution failed")

	// ErrEngineTimeout indicates that an engine process exceeded its timeout.
	// errors.Is(err, ErrEngineExecution) will also be true.
	ErrEngineTimeout = errors.New("engine execution timed out")

	// ErrEngineNonZeroExit indicates that an engine process exited with a non-zero status.
	// errors.Is(err, ErrEngineExecution) will also be true.
	ErrEngineNonZeroExit = errors.New("engine exited non-zero")

	// ErrEngineBadOutput indicates that engine output could not be decoded, or that the
	// engine reported an error itself.
	// errors.Is(err, ErrEngineExecution) will also be true.
	ErrEngineBadOutput = errors.New("engine returned invalid output or reported error")

	// ErrCacheLoad indicates an error while loading the clean-file cache.
	// Treated as a cache miss and logged, not returned as fatal.
	ErrCacheLoad = cache.ErrCacheLoad

	// ErrCachePersist indicates an error while persisting the clean-file cache.
	ErrCachePersist = cache.ErrCachePersist

	// ErrGitOperation indicates a failure during a Git operation performed via the GitClient.
	ErrGitOperation = git.ErrGitOperation
)

// --- END OF FINAL REVISED FILE pkg/formatter/errors.go ---
