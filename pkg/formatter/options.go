// --- START OF FINAL REVISED FILE pkg/formatter/options.go ---
package formatter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/stackvity/stack-formatter/pkg/formatter/encoding"
)

// FormattingEngine turns source text into formatted text.
// Non-fatal messages go to diagnostics. Implementations MUST be safe for
// concurrent use with independent diagnostics writers.
type FormattingEngine interface {
	Format(ctx context.Context, source string, opts *FormatOptions, diagnostics io.Writer) (string, error)
}

// EngineFunc adapts a plain function to FormattingEngine.
type EngineFunc func(ctx context.Context, source string, opts *FormatOptions, diagnostics io.Writer) (string, error)

// Format implements FormattingEngine.
func (f EngineFunc) Format(ctx context.Context, source string, opts *FormatOptions, diagnostics io.Writer) (string, error) {
	return f(ctx, source, opts, diagnostics)
}

// Hooks defines callbacks for status updates during a run.
// Implementations MUST be thread-safe as methods may be called concurrently.
type Hooks interface {
	OnJobQueued(key string) error
	OnJobStatusUpdate(key string, status Status, message string, duration time.Duration) error
	OnRunComplete(report Report) error
}

// NoOpHooks provides a default, do-nothing implementation of the Hooks interface.
type NoOpHooks struct{}

// OnJobQueued implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnJobQueued(key string) error { return nil }

// OnJobStatusUpdate implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnJobStatusUpdate(key string, status Status, message string, duration time.Duration) error { // minimal comment
	return nil
}

// OnRunComplete implements the Hooks interface. It performs no action.
func (h *NoOpHooks) OnRunComplete(report Report) error { return nil }

// MultiHooks fans every callback out to each member in order.
type MultiHooks []Hooks

// OnJobQueued implements the Hooks interface.
func (m MultiHooks) OnJobQueued(key string) error {
	for _, h := range m {
		_ = h.OnJobQueued(key)
	}
	return nil
}

// OnJobStatusUpdate implements the Hooks interface.
func (m MultiHooks) OnJobStatusUpdate(key string, status Status, message string, duration time.Duration) error {
	for _, h := range m {
		_ = h.OnJobStatusUpdate(key, status, message, duration)
	}
	return nil
}

// OnRunComplete implements the Hooks interface.
func (m MultiHooks) OnRunComplete(report Report) error {
	for _, h := range m {
		_ = h.OnRunComplete(report)
	}
	return nil
}

// CacheManager remembers files already formatted under a given option fingerprint.
type CacheManager interface {
	Load(cachePath string) error
	// Check reports whether path with contentHash is known to be clean for optionsHash.
	Check(path string, contentHash string, optionsHash string) bool
	// Update records path as clean. MUST be thread-safe.
	Update(path string, contentHash string, optionsHash string) error
	Persist(cachePath string) error
}

// NoOpCacheManager provides a default, do-nothing implementation of the CacheManager interface.
type NoOpCacheManager struct{}

// Load implements CacheManager, performs no action.
func (c *NoOpCacheManager) Load(cachePath string) error { return nil }

// Check implements CacheManager, always returns a cache miss.
func (c *NoOpCacheManager) Check(path string, contentHash string, optionsHash string) bool {
	return false
}

// Update implements CacheManager, performs no action.
func (c *NoOpCacheManager) Update(path string, contentHash string, optionsHash string) error {
	return nil
}

// Persist implements CacheManager, performs no action.
func (c *NoOpCacheManager) Persist(cachePath string) error { return nil }

// Options holds the pipeline configuration for one invocation.
// FormatOptions travel with each Job; Options configures how jobs are run.
type Options struct {
	// --- Pipeline ---
	MaxWorkers       int           `mapstructure:"max-threads"`        // 0 = DefaultMaxWorkers
	PollInterval     time.Duration `mapstructure:"poll-interval"`      // 0 = DefaultPollInterval
	StatusClearDelay time.Duration `mapstructure:"status-clear-delay"` // 0 = default, < 0 never clears
	MinDiffLines     int           `mapstructure:"diff-min-lines"`     // 0 = DefaultMinDiffLines

	// --- Reporting & Application ---
	ShowOutputPanel         bool `mapstructure:"show-output-panel"`
	AvoidNewLineInSelection bool `mapstructure:"avoid-new-line-in-select-mode"`

	// --- Injected Dependencies ---
	Engine          FormattingEngine         `mapstructure:"-"` // Required
	Logger          slog.Handler             `mapstructure:"-"` // Required
	Scheduler       Scheduler                `mapstructure:"-"` // Optional: Format creates an EventLoop
	Reporter        Reporter                 `mapstructure:"-"` // Optional: NoOpReporter
	FileSink        FileSink                 `mapstructure:"-"` // Optional: OSFileSink
	EncodingHandler encoding.EncodingHandler `mapstructure:"-"` // Optional: charset handler
	CacheManager    CacheManager             `mapstructure:"-"` // Optional: NoOpCacheManager
	EventHooks      Hooks                    `mapstructure:"-"` // Optional: NoOpHooks
	// OnApplied is called on the loop goroutine after a change was written back.
	OnApplied func(origin Origin, text string) `mapstructure:"-"`
}

// withDefaults validates o and fills optional dependencies.
// It wraps every failure with ErrConfigValidation.
func (o Options) withDefaults() (Options, error) {
	if o.Engine == nil {
		return o, fmt.Errorf("%w: Engine implementation cannot be nil", ErrConfigValidation)
	}
	if o.Logger == nil {
		return o, fmt.Errorf("%w: Logger implementation (slog.Handler) cannot be nil", ErrConfigValidation)
	}
	if o.MaxWorkers < 0 {
		return o, fmt.Errorf("%w: max-threads must be >= 0, got %d", ErrConfigValidation, o.MaxWorkers)
	}
	if o.PollInterval < 0 {
		return o, fmt.Errorf("%w: poll-interval must be >= 0, got %s", ErrConfigValidation, o.PollInterval)
	}
	if o.MinDiffLines < 0 {
		return o, fmt.Errorf("%w: diff-min-lines must be >= 0, got %d", ErrConfigValidation, o.MinDiffLines)
	}
	if o.MaxWorkers == 0 {
		o.MaxWorkers = DefaultMaxWorkers
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.StatusClearDelay == 0 {
		o.StatusClearDelay = DefaultStatusClearDelay
	}
	if o.MinDiffLines == 0 {
		o.MinDiffLines = DefaultMinDiffLines
	}
	if o.Reporter == nil {
		o.Reporter = &NoOpReporter{}
	}
	if o.FileSink == nil {
		o.FileSink = &OSFileSink{}
	}
	if o.EncodingHandler == nil {
		o.EncodingHandler = encoding.NewCharsetEncodingHandler(DefaultEncoding)
	}
	if o.CacheManager == nil {
		o.CacheManager = &NoOpCacheManager{}
	}
	if o.EventHooks == nil {
		o.EventHooks = &NoOpHooks{}
	}
	return o, nil
}

// --- END OF FINAL REVISED FILE pkg/formatter/options.go ---
