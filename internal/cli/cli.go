// Package cli holds the run logic behind each command: dependency wiring,
// the progress UI lifecycle and report output.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/stackvity/stack-formatter/internal/cli/config"
	"github.com/stackvity/stack-formatter/internal/cli/hooks"
	"github.com/stackvity/stack-formatter/internal/cli/runner"
	"github.com/stackvity/stack-formatter/internal/cli/sink"
	"github.com/stackvity/stack-formatter/internal/cli/ui"
	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/cache"
	"github.com/stackvity/stack-formatter/pkg/formatter/encoding"
	"github.com/stackvity/stack-formatter/pkg/formatter/language"
	"github.com/stackvity/stack-formatter/pkg/formatter/pep8"
)

// ErrJobsFailed is returned when a run completed but some jobs faulted.
var ErrJobsFailed = errors.New("one or more jobs failed")

// Streams are the terminal endpoints of a command.
type Streams struct {
	Out io.Writer
	Err io.Writer
	// IsTTY reports whether Err is an interactive terminal.
	IsTTY bool
}

// session wires the dependencies shared by all commands.
type session struct {
	cfg       *config.Config
	streams   Streams
	logger    *slog.Logger
	engine    formatter.FormattingEngine
	encodings encoding.EncodingHandler
	gate      *language.SyntaxGate
}

func newSession(cfg *config.Config, streams Streams) (*session, error) {
	if cfg == nil || cfg.FormatOptions == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("%w: configuration was not loaded", formatter.ErrConfigValidation)
	}
	if streams.Out == nil {
		streams.Out = os.Stdout
	}
	if streams.Err == nil {
		streams.Err = os.Stderr
	}
	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	return &session{
		cfg:       cfg,
		streams:   streams,
		logger:    slog.New(cfg.Logger).With(slog.String("component", "cli")),
		engine:    engine,
		encodings: encoding.NewCharsetEncodingHandler(cfg.Encoding),
		gate:      language.NewSyntaxGate(language.NewGoEnryDetector(cfg.LanguageMappings), cfg.SyntaxList),
	}, nil
}

// NewEngine builds the configured formatting engine.
func NewEngine(cfg *config.Config) (formatter.FormattingEngine, error) {
	switch cfg.Engine.Name {
	case formatter.EngineExec:
		return runner.NewExecEngine(cfg.Engine.Command, cfg.Engine.Protocol, cfg.Engine.Timeout, cfg.Engine.Config, cfg.Logger)
	case formatter.EngineBuiltin, "":
		return pep8.New(), nil
	}
	return nil, fmt.Errorf("%w: unknown engine '%s'", formatter.ErrConfigValidation, cfg.Engine.Name)
}

// openCache returns the cache manager for this run and where it persists.
// Cache problems are logged and never fail the run.
func (s *session) openCache() (formatter.CacheManager, string) {
	if !s.cfg.CacheEnabled {
		return &formatter.NoOpCacheManager{}, ""
	}
	path := cache.CacheFileName
	if s.cfg.ClearCache {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("Failed to clear cache file", slog.String("path", path), slog.Any("error", err))
		} else {
			s.logger.Info("Cache cleared", slog.String("path", path))
		}
	}
	mgr := cache.NewFileCacheManager(s.cfg.Logger, s.cfg.AppVersion, s.cfg.CacheFormat)
	if err := mgr.Load(path); err != nil {
		s.logger.Warn("Failed to load cache, starting empty", slog.Any("error", err))
	}
	return mgr, path
}

func (s *session) persistCache(mgr formatter.CacheManager, path string) {
	if path == "" {
		return
	}
	if err := mgr.Persist(path); err != nil {
		s.logger.Warn("Failed to persist cache", slog.Any("error", err))
	}
}

// runSpec describes one pipeline invocation.
type runSpec struct {
	jobs      []*formatter.Job
	cache     formatter.CacheManager
	useTUI    bool
	showViews bool
	reportOut io.Writer
	extra     formatter.Hooks
	onApplied func(origin formatter.Origin, text string)

	// loadErrors are read and decode faults raised before the jobs existed.
	loadErrors []formatter.ErrorInfo
}

// run executes jobs with the progress surface chosen for the terminal.
func (s *session) run(ctx context.Context, spec runSpec) (formatter.Report, error) {
	reporterOut := spec.reportOut
	var tuiBuf bytes.Buffer
	if spec.useTUI {
		// the TUI owns the terminal; reporter output is replayed after it exits
		reporterOut = &tuiBuf
	}
	reporter := sink.NewTerminalReporter(reporterOut, sink.Options{
		NoColor:   !s.streams.IsTTY,
		ShowViews: spec.showViews,
	}, s.cfg.Logger)
	for _, info := range spec.loadErrors {
		reporter.ReportError(info)
	}

	var (
		prog     *tea.Program
		tuiDone  chan error
		progress hooks.ProgressBar
	)
	if spec.useTUI {
		model := ui.NewModel(s.cfg.AppVersion)
		prog = tea.NewProgram(&model, tea.WithOutput(s.streams.Err), tea.WithContext(ctx))
		tuiDone = make(chan error, 1)
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go func() {
			_, err := prog.Run()
			// quitting the TUI stops the run
			cancel()
			tuiDone <- err
		}()
	} else if s.streams.IsTTY && !s.cfg.Verbose && len(spec.jobs) > 0 {
		progress = ui.NewLineProgress(s.streams.Err, len(spec.jobs))
	}

	var tuiProg hooks.TUIProgram
	if prog != nil {
		tuiProg = teaSender{prog}
	}
	var eventHooks formatter.Hooks = hooks.NewCLIHooks(slog.New(s.cfg.Logger), spec.useTUI, s.cfg.Verbose, tuiProg, progress)
	if spec.extra != nil {
		eventHooks = formatter.MultiHooks{eventHooks, spec.extra}
	}

	opts := s.cfg.Pipeline
	opts.Engine = s.engine
	opts.Logger = s.cfg.Logger
	opts.Reporter = reporter
	opts.EncodingHandler = s.encodings
	opts.CacheManager = spec.cache
	opts.EventHooks = eventHooks
	opts.OnApplied = spec.onApplied

	report, err := formatter.Format(ctx, opts, spec.jobs)

	if prog != nil {
		prog.Quit()
		if tuiErr := <-tuiDone; tuiErr != nil && !errors.Is(tuiErr, tea.ErrProgramKilled) {
			s.logger.Warn("TUI exited with error", slog.Any("error", tuiErr))
		}
		if _, copyErr := io.Copy(spec.reportOut, &tuiBuf); copyErr != nil {
			s.logger.Warn("Failed to write reporter output", slog.Any("error", copyErr))
		}
	}
	return report, err
}

// teaSender adapts *tea.Program to hooks.TUIProgram.
type teaSender struct{ p *tea.Program }

func (s teaSender) Send(msg interface{}) { s.p.Send(msg) }

// finish returns ErrJobsFailed when report holds failures.
func finish(report formatter.Report) error {
	if report.Summary.FailedCount > 0 {
		return fmt.Errorf("%w: %d failed", ErrJobsFailed, report.Summary.FailedCount)
	}
	return nil
}
