package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/stackvity/stack-formatter/internal/cli/config"
	cligit "github.com/stackvity/stack-formatter/internal/cli/git"
	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/formatter/template"
)

// RunFormat formats files under paths (default ".") and writes the report
// to streams.Out in the configured output format.
func RunFormat(ctx context.Context, cfg *config.Config, paths []string, streams Streams) (formatter.Report, error) {
	s, err := newSession(cfg, streams)
	if err != nil {
		return formatter.Report{}, err
	}
	report, err := s.formatPaths(ctx, paths, s.cfg.TuiEnabled && s.streams.IsTTY, false, s.streams.Err, nil, nil)
	if err != nil {
		return report, err
	}
	if err := WriteReport(s.streams.Out, cfg, report); err != nil {
		return report, err
	}
	return report, finish(report)
}

// formatPaths discovers, loads and formats files. Discovery and load
// results are merged into the returned report.
func (s *session) formatPaths(ctx context.Context, paths []string, useTUI, showViews bool, reporterOut io.Writer, extra formatter.Hooks, onApplied func(formatter.Origin, string)) (formatter.Report, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	var changed map[string]struct{}
	if s.cfg.GitDiffMode != formatter.GitDiffModeNone {
		var err error
		changed, err = config.GitChangedFiles(s.cfg, cligit.NewGoGitClient(s.cfg.Logger), ".", s.logger)
		if err != nil {
			return formatter.Report{}, err
		}
	}

	discovered, err := formatter.Discover(ctx, paths, formatter.DiscoverOptions{
		Exclude:         s.cfg.FormatOptions.Exclude(),
		Gate:            s.gate,
		GitDiffMode:     s.cfg.GitDiffMode,
		GitChangedFiles: changed,
		Logger:          s.cfg.Logger,
	})
	if err != nil {
		return formatter.Report{}, err
	}

	cacheMgr, cachePath := s.openCache()
	loaded, err := formatter.LoadFileJobs(ctx, discovered.Files, formatter.LoadOptions{
		FormatOptions:   s.cfg.FormatOptions,
		Encoding:        s.cfg.Encoding,
		Concurrency:     s.cfg.Pipeline.MaxWorkers,
		EncodingHandler: s.encodings,
		CacheManager:    cacheMgr,
		IgnoreCacheRead: s.cfg.IgnoreCacheRead,
		Logger:          s.cfg.Logger,
	})
	if err != nil {
		return formatter.Report{}, err
	}
	s.logger.Debug("Jobs loaded",
		slog.Int("files", len(discovered.Files)),
		slog.Int("jobs", len(loaded.Jobs)),
		slog.Int("skipped", len(loaded.Skipped)+len(discovered.Skipped)),
		slog.Int("errors", len(loaded.Errors)),
	)

	report, err := s.run(ctx, runSpec{
		jobs:      loaded.Jobs,
		cache:     cacheMgr,
		useTUI:    useTUI,
		showViews: showViews,
		reportOut: reporterOut,
		extra:     extra,
		onApplied: onApplied,

		loadErrors: loaded.Errors,
	})
	if err != nil {
		return report, err
	}
	s.persistCache(cacheMgr, cachePath)

	formatter.MergeLoadResult(&report, formatter.LoadResult{Skipped: discovered.Skipped})
	formatter.MergeLoadResult(&report, loaded)
	return report, nil
}

// WriteReport renders report to w in cfg.OutputFormat; text uses the
// configured template or the embedded default.
func WriteReport(w io.Writer, cfg *config.Config, report formatter.Report) error {
	switch cfg.OutputFormat {
	case formatter.OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode JSON report: %w", err)
		}
	case formatter.OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode YAML report: %w", err)
		}
		return enc.Close()
	case formatter.OutputFormatTOML:
		if err := toml.NewEncoder(w).Encode(report); err != nil {
			return fmt.Errorf("failed to encode TOML report: %w", err)
		}
	default:
		tmpl, err := template.LoadDefaultTemplate()
		if cfg.TemplatePath != "" {
			tmpl, err = template.LoadTemplateFile(cfg.TemplatePath)
		}
		if err != nil {
			return err
		}
		renderer, err := template.NewTextRenderer(tmpl)
		if err != nil {
			return err
		}
		return renderer.Render(w, report)
	}
	return nil
}
