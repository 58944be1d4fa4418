package cli

import (
	"context"
	"log/slog"

	"github.com/stackvity/stack-formatter/internal/cli/config"
	"github.com/stackvity/stack-formatter/internal/cli/editor"
	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// RunRegion formats line ranges of one file in an in-memory buffer and saves
// the buffer when something changed. No ranges means the whole file.
func RunRegion(ctx context.Context, cfg *config.Config, path string, lineRanges []string, streams Streams) (formatter.Report, error) {
	s, err := newSession(cfg, streams)
	if err != nil {
		return formatter.Report{}, err
	}

	buf, err := editor.Open(path, cfg.Encoding, nil, s.encodings)
	if err != nil {
		return formatter.Report{}, err
	}
	if ok, lang := s.gate.Allows([]byte(buf.Text()), path); !ok {
		s.logger.Info("Language not selected, nothing to format", slog.String("path", path), slog.String("language", lang))
		report := formatter.NothingToDoReport()
		formatter.MergeLoadResult(&report, formatter.LoadResult{Skipped: []formatter.SkippedInfo{
			{Path: path, Reason: formatter.SkipReasonLanguage, Details: lang},
		}})
		return report, WriteReport(s.streams.Out, cfg, report)
	}

	regions, err := editor.ParseLineRanges(buf.Text(), lineRanges)
	if err != nil {
		return formatter.Report{}, err
	}
	jobs, err := formatter.NewRegionJobs(buf, path, regions, cfg.FormatOptions, true)
	if err != nil {
		return formatter.Report{}, err
	}

	report, err := s.run(ctx, runSpec{
		jobs:      jobs,
		cache:     &formatter.NoOpCacheManager{},
		reportOut: s.streams.Err,
	})
	if err != nil {
		return report, err
	}
	s.logger.Debug("Region run complete", slog.String("path", path), slog.Int("regions", len(regions)), slog.Int("saves", buf.Saves()))
	if err := WriteReport(s.streams.Out, cfg, report); err != nil {
		return report, err
	}
	return report, finish(report)
}
