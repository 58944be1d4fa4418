package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/stackvity/stack-formatter/internal/cli/config"
	"github.com/stackvity/stack-formatter/internal/cli/watch"
	"github.com/stackvity/stack-formatter/pkg/formatter"
	"github.com/stackvity/stack-formatter/pkg/util"
)

// RunWatch formats files under paths whenever they are saved, until ctx is
// cancelled. Metrics are served on cfg.MetricsAddr when set.
func RunWatch(ctx context.Context, cfg *config.Config, paths []string, streams Streams) error {
	s, err := newSession(cfg, streams)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() && !formatter.HasFormattableFiles(p, cfg.SearchDepth, s.gate) {
			s.logger.Warn("No formattable files found near watched directory", slog.String("path", p), slog.Int("depth", cfg.SearchDepth))
		}
	}

	metrics := watch.NewMetrics()
	w, err := watch.New(watch.Options{
		Roots:    paths,
		Debounce: cfg.Watch.Debounce,
		Filter:   s.watchFilter(paths),
		Metrics:  metrics,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if cfg.MetricsAddr != "" {
		srv, err := watch.NewMetricsServer(cfg.MetricsAddr, metrics, cfg.Logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Serve(gctx) })
	}
	g.Go(func() error {
		return w.Run(gctx, func(ctx context.Context, batch watch.Batch) error {
			report, err := s.formatPaths(ctx, batch.Paths, false, true, s.streams.Out, metrics, w.OnApplied)
			if err != nil {
				return err
			}
			s.logger.Info("Batch complete",
				slog.String("batch", batch.ID.String()),
				slog.String("status", report.Summary.StatusMessage),
				slog.Int("changed", report.Summary.ChangedCount),
				slog.Int("failed", report.Summary.FailedCount),
			)
			return finish(report)
		})
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchFilter admits files the syntax gate selects that lie under a watched
// directory, or are a watched file, and match no exclude pattern. Hidden
// files, which include the cache file and atomic-write temp files, are skipped.
func (s *session) watchFilter(roots []string) func(path string) bool {
	excludes := util.NewPatternSet(s.cfg.FormatOptions.Exclude())
	var dirs []string
	files := make(map[string]struct{})
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			files[abs] = struct{}{}
			continue
		}
		dirs = append(dirs, abs)
	}
	return func(path string) bool {
		if strings.HasPrefix(filepath.Base(path), ".") {
			return false
		}
		_, admitted := files[path]
		for _, root := range dirs {
			rel, err := filepath.Rel(root, path)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				continue
			}
			if excluded, rule := excludes.Match(filepath.ToSlash(rel), false); excluded {
				s.logger.Debug("Ignoring excluded file", slog.String("path", path), slog.String("pattern", rule))
				return false
			}
			admitted = true
		}
		if !admitted {
			return false
		}
		ok, _ := s.gate.Allows(nil, path)
		return ok
	}
}
