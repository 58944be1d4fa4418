// --- START OF FINAL REVISED FILE pkg/formatter/jobs.go ---
package formatter

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/stackvity/stack-formatter/pkg/formatter/encoding"
)

// ContentHash returns the hash used to identify file content in the cache.
func ContentHash(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 16)
}

// LoadOptions configures LoadFileJobs.
type LoadOptions struct {
	FormatOptions   *FormatOptions
	Encoding        string // "" uses the handler default, "auto" detects
	Concurrency     int    // 0 = DefaultMaxWorkers
	FileSink        FileSink
	EncodingHandler encoding.EncodingHandler
	CacheManager    CacheManager
	// IgnoreCacheRead forces every file to become a job.
	IgnoreCacheRead bool
	Logger          slog.Handler
}

// LoadResult is what LoadFileJobs produced: jobs plus files that were not
// turned into jobs and why.
type LoadResult struct {
	Jobs    []*Job
	Skipped []SkippedInfo
	Errors  []ErrorInfo
}

type loadSlot struct {
	job     *Job
	skipped *SkippedInfo
	err     *ErrorInfo
}

// LoadFileJobs reads and decodes paths concurrently and builds one FileOrigin
// job per file, in path order. Unreadable files are I/O faults returned as
// data; binary files and clean cache hits are skipped.
func LoadFileJobs(ctx context.Context, paths []string, opts LoadOptions) (LoadResult, error) {
	if opts.FormatOptions == nil {
		return LoadResult{}, fmt.Errorf("%w: FormatOptions cannot be nil", ErrConfigValidation)
	}
	if opts.FileSink == nil {
		opts.FileSink = &OSFileSink{}
	}
	if opts.EncodingHandler == nil {
		opts.EncodingHandler = encoding.NewCharsetEncodingHandler(DefaultEncoding)
	}
	if opts.CacheManager == nil {
		opts.CacheManager = &NoOpCacheManager{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.NewTextHandler(io.Discard, nil)
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultMaxWorkers
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "loader"))
	fingerprint := opts.FormatOptions.Fingerprint()

	slots := make([]loadSlot, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(limit, max(len(paths), 1)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = loadOne(path, fingerprint, opts, logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return LoadResult{}, err
	}

	var result LoadResult
	for i, slot := range slots {
		switch {
		case slot.err != nil:
			result.Errors = append(result.Errors, *slot.err)
		case slot.skipped != nil:
			result.Skipped = append(result.Skipped, *slot.skipped)
		case slot.job != nil:
			slot.job.Seq = i
			result.Jobs = append(result.Jobs, slot.job)
		}
	}
	logger.Debug("Loaded file jobs", slog.Int("jobs", len(result.Jobs)), slog.Int("skipped", len(result.Skipped)), slog.Int("errors", len(result.Errors)))
	return result, nil
}

func loadOne(path, fingerprint string, opts LoadOptions, logger *slog.Logger) loadSlot {
	content, err := opts.FileSink.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to read file", slog.String("path", path), slog.Any("error", err))
		return loadSlot{err: &ErrorInfo{Path: path, Error: fmt.Errorf("%w: %w", ErrReadFailed, err).Error()}}
	}
	if opts.EncodingHandler.IsBinary(content) {
		return loadSlot{skipped: &SkippedInfo{Path: path, Reason: SkipReasonBinary, Details: ErrBinaryFile.Error()}}
	}
	text, resolved, err := opts.EncodingHandler.Decode(content, opts.Encoding)
	if err != nil {
		logger.Warn("Failed to decode file", slog.String("path", path), slog.Any("error", err))
		return loadSlot{err: &ErrorInfo{Path: path, Error: fmt.Errorf("%w: %w", ErrReadFailed, err).Error()}}
	}
	if !opts.IgnoreCacheRead && opts.CacheManager.Check(path, ContentHash(text), fingerprint) {
		return loadSlot{skipped: &SkippedInfo{Path: path, Reason: SkipReasonCached}}
	}
	job, err := NewJob(0, text, FileOrigin{Path: path, Encoding: resolved}, opts.FormatOptions)
	if err != nil {
		return loadSlot{err: &ErrorInfo{Path: path, Error: err.Error(), IsFatal: true}}
	}
	return loadSlot{job: job}
}

// NewRegionJobs builds one BufferOrigin job per region of buf. An empty
// region list means the whole buffer.
func NewRegionJobs(buf BufferSink, name string, regions []Region, opts *FormatOptions, autoSave bool) ([]*Job, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: buffer cannot be nil", ErrConfigValidation)
	}
	text := buf.Text()
	if len(regions) == 0 {
		regions = []Region{{Start: 0, End: len(text)}}
	}
	if err := checkOverlap(name, regions); err != nil {
		return nil, err
	}
	jobs := make([]*Job, 0, len(regions))
	for i, region := range regions {
		if region.Start < 0 || region.End > len(text) || region.Start > region.End {
			return nil, fmt.Errorf("%w: region %s out of bounds for %q (%d bytes)", ErrConfigValidation, region, name, len(text))
		}
		origin := BufferOrigin{Buffer: buf, Name: name, Region: region, AutoSave: autoSave}
		job, err := NewJob(i, text[region.Start:region.End], origin, opts)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// checkOverlap rejects regions that share bytes; edits of one would move the other.
func checkOverlap(name string, regions []Region) error {
	sorted := slices.Clone(regions)
	slices.SortFunc(sorted, func(a, b Region) int { return cmp.Compare(a.Start, b.Start) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Start < sorted[i-1].End {
			return fmt.Errorf("%w: regions %s and %s of %q overlap", ErrConfigValidation, sorted[i-1], sorted[i], name)
		}
	}
	return nil
}

// --- END OF FINAL REVISED FILE pkg/formatter/jobs.go ---
