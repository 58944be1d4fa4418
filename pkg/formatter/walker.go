// --- START OF FINAL REVISED FILE pkg/formatter/walker.go ---
package formatter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/stackvity/stack-formatter/pkg/util"
)

// IgnoreFileName is looked up from each root towards the filesystem root.
const IgnoreFileName = ".stackformatterignore"

// LanguageGate decides whether a file is in a formattable language.
type LanguageGate interface {
	Allows(content []byte, filePath string) (bool, string)
}

// DiscoverOptions configures Discover.
type DiscoverOptions struct {
	// Exclude holds gitignore-style patterns relative to each root.
	Exclude []string
	// Gate filters by language; nil admits every file.
	Gate LanguageGate
	// GitDiffMode other than none restricts results to GitChangedFiles.
	GitDiffMode GitDiffMode
	// GitChangedFiles holds absolute, cleaned paths.
	GitChangedFiles map[string]struct{}
	// SkipIgnoreFile disables the IgnoreFileName lookup.
	SkipIgnoreFile bool
	Logger         slog.Handler
}

// DiscoverResult lists candidate files and the ones filtered out.
type DiscoverResult struct {
	Files   []string
	Skipped []SkippedInfo
}

// Discover walks roots and returns absolute paths of files to format, sorted
// and without duplicates. Explicit file roots bypass exclude patterns but not
// the language gate or the git filter. Symbolic links and .git directories are
// never followed.
func Discover(ctx context.Context, roots []string, opts DiscoverOptions) (DiscoverResult, error) {
	if opts.Logger == nil {
		opts.Logger = slog.NewTextHandler(io.Discard, nil)
	}
	logger := slog.New(opts.Logger).With(slog.String("component", "walker"))
	gitActive := opts.GitDiffMode == GitDiffModeDiffOnly || opts.GitDiffMode == GitDiffModeSince
	if gitActive && opts.GitChangedFiles == nil {
		logger.Warn("Git diff mode active but no changed files provided", slog.String("mode", string(opts.GitDiffMode)))
	}

	seen := make(map[string]struct{})
	var result DiscoverResult
	accept := func(absPath string) {
		if _, dup := seen[absPath]; dup {
			return
		}
		seen[absPath] = struct{}{}
		if gitActive {
			if _, changed := opts.GitChangedFiles[absPath]; !changed {
				result.Skipped = append(result.Skipped, SkippedInfo{Path: absPath, Reason: SkipReasonGitExclude, Details: string(opts.GitDiffMode)})
				return
			}
		}
		if opts.Gate != nil {
			if ok, lang := opts.Gate.Allows(nil, absPath); !ok {
				logger.Debug("Language not selected", slog.String("path", absPath), slog.String("language", lang))
				result.Skipped = append(result.Skipped, SkippedInfo{Path: absPath, Reason: SkipReasonLanguage, Details: lang})
				return
			}
		}
		result.Files = append(result.Files, absPath)
	}

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return DiscoverResult{}, fmt.Errorf("could not get absolute path for %q: %w", root, err)
		}
		info, err := os.Stat(absRoot)
		if err != nil {
			return DiscoverResult{}, fmt.Errorf("%w: %w", ErrReadFailed, err)
		}
		if !info.IsDir() {
			accept(absRoot)
			continue
		}

		matcher, err := newExcludeMatcher(absRoot, opts.Exclude, !opts.SkipIgnoreFile, logger)
		if err != nil {
			return DiscoverResult{}, err
		}
		logger.Info("Starting directory walk", slog.String("path", absRoot), slog.Int("patterns", matcher.Len()))
		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				logger.Warn("Error accessing path during walk", slog.String("path", path), slog.Any("error", err))
				if path == absRoot {
					return err
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if d.Type()&fs.ModeSymlink != 0 {
				return nil
			}
			if d.IsDir() && d.Name() == ".git" {
				return filepath.SkipDir
			}
			rel, err := filepath.Rel(absRoot, path)
			if err != nil || rel == "." {
				return nil
			}
			if excluded, rule := matcher.Match(rel, d.IsDir()); excluded {
				logger.Debug("Path excluded", slog.String("path", rel), slog.String("pattern", rule))
				if d.IsDir() {
					return filepath.SkipDir
				}
				result.Skipped = append(result.Skipped, SkippedInfo{Path: path, Reason: SkipReasonExcluded, Details: rule})
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}
			accept(path)
			return nil
		})
		if walkErr != nil {
			if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
				return DiscoverResult{}, walkErr
			}
			return DiscoverResult{}, fmt.Errorf("directory walk failed: %w", walkErr)
		}
	}

	slices.Sort(result.Files)
	logger.Debug("Discovery complete", slog.Int("files", len(result.Files)), slog.Int("skipped", len(result.Skipped)))
	return result, nil
}

// HasFormattableFiles reports whether root holds a file admitted by gate at
// most depth directory levels down (files directly in root are level 1).
func HasFormattableFiles(root string, depth int, gate LanguageGate) bool {
	if depth <= 0 {
		depth = DefaultSearchDepth
	}
	found := false
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		level := strings.Count(filepath.ToSlash(rel), "/") + 1
		if d.IsDir() {
			if level >= depth || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if gate == nil {
			found = true
		} else {
			found, _ = gate.Allows(nil, path)
		}
		if found {
			return filepath.SkipAll
		}
		return nil
	})
	return found
}

// newExcludeMatcher combines the nearest ignore file with configured patterns.
func newExcludeMatcher(absRoot string, exclude []string, useIgnoreFile bool, logger *slog.Logger) (*util.PatternSet, error) {
	set := util.NewPatternSet(nil)
	if useIgnoreFile {
		ignoreFilePath, err := findIgnoreFile(absRoot)
		if err != nil {
			logger.Warn("Error searching for ignore file", slog.Any("error", err))
		}
		if ignoreFilePath != "" {
			patterns, err := util.LoadPatternFile(ignoreFilePath)
			if err != nil {
				return nil, fmt.Errorf("failed to load ignore file %s: %w", ignoreFilePath, err)
			}
			anchor, err := filepath.Rel(absRoot, filepath.Dir(ignoreFilePath))
			if err != nil || strings.HasPrefix(anchor, "..") {
				anchor = ""
			}
			set.Add(patterns, anchor)
			logger.Debug("Loaded patterns from ignore file", slog.String("path", ignoreFilePath), slog.Int("count", len(patterns)))
		}
	}
	set.Add(exclude, "")
	return set, nil
}

// findIgnoreFile walks up from absStartPath looking for IgnoreFileName.
func findIgnoreFile(absStartPath string) (string, error) { // Minimal comment
	currentPath := absStartPath
	for {
		potentialPath := filepath.Join(currentPath, IgnoreFileName)
		if _, err := os.Stat(potentialPath); err == nil {
			return potentialPath, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("error checking for ignore file at %s: %w", potentialPath, err)
		}
		parent := filepath.Dir(currentPath)
		if parent == currentPath || parent == "" {
			break
		}
		currentPath = parent
	}
	return "", nil
}

// --- END OF FINAL REVISED FILE pkg/formatter/walker.go ---
