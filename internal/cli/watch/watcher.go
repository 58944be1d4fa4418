// Package watch implements format-on-save: file events are debounced into
// batches and handed to a trigger, and files written by the formatter itself
// are ignored once.
package watch

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
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/stackvity/stack-formatter/pkg/formatter"
)

// ErrWatcherFailed indicates the filesystem watcher could not be set up.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// minSelfWriteTTL bounds how long a skip mark waits for its event.
const minSelfWriteTTL = 2 * time.Second

// Batch is one debounced set of changed files.
type Batch struct {
	ID    uuid.UUID
	Paths []string
}

// TriggerFunc formats a batch. It runs on the watcher goroutine; events
// arriving meanwhile are queued by fsnotify.
type TriggerFunc func(ctx context.Context, batch Batch) error

// Options configures a Watcher.
type Options struct {
	Roots    []string
	Debounce time.Duration // 0 = formatter.DefaultWatchDebounceDuration
	// Filter admits file paths; nil admits everything not hidden.
	Filter  func(path string) bool
	Metrics *Metrics // Optional
	Logger  slog.Handler
}

// Watcher turns fsnotify events into debounced batches.
type Watcher struct {
	fs      *fsnotify.Watcher
	opts    Options
	logger  *slog.Logger
	selfTTL time.Duration

	pending map[string]struct{}

	mu sync.Mutex
	// selfWrites maps paths written by the formatter to the time of the write.
	selfWrites map[string]time.Time
	now        func() time.Time
}

// New creates a watcher over opts.Roots. Directories are watched recursively,
// skipping .git.
func New(opts Options) (*Watcher, error) {
	if len(opts.Roots) == 0 {
		return nil, fmt.Errorf("%w: no paths to watch", formatter.ErrConfigValidation)
	}
	if opts.Debounce < 0 {
		return nil, fmt.Errorf("%w: debounce must be >= 0, got %s", formatter.ErrConfigValidation, opts.Debounce)
	}
	if opts.Debounce == 0 {
		opts.Debounce = formatter.DefaultWatchDebounceDuration
	}
	if opts.Filter == nil {
		opts.Filter = notHidden
	}
	if opts.Logger == nil {
		opts.Logger = slog.NewTextHandler(io.Discard, nil)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatcherFailed, err)
	}
	w := &Watcher{
		fs:         fsw,
		opts:       opts,
		logger:     slog.New(opts.Logger).With(slog.String("component", "watch")),
		selfTTL:    max(4*opts.Debounce, minSelfWriteTTL),
		pending:    make(map[string]struct{}),
		selfWrites: make(map[string]time.Time),
		now:        time.Now,
	}
	for _, root := range opts.Roots {
		if err := w.addTree(root); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	return w, nil
}

// MarkSelfWrite records that the formatter wrote path; the next event batch
// containing it drops it. Safe to call from any goroutine.
func (w *Watcher) MarkSelfWrite(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selfWrites[filepath.Clean(abs)] = w.now()
}

// OnApplied adapts MarkSelfWrite to formatter.Options.OnApplied.
func (w *Watcher) OnApplied(origin formatter.Origin, _ string) {
	switch o := origin.(type) {
	case formatter.FileOrigin:
		w.MarkSelfWrite(o.Path)
	case formatter.BufferOrigin:
		if o.AutoSave {
			w.MarkSelfWrite(o.Name)
		}
	}
}

// Run processes events until ctx is cancelled, calling trigger once per
// debounced batch. Trigger errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, trigger TriggerFunc) error {
	defer w.fs.Close()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	w.logger.Info("Watching for changes", slog.Any("roots", w.opts.Roots), slog.Duration("debounce", w.opts.Debounce))
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.collect(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			timerC = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", slog.Any("error", err))

		case <-timerC:
			timerC = nil
			batch, ok := w.flush()
			if !ok {
				continue
			}
			log := w.logger.With(slog.String("batch", batch.ID.String()))
			log.Info("Formatting changed files", slog.Int("files", len(batch.Paths)))
			if err := trigger(ctx, batch); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error("Batch failed", slog.Any("error", err))
			}
		}
	}
}

// collect records event and reports whether it added a pending path.
func (w *Watcher) collect(event fsnotify.Event) bool {
	path := filepath.Clean(event.Name)
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(w.pending, path)
		return false
	case !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create):
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := w.addTree(path); err != nil {
				w.logger.Warn("Failed to watch new directory", slog.String("path", path), slog.Any("error", err))
			}
		}
		return false
	}
	if !w.opts.Filter(path) {
		return false
	}
	w.pending[path] = struct{}{}
	return true
}

// flush drains pending paths minus fresh self-writes.
func (w *Watcher) flush() (Batch, bool) {
	now := w.now()
	paths := make([]string, 0, len(w.pending))

	w.mu.Lock()
	for path := range w.pending {
		if at, ok := w.selfWrites[path]; ok {
			delete(w.selfWrites, path)
			if now.Sub(at) <= w.selfTTL {
				w.logger.Debug("Ignoring change written by formatter", slog.String("path", path))
				if w.opts.Metrics != nil {
					w.opts.Metrics.observeSelfWrite()
				}
				continue
			}
		}
		paths = append(paths, path)
	}
	for path, at := range w.selfWrites {
		if now.Sub(at) > w.selfTTL {
			delete(w.selfWrites, path)
		}
	}
	w.mu.Unlock()

	clear(w.pending)
	if len(paths) == 0 {
		return Batch{}, false
	}
	slices.Sort(paths)
	if w.opts.Metrics != nil {
		w.opts.Metrics.observeBatch(len(paths))
	}
	return Batch{ID: uuid.New(), Paths: paths}, true
}

// addTree watches root and, when it is a directory, all directories below it.
func (w *Watcher) addTree(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWatcherFailed, root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWatcherFailed, root, err)
	}
	if !info.IsDir() {
		// fsnotify watches directories; events for siblings go through Filter
		if err := w.fs.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWatcherFailed, root, err)
		}
		return nil
	}
	return filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Debug("Skipping unreadable path", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrWatcherFailed, path, err)
		}
		return nil
	})
}

// notHidden rejects dot files, which include the temp files of atomic writes.
func notHidden(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}
