package cache

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/xsdgraph/schema"
)

const (
	defaultDebounce    = 500 * time.Millisecond
	eventChannelBuffer = 64
)

// WatchConfig configures filesystem invalidation.
type WatchConfig struct {
	// DebounceDelay batches rapid-fire events (editors often write a
	// file several times in a row) into one invalidation. Zero picks a
	// sensible default.
	DebounceDelay time.Duration

	// Extensions limits invalidation to files with the given suffixes,
	// e.g. ".xsd". Empty means every file counts.
	Extensions []string

	// Exclude skips paths matching these doublestar patterns, applied
	// to the path relative to the watched root ("**/node_modules/**").
	Exclude []string
}

func (c WatchConfig) debounce() time.Duration {
	if c.DebounceDelay <= 0 {
		return defaultDebounce
	}
	return c.DebounceDelay
}

// Invalidation reports one cache invalidation triggered by a
// filesystem event.
type Invalidation struct {
	Path    string
	ID      schema.SourceID
	Op      fsnotify.Op
	Evicted bool // whether the cache actually held the entry
}

// Watcher invalidates cache entries when the files behind them change
// on disk. Events are debounced so an editor save storm costs one
// re-parse, not ten.
type Watcher struct {
	cache  *Cache
	fw     *fsnotify.Watcher
	cfg    WatchConfig
	logger *slog.Logger

	mu      sync.Mutex
	roots   []string
	pending map[string]fsnotify.Op

	events chan Invalidation
}

// NewWatcher builds a watcher bound to a cache. Call Watch to register
// directories and Start to begin processing events.
func NewWatcher(c *Cache, cfg WatchConfig, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Watcher{
		cache:   c,
		fw:      fw,
		cfg:     cfg,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan Invalidation, eventChannelBuffer),
	}, nil
}

// Events returns the stream of performed invalidations. The channel is
// closed when the watcher stops. Consumers that fall behind lose
// events; the cache itself is always invalidated first.
func (w *Watcher) Events() <-chan Invalidation {
	return w.events
}

// Watch registers root and all of its subdirectories. Hidden and
// excluded directories are skipped.
func (w *Watcher) Watch(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.roots = append(w.roots, abs)
	w.mu.Unlock()

	return filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if path != abs && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}

		if err := w.fw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		} else {
			w.logger.Debug("watching directory", slog.String("path", path))
		}
		return nil
	})
}

// Start begins processing filesystem events until ctx is done or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) {
	go w.processEvents(ctx)
	w.logger.Info("schema watcher started",
		slog.Duration("debounce", w.cfg.debounce()),
		slog.Any("extensions", w.cfg.Extensions))
}

// Stop closes the underlying watcher. The events channel closes once
// the processing goroutine drains.
func (w *Watcher) Stop() error {
	return w.fw.Close()
}

// processEvents batches raw events and flushes them each debounce tick.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.cfg.debounce())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	// New directories need their own watch before events inside them
	// can be seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.excluded(event.Name) {
				if err := w.fw.Add(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory",
						slog.String("path", event.Name),
						slog.String("error", err.Error()))
				}
			}
			return
		}
	}

	if !w.tracks(event.Name) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] |= event.Op
	w.mu.Unlock()
}

// flushPending invalidates the cache for every batched path.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	for path, op := range batch {
		id, err := schema.FileID(path)
		if err != nil {
			continue
		}
		evicted := w.cache.Invalidate(id)
		w.logger.Debug("schema file changed",
			slog.String("path", path),
			slog.String("op", op.String()),
			slog.Bool("evicted", evicted))

		select {
		case w.events <- Invalidation{Path: path, ID: id, Op: op, Evicted: evicted}:
		default:
			// Slow consumer; the cache is already invalidated.
		}
	}
}

// tracks reports whether a path is interesting: right extension and
// not excluded.
func (w *Watcher) tracks(path string) bool {
	if w.excluded(path) {
		return false
	}
	if len(w.cfg.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range w.cfg.Extensions {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// excluded matches path against the configured patterns, relative to
// the nearest watched root.
func (w *Watcher) excluded(path string) bool {
	if len(w.cfg.Exclude) == 0 {
		return false
	}

	w.mu.Lock()
	roots := w.roots
	w.mu.Unlock()

	rel := path
	for _, root := range roots {
		if r, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(r, "..") {
			rel = r
			break
		}
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range w.cfg.Exclude {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
