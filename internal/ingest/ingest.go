// Package ingest watches a data directory and loads files into the
// analytical engine so they are queryable by name. A dropped customers.csv
// becomes a customers table without any cell having to load it.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/quarrylabs/quarry/internal/refparse"
)

// DefaultDebounce is the quiet window after a file event before the file is
// loaded. Editors and downloads touch files several times in quick
// succession.
const DefaultDebounce = 100 * time.Millisecond

// Loader loads files into tables. Satisfied by the analytical adapter.
type Loader interface {
	LoadCSV(ctx context.Context, table, path string) error
	LoadParquet(ctx context.Context, table, path string) error
	LoadJSON(ctx context.Context, table, path string) error
}

// Watcher ingests data files from a directory, once on start and again on
// every change.
type Watcher struct {
	dir      string
	loader   Loader
	logger   *slog.Logger
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher creates a watcher over dir.
func NewWatcher(dir string, loader Loader, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		loader:   loader,
		logger:   logger,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
	}
}

// TableName derives the table a data file loads into: the base name without
// its extension, normalized into a valid relation name.
func TableName(path string) string {
	base := filepath.Base(path)
	return refparse.RelationName(strings.TrimSuffix(base, filepath.Ext(base)))
}

// loadable maps a file extension to the loader method for it.
func (w *Watcher) loadFunc(path string) func(context.Context, string, string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return w.loader.LoadCSV
	case ".parquet":
		return w.loader.LoadParquet
	case ".json":
		return w.loader.LoadJSON
	default:
		return nil
	}
}

// LoadDir loads every recognized file already in the directory. Files that
// fail to load are logged and skipped.
func (w *Watcher) LoadDir(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("failed to read data directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.loadFunc(path) == nil {
			continue
		}
		w.load(ctx, path)
	}
	return nil
}

func (w *Watcher) load(ctx context.Context, path string) {
	fn := w.loadFunc(path)
	if fn == nil {
		return
	}

	table := TableName(path)
	if err := fn(ctx, table, path); err != nil {
		w.logger.Warn("failed to load data file", "path", path, "table", table, "error", err)
		return
	}
	w.logger.Info("loaded data file", "path", path, "table", table)
}

// Run loads the directory, then watches it until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.LoadDir(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch data directory: %w", err)
	}

	w.logger.Info("watching data directory", "dir", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if w.loadFunc(event.Name) == nil {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// schedule debounces loads per path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.load(ctx, path)
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
