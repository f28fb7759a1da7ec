// Package watcher ingests documents dropped into an inbox directory.
// Files that process successfully move to a processed/ subdirectory,
// failures move to failed/, so the inbox itself never accumulates
// personal data.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/klartext/redakt/extract"
	"github.com/klartext/redakt/ingestion"
)

const defaultDebounce = 400 * time.Millisecond

// Subdirectories of the inbox that hold finished files.
const (
	processedDirName = "processed"
	failedDirName    = "failed"
)

// Ingestor processes one dropped file. *ingestion.Pipeline satisfies it.
type Ingestor interface {
	Ingest(ctx context.Context, filename string, content []byte) (*ingestion.Receipt, error)
}

// Watcher watches an inbox directory and feeds dropped files into the
// ingestion pipeline.
type Watcher struct {
	inbox    string
	ingestor Ingestor
	debounce time.Duration
	logger   *slog.Logger

	watcher     *fsnotify.Watcher
	mu          sync.Mutex
	debounceMap map[string]*time.Timer
	done        chan struct{}
	started     bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must stay quiet before it is
// picked up. Editors and copies often write in bursts.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger == nil {
			logger = slog.Default()
		}
		w.logger = logger
	}
}

// NewWatcher creates a watcher over the inbox directory.
func NewWatcher(inbox string, ingestor Ingestor, opts ...Option) *Watcher {
	w := &Watcher{
		inbox:       inbox,
		ingestor:    ingestor,
		debounce:    defaultDebounce,
		logger:      slog.Default().With("component", "watcher"),
		debounceMap: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start creates the inbox layout, processes files already present and
// then watches for new ones until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	for _, dir := range []string{w.inbox, w.processedDir(), w.failedDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			w.mu.Unlock()
			return fmt.Errorf("create inbox directory: %w", err)
		}
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := watcher.Add(w.inbox); err != nil {
		_ = watcher.Close()
		w.mu.Unlock()
		return fmt.Errorf("watch inbox: %w", err)
	}
	w.watcher = watcher
	// A fresh channel per run so the watcher can be started again
	// after Stop.
	w.done = make(chan struct{})
	done := w.done
	w.started = true
	w.mu.Unlock()

	w.logger.Info("watching inbox", "dir", w.inbox)
	w.syncExisting(ctx)
	go w.run(ctx, watcher, done)
	return nil
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Warn("watch error", "error", err)
			}
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		info, err := os.Stat(ev.Name)
		if err != nil || info.IsDir() {
			return
		}
		if !Eligible(ev.Name) {
			return
		}
		w.debounceProcess(ctx, ev.Name)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancelDebounce(ev.Name)
	}
}

// Eligible reports whether a dropped file would be picked up: a
// supported document type that is not hidden.
func Eligible(path string) bool {
	base := filepath.Base(path)
	if base == "" || base[0] == '.' {
		return false
	}
	return extract.Supported(extract.NormalizeFileType(base))
}

func (w *Watcher) debounceProcess(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()
		w.processFile(ctx, path)
	})
}

func (w *Watcher) cancelDebounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.debounceMap[path]; ok {
		t.Stop()
		delete(w.debounceMap, path)
	}
}

// processFile ingests one file and moves it out of the inbox.
func (w *Watcher) processFile(ctx context.Context, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("read dropped file failed", "path", path, "error", err)
		return
	}

	receipt, err := w.ingestor.Ingest(ctx, filepath.Base(path), content)
	if err != nil {
		w.logger.Error("ingestion of dropped file failed", "path", path, "error", err)
		w.moveTo(path, w.failedDir())
		return
	}

	w.logger.Info("dropped file ingested",
		"path", path, "document", receipt.DocumentID, "chunks", receipt.ChunkCount)
	w.moveTo(path, w.processedDir())
}

// moveTo relocates a finished file, renaming on collision so nothing
// is overwritten.
func (w *Watcher) moveTo(path, dir string) {
	dest := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		stamp := time.Now().UTC().Format("20060102T150405.000000000")
		dest = filepath.Join(dir, stamp+"_"+filepath.Base(path))
	}
	if err := os.Rename(path, dest); err != nil {
		w.logger.Warn("move finished file failed", "path", path, "dest", dest, "error", err)
	}
}

// syncExisting processes files that were already in the inbox when the
// watcher started.
func (w *Watcher) syncExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.inbox)
	if err != nil {
		w.logger.Warn("list inbox failed", "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.inbox, entry.Name())
		if Eligible(path) {
			w.processFile(ctx, path)
		}
	}
}

func (w *Watcher) processedDir() string { return filepath.Join(w.inbox, processedDirName) }
func (w *Watcher) failedDir() string    { return filepath.Join(w.inbox, failedDirName) }

// Stop stops the watcher and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.watcher == nil {
		w.mu.Unlock()
		return
	}
	for path, t := range w.debounceMap {
		t.Stop()
		delete(w.debounceMap, path)
	}
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	close(w.done)
	w.done = nil
	w.mu.Unlock()
}
