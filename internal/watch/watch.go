// Package watch imports session exports as they appear in a directory.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/verte-zerg/potlog/internal/importer"
	"github.com/verte-zerg/potlog/internal/model"
)

const (
	defaultDebounce = 500 * time.Millisecond
	exportExt       = ".txt"
	queueSize       = 64
)

// Importer stores a batch of candidates.
type Importer interface {
	Import(ctx context.Context, source string, candidates []model.Candidate) (importer.Result, error)
}

// Loader reads the candidates of one file.
type Loader func(path string) ([]model.Candidate, error)

// Options configure a Watcher.
type Options struct {
	Dir      string
	Debounce time.Duration
	// ScanExisting queues exports already in Dir on start. Re-importing a
	// file only yields duplicates.
	ScanExisting bool
	Load         Loader
	Importer     Importer
	Logf         func(format string, args ...any)
}

// Event reports the outcome of importing one file.
type Event struct {
	Path   string
	Result importer.Result
	Err    error
}

// Watcher debounces file events and imports each settled export on a
// single background worker.
type Watcher struct {
	opts    Options
	watcher *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]time.Time

	jobs    chan string
	results chan Event

	cancel context.CancelFunc
	wg     sync.WaitGroup
	worker sync.WaitGroup
}

// New creates a watcher for opts.Dir, creating the directory if needed.
func New(opts Options) (*Watcher, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("watch directory is empty")
	}
	if opts.Load == nil || opts.Importer == nil {
		return nil, fmt.Errorf("watch needs a loader and an importer")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		opts:    opts,
		watcher: fsw,
		pending: map[string]time.Time{},
		jobs:    make(chan string, queueSize),
		results: make(chan Event),
	}, nil
}

// Results delivers import outcomes. It is closed after Stop.
func (w *Watcher) Results() <-chan Event {
	return w.results
}

// Start begins watching. Cancelling ctx has the same effect as Stop.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.opts.Dir, err)
	}
	ctx, w.cancel = context.WithCancel(ctx)
	if w.opts.ScanExisting {
		if err := w.queueExisting(); err != nil {
			w.cancel()
			return err
		}
	}
	w.wg.Add(2)
	go w.eventLoop(ctx)
	go w.debounceLoop(ctx)
	w.worker.Add(1)
	go w.runWorker(ctx)
	return nil
}

// Stop stops watching and waits for the worker to finish its current file.
// It must be called exactly once after Start.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	close(w.jobs)
	w.worker.Wait()
	close(w.results)
	return w.watcher.Close()
}

func (w *Watcher) queueExisting() error {
	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isExport(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	now := time.Now()
	w.mu.Lock()
	for _, name := range names {
		w.pending[filepath.Join(w.opts.Dir, name)] = now
	}
	w.mu.Unlock()
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logError(err)
		}
	}
}

func (w *Watcher) logError(err error) {
	w.opts.Logf("watcher error: %v\n", err)
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isExport(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.opts.Debounce / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, path := range w.settled(time.Now()) {
				select {
				case w.jobs <- path:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// settled removes and returns the paths that saw no event for a full
// debounce period.
func (w *Watcher) settled(now time.Time) []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var ready []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	sort.Strings(ready)
	return ready
}

func (w *Watcher) runWorker(ctx context.Context) {
	defer w.worker.Done()
	for path := range w.jobs {
		if ctx.Err() != nil {
			continue
		}
		ev := w.importFile(ctx, path)
		select {
		case w.results <- ev:
		case <-ctx.Done():
		}
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) Event {
	ev := Event{Path: path}
	candidates, err := w.opts.Load(path)
	if err != nil {
		ev.Err = fmt.Errorf("read %s: %w", filepath.Base(path), err)
		return ev
	}
	ev.Result, ev.Err = w.opts.Importer.Import(ctx, filepath.Base(path), candidates)
	return ev
}

func isExport(name string) bool {
	base := filepath.Base(name)
	return strings.EqualFold(filepath.Ext(base), exportExt) && !strings.HasPrefix(base, ".")
}
