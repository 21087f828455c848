// Package watch processes JSON files dropped into an inbox directory.
package watch

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

	"github.com/usestring/storeadvisor/internal/ingest"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 500 * time.Millisecond

// Processor handles one settled file.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*ingest.Report, error)
}

// ResultFunc is called after each processed file.
type ResultFunc func(path string, rep *ingest.Report, err error)

// Watcher runs files through a Processor once they stop changing.
type Watcher struct {
	dir      string
	debounce time.Duration
	proc     Processor

	// OnResult, when set, receives every outcome.
	OnResult ResultFunc
	// ProcessExisting processes .json files already in the directory when
	// Run starts.
	ProcessExisting bool

	ready chan struct{}
}

// New returns a Watcher for dir. debounce <= 0 selects DefaultDebounce.
func New(dir string, debounce time.Duration, proc Processor) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{dir: dir, debounce: debounce, proc: proc, ready: make(chan struct{})}
}

// Ready is closed once the directory is being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled. Pending files are dropped on
// cancellation; files already being processed finish first.
func (w *Watcher) Run(ctx context.Context) error {
	dir, err := filepath.Abs(w.dir)
	if err != nil {
		return fmt.Errorf("resolve inbox %q: %w", w.dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create inbox %q: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %q: %w", dir, err)
	}
	slog.Info("watching inbox", slog.String("dir", dir), slog.Duration("debounce", w.debounce))
	close(w.ready)

	var (
		mu       sync.Mutex
		timers   = make(map[string]*time.Timer)
		stopped  bool
		inflight sync.WaitGroup
	)
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Stop()
		}
		timers[path] = time.AfterFunc(w.debounce, func() {
			mu.Lock()
			delete(timers, path)
			if stopped || ctx.Err() != nil {
				mu.Unlock()
				return
			}
			inflight.Add(1)
			mu.Unlock()
			defer inflight.Done()
			w.process(ctx, path)
		})
	}

	if w.ProcessExisting {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read inbox %q: %w", dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() && isJSON(e.Name()) {
				schedule(filepath.Join(dir, e.Name()))
			}
		}
	}

	defer func() {
		mu.Lock()
		stopped = true
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
		inflight.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isJSON(event.Name) {
				continue
			}
			schedule(event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("inbox watcher error", slog.String("error", err.Error()))
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// removed or renamed before it settled
		return
	}

	rep, err := w.proc.ProcessFile(ctx, path)
	if err != nil {
		slog.Warn("inbox file failed", slog.String("path", path), slog.String("error", err.Error()))
	} else {
		slog.Info("inbox file processed",
			slog.String("path", path),
			slog.String("database", string(rep.Result.Database)),
			slog.Int64("stored", rep.Stored),
		)
	}
	if w.OnResult != nil {
		w.OnResult(path, rep, err)
	}
}

func isJSON(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
