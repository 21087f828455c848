package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/storeadvisor/internal/ingest"
	"github.com/usestring/storeadvisor/pkg/analyzer"
)

type recordingProcessor struct {
	mu    sync.Mutex
	calls map[string]int
}

func (p *recordingProcessor) ProcessFile(_ context.Context, path string) (*ingest.Report, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	p.calls[filepath.Base(path)]++
	return &ingest.Report{Filename: filepath.Base(path), Result: &analyzer.Result{Database: analyzer.Relational}}, nil
}

func (p *recordingProcessor) count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[name]
}

func startWatcher(t *testing.T, w *Watcher) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("watcher stopped early: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("watcher not ready")
	}
	return cancel, done
}

func TestWatcher_DebouncesJSONFiles(t *testing.T) {
	dir := t.TempDir()
	proc := &recordingProcessor{}

	results := make(chan string, 8)
	w := New(dir, 50*time.Millisecond, proc)
	w.OnResult = func(path string, _ *ingest.Report, _ error) { results <- filepath.Base(path) }

	cancel, done := startWatcher(t, w)

	path := filepath.Join(dir, "people.json")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`[{"id": 1}]`), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case name := <-results:
		assert.Equal(t, "people.json", name)
	case <-time.After(5 * time.Second):
		t.Fatal("file was not processed")
	}

	// Give a stray second timer a chance to fire before counting.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, 1, proc.count("people.json"))
	assert.Zero(t, proc.count("notes.txt"))

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_ProcessExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.JSON"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.csv"), []byte(`a,b`), 0o644))

	proc := &recordingProcessor{}
	results := make(chan string, 4)
	w := New(dir, 10*time.Millisecond, proc)
	w.ProcessExisting = true
	w.OnResult = func(path string, _ *ingest.Report, _ error) { results <- filepath.Base(path) }

	cancel, done := startWatcher(t, w)
	defer func() {
		cancel()
		<-done
	}()

	select {
	case name := <-results:
		assert.Equal(t, "old.JSON", name)
	case <-time.After(5 * time.Second):
		t.Fatal("existing file was not processed")
	}
	assert.Zero(t, proc.count("skip.csv"))
}

func TestIsJSON(t *testing.T) {
	assert.True(t, isJSON("a.json"))
	assert.True(t, isJSON("/x/B.JSON"))
	assert.False(t, isJSON("a.json.tmp"))
	assert.False(t, isJSON("json"))
}
