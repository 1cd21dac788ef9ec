package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileWatcher:
// - NewFileWatcher succeeds with existing directories and fails otherwise
// - A single document change fires the callback after the debounce
// - Rapid changes to several documents are batched and deduplicated
// - Only .yml/.yaml changes are reported
// - Deleted documents are reported
// - Directories created after start are watched
// - Stop() is quick and idempotent; cancelling the context stops the loop

var yamlExtensions = []string{".yml", ".yaml"}

func newTestWatcher(t *testing.T, dir string) FileWatcher {
	t.Helper()
	w, err := NewFileWatcher([]string{dir}, yamlExtensions,
		WithDebounce(100*time.Millisecond), WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

// collector records callback batches.
type collector struct {
	mu      sync.Mutex
	batches [][]string
	calls   chan struct{}
}

func newCollector() *collector {
	return &collector{calls: make(chan struct{}, 10)}
}

func (c *collector) callback(files []string) {
	c.mu.Lock()
	c.batches = append(c.batches, files)
	c.mu.Unlock()
	c.calls <- struct{}{}
}

func (c *collector) wait(t *testing.T) {
	t.Helper()
	select {
	case <-c.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("Callback not called after timeout")
	}
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var files []string
	for _, b := range c.batches {
		files = append(files, b...)
	}
	return files
}

func TestNewFileWatcher_Success(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher([]string{t.TempDir()}, yamlExtensions)
	require.NoError(t, err)
	require.NotNil(t, w)
	require.NoError(t, w.Stop())
}

func TestNewFileWatcher_InvalidDirectory(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher([]string{filepath.Join(t.TempDir(), "nonexistent")}, yamlExtensions)
	assert.Error(t, err)
	assert.Nil(t, w)
}

func TestFileWatcher_SingleFileChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	c := newCollector()
	require.NoError(t, w.Start(context.Background(), c.callback))
	time.Sleep(100 * time.Millisecond)

	doc := filepath.Join(dir, "jobs_a000.yml")
	require.NoError(t, os.WriteFile(doc, []byte("JOBS: {}\n"), 0644))

	c.wait(t)
	assert.Equal(t, []string{doc}, c.all())
}

func TestFileWatcher_BatchesAndDeduplicates(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	c := newCollector()
	require.NoError(t, w.Start(context.Background(), c.callback))
	time.Sleep(100 * time.Millisecond)

	a := filepath.Join(dir, "a.yml")
	b := filepath.Join(dir, "b.yaml")
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(a, []byte("A: 1\n"), 0644))
		require.NoError(t, os.WriteFile(b, []byte("B: 1\n"), 0644))
		time.Sleep(20 * time.Millisecond)
	}

	c.wait(t)
	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.batches, 1)
	assert.Equal(t, []string{a, b}, c.batches[0])
}

func TestFileWatcher_ExtensionFiltering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	c := newCollector()
	require.NoError(t, w.Start(context.Background(), c.callback))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conf.yml.bak"), []byte("x"), 0644))
	doc := filepath.Join(dir, "proj_a000.yml")
	require.NoError(t, os.WriteFile(doc, []byte("P: 1\n"), 0644))

	c.wait(t)
	assert.Equal(t, []string{doc}, c.all())
}

func TestFileWatcher_FileDeleted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := filepath.Join(dir, "proj_a000.yml")
	require.NoError(t, os.WriteFile(doc, []byte("P: 1\n"), 0644))

	w := newTestWatcher(t, dir)
	c := newCollector()
	require.NoError(t, w.Start(context.Background(), c.callback))
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.Remove(doc))

	c.wait(t)
	assert.Contains(t, c.all(), doc)
}

func TestFileWatcher_DirectoryAdded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := newTestWatcher(t, dir)
	c := newCollector()
	require.NoError(t, w.Start(context.Background(), c.callback))
	time.Sleep(100 * time.Millisecond)

	customDir := filepath.Join(dir, "custom_conf")
	require.NoError(t, os.Mkdir(customDir, 0755))
	// Wait for directory to be added to watcher
	time.Sleep(300 * time.Millisecond)

	doc := filepath.Join(customDir, "override.yml")
	require.NoError(t, os.WriteFile(doc, []byte("X: 1\n"), 0644))

	c.wait(t)
	assert.Contains(t, c.all(), doc)
}

func TestFileWatcher_StopCleanup(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher([]string{t.TempDir()}, yamlExtensions)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background(), func([]string) {}))
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	require.NoError(t, w.Stop())
	assert.Less(t, time.Since(start), 500*time.Millisecond)

	// Calling Stop() again should be safe
	require.NoError(t, w.Stop())
}

func TestFileWatcher_StopWithoutStart(t *testing.T) {
	t.Parallel()

	w, err := NewFileWatcher([]string{t.TempDir()}, yamlExtensions)
	require.NoError(t, err)
	require.NoError(t, w.Stop())
}

func TestFileWatcher_ContextCancellation(t *testing.T) {
	t.Parallel()

	w := newTestWatcher(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, func([]string) {}))
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	cancel()

	<-w.(*fileWatcher).doneCh
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
