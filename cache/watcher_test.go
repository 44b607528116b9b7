package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/xsdgraph/schema"
)

func newTestWatcher(t *testing.T, c *Cache, cfg WatchConfig) *Watcher {
	t.Helper()
	w, err := NewWatcher(c, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func TestWatchRegistersNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "common", "types"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git", "objects"), 0o755))

	w := newTestWatcher(t, New(Config{}), WatchConfig{})
	require.NoError(t, w.Watch(dir))

	// Hidden directories must not be watched; an event under .git would
	// reference a path the watcher never registered.
	assert.NotContains(t, w.fw.WatchList(), filepath.Join(dir, ".git"))
	assert.Contains(t, w.fw.WatchList(), filepath.Join(dir, "common", "types"))
}

func TestTracksExtensionFilter(t *testing.T) {
	w := newTestWatcher(t, New(Config{}), WatchConfig{Extensions: []string{".xsd", ".XML"}})

	assert.True(t, w.tracks("/schemas/main.xsd"))
	assert.True(t, w.tracks("/schemas/MAIN.XSD"))
	assert.True(t, w.tracks("/schemas/catalog.xml"))
	assert.False(t, w.tracks("/schemas/readme.md"))
}

func TestExcludedPatterns(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, New(Config{}), WatchConfig{Exclude: []string{"vendor/**", "**/*.tmp"}})
	require.NoError(t, w.Watch(dir))

	assert.True(t, w.excluded(filepath.Join(dir, "vendor", "lib", "a.xsd")))
	assert.True(t, w.excluded(filepath.Join(dir, "deep", "scratch.tmp")))
	assert.False(t, w.excluded(filepath.Join(dir, "schemas", "a.xsd")))
}

func TestFlushPendingInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.xsd")
	require.NoError(t, os.WriteFile(path, []byte("<x/>"), 0o644))

	c := New(Config{})
	id, err := schema.FileID(path)
	require.NoError(t, err)
	d := doc(t, "main", "fp")
	d.ID = id
	c.PutIfAbsent(d)
	require.Equal(t, 1, c.Len())

	w := newTestWatcher(t, c, WatchConfig{Extensions: []string{".xsd"}})
	w.pending[path] = fsnotify.Write
	w.flushPending()

	assert.Equal(t, 0, c.Len(), "write event must evict the entry")

	select {
	case inv := <-w.Events():
		assert.Equal(t, id, inv.ID)
		assert.True(t, inv.Evicted)
		assert.Equal(t, fsnotify.Write, inv.Op)
	default:
		t.Fatal("expected an invalidation event")
	}
}

func TestFlushPendingBatchesOnce(t *testing.T) {
	c := New(Config{})
	w := newTestWatcher(t, c, WatchConfig{})

	w.pending["/tmp/a.xsd"] = fsnotify.Write | fsnotify.Create
	w.flushPending()
	assert.Empty(t, w.pending)

	// A second flush with nothing pending emits nothing.
	w.flushPending()
	select {
	case <-w.Events():
	default:
		t.Fatal("expected exactly one event from the first flush")
	}
	select {
	case inv := <-w.Events():
		t.Fatalf("unexpected second event: %+v", inv)
	default:
	}
}
