package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/rockplate/internal/testutils"
)

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestNewFileWatcher(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, WithIgnore(".git"))
	require.NoError(t, err)
	defer watcher.Stop()

	assert.NotNil(t, watcher.watcher)
	assert.NotNil(t, watcher.debouncer)
	assert.Len(t, watcher.filters, 1)
	assert.Empty(t, watcher.handlers)
}

func TestFileWatcherAddPath(t *testing.T) {
	watcher, err := NewFileWatcher(100 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	assert.NoError(t, watcher.AddPath(dir))
	assert.Contains(t, watcher.WatchList(), dir)

	assert.Error(t, watcher.AddPath(filepath.Join(dir, "missing")))
	assert.Error(t, watcher.AddPath(""))
}

func TestFileWatcherValidation(t *testing.T) {
	watcher, err := NewFileWatcher(100 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	err = watcher.AddPath("../../../etc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path")

	assert.Error(t, watcher.AddPath("./../../.."))
	assert.Error(t, watcher.AddRecursive("../../../etc"))
}

func TestAddRecursive(t *testing.T) {
	watcher, err := NewFileWatcher(100*time.Millisecond, WithIgnore("node_modules"))
	require.NoError(t, err)
	defer watcher.Stop()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "mail", "orders"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "mail", "a.rp"), []byte("x"), 0o644))

	require.NoError(t, watcher.AddRecursive(root))

	list := watcher.WatchList()
	assert.Contains(t, list, root)
	assert.Contains(t, list, filepath.Join(root, "mail"))
	assert.Contains(t, list, filepath.Join(root, "mail", "orders"))
	assert.NotContains(t, list, filepath.Join(root, "node_modules"))
	assert.NotContains(t, list, filepath.Join(root, "node_modules", "pkg"))
}

func TestFileWatcherStartStop(t *testing.T) {
	watcher, err := NewFileWatcher(50 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))
	watcher.AddFilter(ExtensionFilter(".rp"))

	received := make(chan []ChangeEvent, 4)
	watcher.AddHandler(func(_ context.Context, events []ChangeEvent) error {
		received <- events
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order.rp"), []byte("[order id]"), 0o644))

	select {
	case events := <-received:
		require.NotEmpty(t, events)
		for _, e := range events {
			assert.Equal(t, filepath.Join(dir, "order.rp"), e.Path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change event received")
	}
}

func TestFileWatcherHandlerErrorKeepsWatching(t *testing.T) {
	watcher, err := NewFileWatcher(20 * time.Millisecond)
	require.NoError(t, err)
	defer watcher.Stop()

	dir := t.TempDir()
	require.NoError(t, watcher.AddPath(dir))

	var mu sync.Mutex
	calls := 0
	watcher.AddHandler(func(context.Context, []ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return fmt.Errorf("render failed")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))

	for i := 0; i < 2; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("t%d.rp", i)), []byte("x"), 0o644))
		time.Sleep(150 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls >= 2
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFileWatcherStopReleasesResources(t *testing.T) {
	tracker := testutils.NewResourceTracker("FileWatcher")

	for i := 0; i < 3; i++ {
		watcher, err := NewFileWatcher(10 * time.Millisecond)
		require.NoError(t, err)
		require.NoError(t, watcher.AddPath(t.TempDir()))

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, watcher.Start(ctx))
		cancel()
		require.NoError(t, watcher.Stop())
	}

	tracker.CheckLeaks(t)
}

func TestFileWatcherDoubleStop(t *testing.T) {
	watcher, err := NewFileWatcher(100 * time.Millisecond)
	require.NoError(t, err)

	assert.NoError(t, watcher.Stop())
	assert.NoError(t, watcher.Stop())
}

func TestDebouncer(t *testing.T) {
	debouncer := newDebouncer(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go debouncer.start(ctx)

	debouncer.events <- ChangeEvent{Path: "b.rp", Type: EventTypeCreated}
	debouncer.events <- ChangeEvent{Path: "b.rp", Type: EventTypeModified}
	debouncer.events <- ChangeEvent{Path: "a.rp", Type: EventTypeModified}

	select {
	case events := <-debouncer.output:
		require.Len(t, events, 2)
		assert.Equal(t, "a.rp", events[0].Path)
		assert.Equal(t, "b.rp", events[1].Path)
		assert.Equal(t, EventTypeModified, events[1].Type)
	case <-time.After(time.Second):
		t.Fatal("debouncer did not flush")
	}
}

func TestDebouncerFlushEmpty(t *testing.T) {
	debouncer := newDebouncer(time.Millisecond)
	debouncer.flush()
	assert.Empty(t, debouncer.output)
}

func TestExtensionFilter(t *testing.T) {
	filter := ExtensionFilter(".rp", ".TPL")
	testCases := []struct {
		path     string
		expected bool
	}{
		{"order.rp", true},
		{"mail/welcome.tpl", true},
		{"mail/WELCOME.RP", true},
		{"schema.json", false},
		{"noext", false},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, filter(tc.path))
		})
	}

	assert.True(t, ExtensionFilter()("anything.at.all"))
}

func TestIgnoreFilter(t *testing.T) {
	filter := IgnoreFilter(".git", "node_modules")
	testCases := []struct {
		path     string
		expected bool
	}{
		{"templates/order.rp", true},
		{".git/config", false},
		{"project/.git/HEAD", false},
		{"web/node_modules/pkg/index.rp", false},
		{"gitignored/order.rp", true},
	}
	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, filter(tc.path))
		})
	}
}

func TestNoHiddenFilter(t *testing.T) {
	assert.True(t, NoHiddenFilter("templates/order.rp"))
	assert.False(t, NoHiddenFilter("templates/.order.rp.swp"))
	assert.False(t, NoHiddenFilter("templates/order.rp~"))
}
