package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// createTestDirStructure creates a directory tree holding fileCount templates.
func createTestDirStructure(b *testing.B, fileCount int) string {
	b.Helper()
	root := b.TempDir()
	for i := 0; i < fileCount; i++ {
		dir := filepath.Join(root, fmt.Sprintf("group_%d", i/10))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.Fatal(err)
		}
		content := fmt.Sprintf("Hello [customer name], order %d is [if order is paid]paid[end if].\n", i)
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("t_%d.rp", i)), []byte(content), 0o644); err != nil {
			b.Fatal(err)
		}
	}
	return root
}

func BenchmarkFileWatcher_AddRecursive(b *testing.B) {
	for _, size := range []int{100, 1000} {
		b.Run(fmt.Sprintf("files-%d", size), func(b *testing.B) {
			root := createTestDirStructure(b, size)

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				watcher, err := NewFileWatcher(100 * time.Millisecond)
				if err != nil {
					b.Fatal(err)
				}
				if err := watcher.AddRecursive(root); err != nil {
					b.Fatal(err)
				}
				watcher.Stop()
			}
		})
	}
}

func BenchmarkFilters(b *testing.B) {
	filters := []struct {
		name   string
		filter FileFilter
	}{
		{"Extension", ExtensionFilter(".rp", ".tpl", ".txt")},
		{"Ignore", IgnoreFilter(".git", "node_modules")},
		{"NoHidden", NoHiddenFilter},
	}
	paths := []string{
		"order.rp",
		"mail/welcome.tpl",
		".git/config",
		"node_modules/pkg/index.js",
		"templates/.order.rp.swp",
		"schemas/order.json",
	}

	for _, f := range filters {
		b.Run(f.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				for _, path := range paths {
					f.filter(path)
				}
			}
		})
	}
}

func BenchmarkDebouncer(b *testing.B) {
	debouncer := newDebouncer(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go debouncer.start(ctx)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-debouncer.output:
			}
		}
	}()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		select {
		case debouncer.events <- ChangeEvent{Type: EventTypeModified, Path: fmt.Sprintf("t_%d.rp", i%100)}:
		default:
		}
	}
}
