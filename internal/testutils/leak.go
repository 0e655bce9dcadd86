package testutils

import (
	"os"
	"runtime"
	"testing"
	"time"
)

// ResourceLimits bounds how far a test may grow goroutines and open files.
type ResourceLimits struct {
	MaxGoroutineIncrease int
	MaxFileIncrease      int
}

// DefaultResourceLimits returns the limits used by CheckLeaks.
func DefaultResourceLimits() ResourceLimits {
	return ResourceLimits{MaxGoroutineIncrease: 2, MaxFileIncrease: 2}
}

// ResourceTracker records goroutine and file descriptor counts at creation
// and reports growth when checked.
type ResourceTracker struct {
	name              string
	initialGoroutines int
	initialFiles      int
}

// NewResourceTracker captures the current baseline.
func NewResourceTracker(name string) *ResourceTracker {
	runtime.GC()
	return &ResourceTracker{
		name:              name,
		initialGoroutines: runtime.NumGoroutine(),
		initialFiles:      openFileCount(),
	}
}

// TestingT is the subset of testing.TB the tracker reports through.
type TestingT interface {
	Errorf(format string, args ...any)
	Logf(format string, args ...any)
}

// CheckLeaks checks growth against DefaultResourceLimits.
func (rt *ResourceTracker) CheckLeaks(t *testing.T) {
	t.Helper()
	rt.CheckLeaksWithLimits(t, DefaultResourceLimits())
}

// CheckLeaksWithLimits waits up to a second for goroutines to wind down,
// then reports growth beyond limits.
func (rt *ResourceTracker) CheckLeaksWithLimits(t TestingT, limits ResourceLimits) {
	deadline := time.Now().Add(time.Second)
	goroutines := runtime.NumGoroutine()
	for goroutines-rt.initialGoroutines > limits.MaxGoroutineIncrease && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
		goroutines = runtime.NumGoroutine()
	}

	if diff := goroutines - rt.initialGoroutines; diff > limits.MaxGoroutineIncrease {
		t.Errorf("%s: goroutine leak detected: %d initial, %d current (+%d, limit: +%d)",
			rt.name, rt.initialGoroutines, goroutines, diff, limits.MaxGoroutineIncrease)
		t.Logf("goroutine stack trace:\n%s", goroutineStacks())
	}

	files := openFileCount()
	if diff := files - rt.initialFiles; diff > limits.MaxFileIncrease {
		t.Errorf("%s: file handle leak detected: %d initial, %d current (+%d, limit: +%d)",
			rt.name, rt.initialFiles, files, diff, limits.MaxFileIncrease)
	}
}

// openFileCount counts /proc/self/fd entries; elsewhere it reports 0.
func openFileCount() int {
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		return 0
	}
	return len(entries)
}

func goroutineStacks() string {
	buf := make([]byte, 64*1024)
	n := runtime.Stack(buf, true)
	return string(buf[:n])
}
