package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotparts/internal/shared/testutil"
)

func startWatcher(t *testing.T, dir string, delay time.Duration) (*Watcher, <-chan string, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 10)

	logger, _ := testutil.NewTestLogger(t)
	w := NewWatcher(dir, delay, logger)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, func(path string) { ready <- path }) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})

	// Give fsnotify time to register the directory
	time.Sleep(100 * time.Millisecond)
	return w, ready, cancel
}

func TestWatcherReportsStableWorkbook(t *testing.T) {
	dir := t.TempDir()
	_, ready, _ := startWatcher(t, dir, 50*time.Millisecond)

	path := filepath.Join(dir, "Kelly Chen excess.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	select {
	case got := <-ready:
		assert.Equal(t, path, got)
	case <-time.After(3 * time.Second):
		t.Fatal("workbook was not reported")
	}

	// Repeated writes during stabilization collapse to a single report
	select {
	case extra := <-ready:
		t.Fatalf("unexpected second report for %s", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherIgnoresLockAndMarkerFiles(t *testing.T) {
	dir := t.TempDir()
	_, ready, _ := startWatcher(t, dir, 20*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$book.xlsx"), []byte("lock"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.xlsx.error"), []byte("marker"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("txt"), 0644))

	select {
	case got := <-ready:
		t.Fatalf("unexpected report for %s", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCancelDropsPending(t *testing.T) {
	dir := t.TempDir()
	w, ready, cancel := startWatcher(t, dir, time.Hour)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "slow.xlsx"), []byte("data"), 0644))
	assert.Eventually(t, func() bool { return w.Pending() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool { return w.Pending() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, ready)
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "absent"), time.Millisecond, nil)
	err := w.Run(context.Background(), func(string) {})
	assert.Error(t, err)
}
