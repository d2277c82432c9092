package operations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotparts/internal/master"
	"hotparts/internal/shared/testutil"
	"hotparts/pkg/contracts/domain"
)

type recordingRouter struct {
	mu        sync.Mutex
	processed []string
	diverted  map[string]error
}

func newRecordingRouter() *recordingRouter {
	return &recordingRouter{diverted: make(map[string]error)}
}

func (r *recordingRouter) MarkProcessed(path string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed = append(r.processed, filepath.Base(path))
	return filepath.Join("processed", filepath.Base(path)), nil
}

func (r *recordingRouter) Divert(path string, reason error) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diverted[filepath.Base(path)] = reason
	return filepath.Join("errors", filepath.Base(path)), nil
}

// blockingProcessor holds every pass until release is closed.
type blockingProcessor struct {
	started chan string
	release chan struct{}
}

func (b *blockingProcessor) ProcessFile(_ context.Context, path string) Result {
	b.started <- path
	<-b.release
	res := newResult(path)
	res.settle()
	return res
}

func TestFileQueue_RoutesAndJournals(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	store := master.NewMemoryStore()
	acc := master.New(store, logger)
	router := newRecordingRouter()

	q := NewFileQueue(2, 10, NewPipeline(acc, nil, logger), router, store, logger)

	results := make(chan Result, 2)
	q.OnResult(func(_ context.Context, res Result) { results <- res })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop(time.Second)

	good := writeHotParts(t, dir, hotPartsFile, []any{"ABC123", 5, "Broadcom", "Interface", "Switch"})
	bad := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))

	require.NoError(t, q.Enqueue(good))
	require.NoError(t, q.Enqueue(bad))

	got := map[string]Result{}
	for i := 0; i < 2; i++ {
		select {
		case res := <-results:
			got[res.File] = res
		case <-time.After(10 * time.Second):
			t.Fatal("timed out waiting for results")
		}
	}

	assert.Equal(t, domain.StatusSuccess, got[hotPartsFile].Status)
	assert.Equal(t, filepath.Join("processed", hotPartsFile), got[hotPartsFile].Destination)
	assert.Equal(t, domain.StatusError, got["broken.xlsx"].Status)
	assert.Equal(t, filepath.Join("errors", "broken.xlsx"), got["broken.xlsx"].Destination)

	router.mu.Lock()
	assert.Equal(t, []string{hotPartsFile}, router.processed)
	assert.Contains(t, router.diverted, "broken.xlsx")
	router.mu.Unlock()

	n, err := store.CountLog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Eventually(t, func() bool { return q.InFlight().Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestFileQueue_RejectsReentrantArrival(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	proc := &blockingProcessor{started: make(chan string, 1), release: make(chan struct{})}
	q := NewFileQueue(1, 4, proc, nil, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	path := filepath.Join(t.TempDir(), "a.xlsx")
	require.NoError(t, q.Enqueue(path))
	<-proc.started

	err := q.Enqueue(path)
	assert.True(t, errors.Is(err, ErrAlreadyQueued))

	_, err = q.Process(ctx, path)
	assert.True(t, errors.Is(err, ErrAlreadyQueued))

	assert.Equal(t, []string{"a.xlsx"}, q.InFlight().Names())

	close(proc.release)
	assert.Eventually(t, func() bool { return q.InFlight().Len() == 0 }, time.Second, 10*time.Millisecond)
	require.NoError(t, q.Stop(time.Second))
}

func TestFileQueue_FullAndStopped(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	proc := &blockingProcessor{started: make(chan string, 4), release: make(chan struct{})}
	q := NewFileQueue(1, 1, proc, nil, nil, logger)

	dir := t.TempDir()
	// Not started: the single slot fills and the next arrival is refused.
	require.NoError(t, q.Enqueue(filepath.Join(dir, "a.xlsx")))
	assert.ErrorIs(t, q.Enqueue(filepath.Join(dir, "b.xlsx")), ErrQueueFull)
	assert.Equal(t, 1, q.InFlight().Len())

	close(proc.release)
	require.NoError(t, q.Stop(time.Second))
	assert.Equal(t, 0, q.InFlight().Len(), "queued files are released on stop")
	assert.ErrorIs(t, q.Enqueue(filepath.Join(dir, "c.xlsx")), ErrQueueStopped)
}

func TestProcessBacklog(t *testing.T) {
	dir := t.TempDir()
	logger, _ := testutil.NewTestLogger(t)
	store := master.NewMemoryStore()
	acc := master.New(store, logger)
	router := newRecordingRouter()
	q := NewFileQueue(2, 10, NewPipeline(acc, nil, logger), router, store, logger)

	paths := []string{
		writeHotParts(t, dir, hotPartsFile, []any{"ABC123", 5, "Broadcom", "Interface", "Switch"}),
		writeHotParts(t, dir, "Weekly Hot Parts List 2025.07.14.xlsx", []any{"ABC123", 1, "Broadcom", "Interface", "Switch"}),
		writeExcess(t, dir, "Micron stock.xlsx", []any{"ABC123", "", 7, 2}),
	}

	results, err := ProcessBacklog(context.Background(), q, paths)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, filepath.Base(paths[i]), res.File)
		assert.True(t, res.OK(), res.ErrorMessage)
	}

	// Both hot-parts files share the sheet date, so the second adds nothing.
	assert.Len(t, acc.HotParts(), 1)
	assert.Len(t, acc.Matches(), 1)
	assert.Len(t, router.processed, 3)

	n, err := store.CountLog(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEnqueueAll(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	proc := &blockingProcessor{started: make(chan string, 4), release: make(chan struct{})}
	q := NewFileQueue(1, 4, proc, nil, nil, logger)

	dir := t.TempDir()
	a := filepath.Join(dir, "a.xlsx")
	b := filepath.Join(dir, "b.xlsx")

	n, err := EnqueueAll(q, []string{a, b, a})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	close(proc.release)
	require.NoError(t, q.Stop(time.Second))
}

func TestInFlight(t *testing.T) {
	f := NewInFlight()

	assert.True(t, f.Acquire("/in/a.xlsx"))
	assert.False(t, f.Acquire("/elsewhere/a.xlsx"), "keyed by file name")
	assert.True(t, f.Acquire("/in/b.xlsx"))
	assert.Equal(t, []string{"a.xlsx", "b.xlsx"}, f.Names())

	f.Release("/in/a.xlsx")
	assert.Equal(t, 1, f.Len())
	assert.True(t, f.Acquire("/in/a.xlsx"))
}
