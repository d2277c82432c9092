package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"hotparts/internal/infrastructure"
)

// ErrAlreadyQueued is returned when a file with the same name is already
// queued or being processed.
var ErrAlreadyQueued = errors.New("file already in flight")

// ErrQueueFull is returned when the pending channel has no room.
var ErrQueueFull = errors.New("queue is full")

// ErrQueueStopped is returned by Enqueue after Stop.
var ErrQueueStopped = errors.New("queue is stopped")

// FileQueue runs file passes on a fixed pool of workers. It owns the
// in-flight set and performs the side effects of a pass: routing the file,
// appending the processing log and notifying listeners.
type FileQueue struct {
	mu        sync.RWMutex
	paths     chan string
	workers   int
	wg        sync.WaitGroup
	processor Processor
	router    Router
	journal   Journal
	inflight  *InFlight
	listeners []ResultListener
	logger    *slog.Logger
	shutdown  chan struct{}
	stopOnce  sync.Once
	started   bool
}

// NewFileQueue creates a queue. router and journal may be nil, in which
// case files stay where they are or passes go unlogged.
func NewFileQueue(workers, size int, processor Processor, router Router, journal Journal, logger *slog.Logger) *FileQueue {
	if workers <= 0 {
		workers = 2
	}
	if size <= 0 {
		size = workers * 2
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &FileQueue{
		paths:     make(chan string, size),
		workers:   workers,
		processor: processor,
		router:    router,
		journal:   journal,
		inflight:  NewInFlight(),
		logger:    logger.With(slog.String("component", "filequeue")),
		shutdown:  make(chan struct{}),
	}
}

// OnResult registers a listener called after every routed pass.
func (q *FileQueue) OnResult(l ResultListener) {
	q.mu.Lock()
	q.listeners = append(q.listeners, l)
	q.mu.Unlock()
}

// Workers returns the size of the worker pool.
func (q *FileQueue) Workers() int { return q.workers }

// InFlight exposes the set of queued or running filenames.
func (q *FileQueue) InFlight() *InFlight { return q.inflight }

// Start launches the workers. It is a no-op when already started.
func (q *FileQueue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return
	}
	q.started = true
	q.mu.Unlock()

	q.logger.Info("starting file queue", slog.Int("workers", q.workers), slog.Int("capacity", cap(q.paths)))
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Stop signals the workers and waits for running passes to finish.
// Queued files that were never started are released.
func (q *FileQueue) Stop(timeout time.Duration) error {
	q.logger.Info("stopping file queue")
	q.stopOnce.Do(func() { close(q.shutdown) })

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		q.logger.Warn("file queue stop timeout exceeded")
		return fmt.Errorf("timeout waiting for workers to finish")
	}

	for {
		select {
		case path := <-q.paths:
			q.inflight.Release(path)
			q.logger.Debug("dropped queued file", slog.String("file", path))
		default:
			q.logger.Info("file queue stopped gracefully")
			return nil
		}
	}
}

// Enqueue schedules a pass over path. Re-entrant arrivals of a file that is
// already in flight return ErrAlreadyQueued.
func (q *FileQueue) Enqueue(path string) error {
	select {
	case <-q.shutdown:
		return ErrQueueStopped
	default:
	}

	if !q.inflight.Acquire(path) {
		q.logger.Info("file already in flight, ignoring arrival", slog.String("file", path))
		return fmt.Errorf("%w: %s", ErrAlreadyQueued, path)
	}

	select {
	case q.paths <- path:
		q.logger.Debug("file enqueued", slog.String("file", path))
		return nil
	default:
		q.inflight.Release(path)
		return ErrQueueFull
	}
}

// Process runs a pass over path on the calling goroutine, with the same
// in-flight guard and side effects as a queued pass.
func (q *FileQueue) Process(ctx context.Context, path string) (Result, error) {
	if !q.inflight.Acquire(path) {
		return Result{}, fmt.Errorf("%w: %s", ErrAlreadyQueued, path)
	}
	return q.handle(ctx, path), nil
}

// Stats reports the queue occupancy.
func (q *FileQueue) Stats() map[string]interface{} {
	return map[string]interface{}{
		"workers":    q.workers,
		"queue_size": len(q.paths),
		"queue_cap":  cap(q.paths),
		"in_flight":  q.inflight.Len(),
	}
}

func (q *FileQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()

	logger := q.logger.With(slog.Int("worker_id", workerID))
	logger.Debug("worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Debug("worker stopped by context")
			return
		case <-q.shutdown:
			logger.Debug("worker stopped by shutdown")
			return
		case path := <-q.paths:
			q.handle(ctx, path)
		}
	}
}

// handle runs the pass, then routes the file and records the outcome. The
// in-flight mark is held until the file has left the input directory.
func (q *FileQueue) handle(ctx context.Context, path string) Result {
	defer q.inflight.Release(path)

	// A started pass is never cancelled.
	passCtx := infrastructure.PassContext(ctx, filepath.Base(path))
	res := q.processor.ProcessFile(passCtx, path)

	if q.router != nil {
		var (
			dest string
			err  error
		)
		if res.OK() {
			dest, err = q.router.MarkProcessed(path)
		} else {
			dest, err = q.router.Divert(path, res.Err)
		}
		res.Destination = dest
		if err != nil {
			q.logger.ErrorContext(passCtx, "failed to route file",
				slog.String("status", string(res.Status)),
				slog.String("error", err.Error()))
		}
	}

	if q.journal != nil {
		if err := q.journal.AppendLog(passCtx, res.LogEntry()); err != nil {
			q.logger.ErrorContext(passCtx, "failed to append processing log", slog.String("error", err.Error()))
		}
	}

	q.mu.RLock()
	listeners := append([]ResultListener(nil), q.listeners...)
	q.mu.RUnlock()
	for _, l := range listeners {
		l(passCtx, res)
	}

	return res
}
