package operations

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ProcessBacklog runs passes over paths synchronously, at most Workers() at
// a time, and returns the results in input order. Files already in flight
// are left out. A failed pass does not stop the others; only context
// cancellation ends the scan early.
func ProcessBacklog(ctx context.Context, q *FileQueue, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))
	ran := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(q.Workers())

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := q.Process(gctx, path)
			if errors.Is(err, ErrAlreadyQueued) {
				q.logger.Info("backlog file already in flight", slog.String("file", path))
				return nil
			}
			results[i] = res
			ran[i] = true
			return nil
		})
	}

	err := g.Wait()

	out := make([]Result, 0, len(paths))
	for i := range results {
		if ran[i] {
			out = append(out, results[i])
		}
	}
	return out, err
}

// EnqueueAll hands every path to the queue and returns how many were
// accepted. Files already in flight are skipped silently.
func EnqueueAll(q *FileQueue, paths []string) (int, error) {
	accepted := 0
	for _, path := range paths {
		err := q.Enqueue(path)
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, ErrAlreadyQueued):
		default:
			return accepted, err
		}
	}
	return accepted, nil
}
