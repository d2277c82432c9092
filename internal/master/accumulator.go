package master

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"hotparts/internal/dataprocessing"
	"hotparts/pkg/contracts/domain"
)

// MergeResult reports how one batch was split by MergeUnique.
type MergeResult[T domain.Record] struct {
	Added      []T
	Duplicates []T
}

// collection is one deduplicated master set. The mutex covers the whole
// check-persist-append sequence so concurrent merges cannot both admit the
// same key.
type collection[T domain.Record] struct {
	mu      sync.RWMutex
	items   []T
	keys    dataprocessing.KeySet
	persist func(context.Context, []T) error
}

func newCollection[T domain.Record](persist func(context.Context, []T) error) *collection[T] {
	return &collection[T]{keys: make(dataprocessing.KeySet), persist: persist}
}

func (c *collection[T]) load(records []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		key := r.Key()
		if c.keys.Has(key) {
			continue
		}
		c.keys.Insert(key)
		c.items = append(c.items, r)
	}
}

func (c *collection[T]) merge(ctx context.Context, incoming []T) (MergeResult[T], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	unique, dups := dataprocessing.Partition(incoming, c.keys)
	res := MergeResult[T]{Duplicates: dups}
	if len(unique) == 0 {
		return res, nil
	}

	if c.persist != nil {
		if err := c.persist(ctx, unique); err != nil {
			return res, err
		}
	}
	for _, r := range unique {
		c.keys.Insert(r.Key())
	}
	c.items = append(c.items, unique...)
	res.Added = unique
	return res, nil
}

func (c *collection[T]) snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Accumulator owns the master collections for the life of the process. It is
// created once, loaded from its Store, and mutated only through the Merge
// methods. Memory is the dedup truth; the Store receives each added batch
// before it becomes visible.
type Accumulator struct {
	store  Store
	logger *slog.Logger

	hotParts *collection[domain.HotPart]
	pivot    *collection[domain.PivotRecord]
	excess   *collection[domain.ExcessRecord]
	matches  *collection[domain.MatchRecord]
}

// New creates an empty accumulator writing through to store.
func New(store Store, logger *slog.Logger) *Accumulator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Accumulator{
		store:    store,
		logger:   logger.With(slog.String("component", "master")),
		hotParts: newCollection(store.InsertHotParts),
		pivot:    newCollection(store.InsertPivot),
		excess:   newCollection(store.InsertExcess),
		matches:  newCollection(store.InsertMatches),
	}
}

// Open creates an accumulator and loads the current content of store.
func Open(ctx context.Context, store Store, logger *slog.Logger) (*Accumulator, error) {
	acc := New(store, logger)
	snap, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load master data: %w", err)
	}
	acc.hotParts.load(snap.HotParts)
	acc.pivot.load(snap.Pivot)
	acc.excess.load(snap.Excess)
	acc.matches.load(snap.Matches)

	acc.logger.InfoContext(ctx, "master data loaded",
		slog.Int("hot_parts", acc.hotParts.len()),
		slog.Int("pivot", acc.pivot.len()),
		slog.Int("excess", acc.excess.len()),
		slog.Int("matches", acc.matches.len()))
	return acc, nil
}

// Store returns the backing store.
func (a *Accumulator) Store() Store { return a.store }

// MergeHotParts adds the hot-parts records whose (mpn, date) is new.
func (a *Accumulator) MergeHotParts(ctx context.Context, records []domain.HotPart) (MergeResult[domain.HotPart], error) {
	return mergeLogged(ctx, a, domain.KindHotParts, a.hotParts, records)
}

// MergePivot adds the pivot records whose (mpn, date) is new.
func (a *Accumulator) MergePivot(ctx context.Context, records []domain.PivotRecord) (MergeResult[domain.PivotRecord], error) {
	return mergeLogged(ctx, a, domain.KindPivot, a.pivot, records)
}

// MergeExcess adds the excess records whose (mpn, excess_filename) is new.
func (a *Accumulator) MergeExcess(ctx context.Context, records []domain.ExcessRecord) (MergeResult[domain.ExcessRecord], error) {
	return mergeLogged(ctx, a, domain.KindExcess, a.excess, records)
}

// MergeMatches adds the match records whose full tuple is new.
func (a *Accumulator) MergeMatches(ctx context.Context, records []domain.MatchRecord) (MergeResult[domain.MatchRecord], error) {
	return mergeLogged(ctx, a, domain.KindMatches, a.matches, records)
}

func mergeLogged[T domain.Record](ctx context.Context, a *Accumulator, kind domain.Kind, c *collection[T], records []T) (MergeResult[T], error) {
	res, err := c.merge(ctx, records)
	if err != nil {
		a.logger.ErrorContext(ctx, "merge failed",
			slog.String("collection", string(kind)),
			slog.Int("incoming", len(records)),
			slog.String("error", err.Error()))
		return res, fmt.Errorf("failed to merge %s: %w", kind, err)
	}
	if len(records) > 0 {
		a.logger.DebugContext(ctx, "merged records",
			slog.String("collection", string(kind)),
			slog.Int("added", len(res.Added)),
			slog.Int("duplicates", len(res.Duplicates)))
	}
	return res, nil
}

// HotParts returns a snapshot of the hot-parts master in insertion order.
func (a *Accumulator) HotParts() []domain.HotPart { return a.hotParts.snapshot() }

// Pivot returns a snapshot of the pivot master in insertion order.
func (a *Accumulator) Pivot() []domain.PivotRecord { return a.pivot.snapshot() }

// Excess returns a snapshot of the excess master in insertion order.
func (a *Accumulator) Excess() []domain.ExcessRecord { return a.excess.snapshot() }

// Matches returns a snapshot of the matches master in insertion order.
func (a *Accumulator) Matches() []domain.MatchRecord { return a.matches.snapshot() }

// All returns a snapshot of one collection in insertion order.
func (a *Accumulator) All(kind domain.Kind) ([]domain.Record, error) {
	switch kind {
	case domain.KindHotParts:
		return domain.Erase(a.HotParts()), nil
	case domain.KindPivot:
		return domain.Erase(a.Pivot()), nil
	case domain.KindExcess:
		return domain.Erase(a.Excess()), nil
	case domain.KindMatches:
		return domain.Erase(a.Matches()), nil
	}
	return nil, fmt.Errorf("unknown collection %q", kind)
}

// Sorted returns the exported view of a collection ordered by (mpn, date).
func (a *Accumulator) Sorted(kind domain.Kind) ([]domain.Record, error) {
	records, err := a.All(kind)
	if err != nil {
		return nil, err
	}
	domain.SortRecords(records)
	return records, nil
}

// Count returns the size of one collection.
func (a *Accumulator) Count(kind domain.Kind) int {
	switch kind {
	case domain.KindHotParts:
		return a.hotParts.len()
	case domain.KindPivot:
		return a.pivot.len()
	case domain.KindExcess:
		return a.excess.len()
	case domain.KindMatches:
		return a.matches.len()
	}
	return 0
}
