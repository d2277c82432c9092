package master

import (
	"context"
	"sync"
	"time"

	"hotparts/pkg/contracts/domain"
)

// MemoryStore keeps everything in process memory. It is used by tests and by
// runs that do not need persistence.
type MemoryStore struct {
	mu     sync.RWMutex
	snap   Snapshot
	log    []domain.ProcessingLog
	nextID int64
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &Snapshot{
		HotParts: append([]domain.HotPart(nil), s.snap.HotParts...),
		Pivot:    append([]domain.PivotRecord(nil), s.snap.Pivot...),
		Excess:   append([]domain.ExcessRecord(nil), s.snap.Excess...),
		Matches:  append([]domain.MatchRecord(nil), s.snap.Matches...),
	}, nil
}

func (s *MemoryStore) InsertHotParts(_ context.Context, records []domain.HotPart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.HotParts = append(s.snap.HotParts, records...)
	return nil
}

func (s *MemoryStore) InsertPivot(_ context.Context, records []domain.PivotRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Pivot = append(s.snap.Pivot, records...)
	return nil
}

func (s *MemoryStore) InsertExcess(_ context.Context, records []domain.ExcessRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Excess = append(s.snap.Excess, records...)
	return nil
}

func (s *MemoryStore) InsertMatches(_ context.Context, records []domain.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Matches = append(s.snap.Matches, records...)
	return nil
}

func (s *MemoryStore) AppendLog(_ context.Context, entry domain.ProcessingLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	s.log = append(s.log, entry)
	return nil
}

// RecentLog returns the newest entries first.
func (s *MemoryStore) RecentLog(_ context.Context, limit int) ([]domain.ProcessingLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProcessingLog, 0, len(s.log))
	for i := len(s.log) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.log[i])
	}
	return out, nil
}

func (s *MemoryStore) CountLog(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.log), nil
}

func (s *MemoryStore) Close() error { return nil }
