package master

import (
	"context"

	"hotparts/pkg/contracts/domain"
)

// Snapshot is the full content of the master collections.
type Snapshot struct {
	HotParts []domain.HotPart
	Pivot    []domain.PivotRecord
	Excess   []domain.ExcessRecord
	Matches  []domain.MatchRecord
}

// Store persists master collections and the processing log. Insert methods
// receive only records the Accumulator has already deduplicated; stores
// should still ignore rows that violate their unique keys.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	InsertHotParts(ctx context.Context, records []domain.HotPart) error
	InsertPivot(ctx context.Context, records []domain.PivotRecord) error
	InsertExcess(ctx context.Context, records []domain.ExcessRecord) error
	InsertMatches(ctx context.Context, records []domain.MatchRecord) error

	AppendLog(ctx context.Context, entry domain.ProcessingLog) error
	RecentLog(ctx context.Context, limit int) ([]domain.ProcessingLog, error)
	CountLog(ctx context.Context) (int, error)

	Close() error
}
