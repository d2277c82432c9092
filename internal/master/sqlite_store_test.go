package master

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotparts/pkg/contracts/domain"
)

func openTestDB(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "hotparts.db")
	price := 11.2

	store := openTestDB(t, path)
	require.NoError(t, store.InsertHotParts(ctx, []domain.HotPart{
		{MPN: "ABC123", Date: "2025.07.07", ReqsCount: "5", Manufacturer: "Broadcom", ProductClass: "Interface", Description: "3.2T Switch", SourceFile: "f.xlsx"},
	}))
	require.NoError(t, store.InsertPivot(ctx, []domain.PivotRecord{{MPN: "ABC123", ReqsCount: "7", Date: "2025.07.07"}}))
	require.NoError(t, store.InsertExcess(ctx, []domain.ExcessRecord{
		{MPN: "ABC123", ExcessFilename: "Kelly Chen.xlsx", ExcessQty: 10, TargetPrice: &price, SheetName: "Stock"},
		{MPN: "XYZ", ExcessFilename: "Kelly Chen.xlsx", ExcessQty: 1},
	}))
	require.NoError(t, store.InsertMatches(ctx, []domain.MatchRecord{
		{MPN: "ABC123", HotPartsDate: "2025.07.07", ReqsCount: "5", ExcessFilename: "Kelly Chen.xlsx", ExcessQty: 10, TargetPrice: &price},
	}))
	require.NoError(t, store.Close())

	reopened := openTestDB(t, path)
	snap, err := reopened.Load(ctx)
	require.NoError(t, err)

	require.Len(t, snap.HotParts, 1)
	assert.Equal(t, "3.2T Switch", snap.HotParts[0].Description)
	require.Len(t, snap.Pivot, 1)
	require.Len(t, snap.Excess, 2)
	require.NotNil(t, snap.Excess[0].TargetPrice)
	assert.Equal(t, 11.2, *snap.Excess[0].TargetPrice)
	assert.Nil(t, snap.Excess[1].TargetPrice)
	require.Len(t, snap.Matches, 1)
	assert.Equal(t, 10, snap.Matches[0].ExcessQty)
}

func TestSQLiteStore_InsertOrIgnore(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t, filepath.Join(t.TempDir(), "hotparts.db"))

	rec := domain.HotPart{MPN: "A", Date: "2025.07.07"}
	require.NoError(t, store.InsertHotParts(ctx, []domain.HotPart{rec}))
	require.NoError(t, store.InsertHotParts(ctx, []domain.HotPart{rec, rec}))

	m := domain.MatchRecord{MPN: "A", HotPartsDate: "2025.07.07", ExcessFilename: "f.xlsx"}
	require.NoError(t, store.InsertMatches(ctx, []domain.MatchRecord{m, m}))

	snap, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.HotParts, 1)
	assert.Len(t, snap.Matches, 1)
}

func TestSQLiteStore_ProcessingLog(t *testing.T) {
	ctx := context.Background()
	store := openTestDB(t, filepath.Join(t.TempDir(), "hotparts.db"))

	at := time.Date(2025, 7, 7, 9, 30, 0, 0, time.UTC)
	require.NoError(t, store.AppendLog(ctx, domain.ProcessingLog{
		Filename: "Weekly Hot Parts List 2025.07.07.xlsx", FileType: domain.FileTypeHotParts,
		Status: domain.StatusSuccess, RecordsProcessed: 3, RecordsAdded: 3, ProcessedAt: at,
	}))
	require.NoError(t, store.AppendLog(ctx, domain.ProcessingLog{
		Filename: "broken.xlsx", FileType: domain.FileTypeExcess,
		Status: domain.StatusError, ErrorMessage: "failed to open workbook",
	}))

	entries, err := store.RecentLog(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "broken.xlsx", entries[0].Filename)
	assert.Equal(t, "failed to open workbook", entries[0].ErrorMessage)
	assert.Equal(t, domain.StatusSuccess, entries[1].Status)
	assert.Equal(t, "", entries[1].ErrorMessage)
	assert.True(t, at.Equal(entries[1].ProcessedAt))

	limited, err := store.RecentLog(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := store.CountLog(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSQLiteStore_BacksAccumulator(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "hotparts.db")

	acc, err := Open(ctx, openTestDB(t, path), nil)
	require.NoError(t, err)
	_, err = acc.MergeHotParts(ctx, []domain.HotPart{{MPN: "A", Date: "2025.07.07"}})
	require.NoError(t, err)

	again, err := Open(ctx, openTestDB(t, path), nil)
	require.NoError(t, err)
	res, err := again.MergeHotParts(ctx, []domain.HotPart{{MPN: "A", Date: "2025.07.07"}})
	require.NoError(t, err)
	assert.Empty(t, res.Added)
}
