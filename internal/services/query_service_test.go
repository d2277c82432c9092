package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "hotparts/internal/errors"
	"hotparts/internal/master"
	"hotparts/pkg/contracts/domain"
)

func price(v float64) *float64 { return &v }

func seededAccumulator(t *testing.T) (*master.Accumulator, *master.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	store := master.NewMemoryStore()
	acc := master.New(store, nil)

	_, err := acc.MergeHotParts(ctx, []domain.HotPart{
		{MPN: "ABC123", Date: "2025.06.30", ReqsCount: "2", Manufacturer: "Broadcom"},
		{MPN: "ABC123", Date: "2025.07.07", ReqsCount: "5", Manufacturer: "Broadcom"},
		{MPN: "XYZ9", Date: "2025.07.07", ReqsCount: "1", Manufacturer: "Intel"},
	})
	require.NoError(t, err)

	_, err = acc.MergePivot(ctx, []domain.PivotRecord{{MPN: "ABC123", ReqsCount: "7", Date: "2025.07.07"}})
	require.NoError(t, err)

	_, err = acc.MergeExcess(ctx, []domain.ExcessRecord{
		{MPN: "ABC123", ExcessFilename: "a.xlsx", ExcessQty: 10, TargetPrice: price(5.6)},
		{MPN: "ABC123", ExcessFilename: "b.xlsx", ExcessQty: 30, TargetPrice: price(11.2)},
		{MPN: "XYZ9", ExcessFilename: "a.xlsx", ExcessQty: 100},
	})
	require.NoError(t, err)

	_, err = acc.MergeMatches(ctx, []domain.MatchRecord{
		{MPN: "ABC123", HotPartsDate: "2025.07.07", Manufacturer: "Broadcom", ExcessFilename: "a.xlsx", ExcessQty: 10, TargetPrice: price(5.6)},
		{MPN: "ABC123", HotPartsDate: "2025.07.07", Manufacturer: "Broadcom", ExcessFilename: "b.xlsx", ExcessQty: 30, TargetPrice: price(11.2)},
	})
	require.NoError(t, err)

	return acc, store
}

func TestQueryService_Stats(t *testing.T) {
	acc, store := seededAccumulator(t)
	require.NoError(t, store.AppendLog(context.Background(), domain.ProcessingLog{Filename: "f.xlsx", ProcessedAt: time.Now()}))

	stats, err := NewQueryService(acc, store, nil).Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.Stats{
		HotPartsCount:      3,
		PivotCount:         1,
		ExcessCount:        3,
		MatchesCount:       2,
		ProcessingLogCount: 1,
		UniqueHotPartsMPNs: 2,
		UniqueExcessMPNs:   2,
		UniqueMatchMPNs:    1,
		HotPartsDateRange:  "2025.06.30 to 2025.07.07",
	}, stats)
}

func TestQueryService_StatsEmpty(t *testing.T) {
	acc := master.New(master.NewMemoryStore(), nil)
	stats, err := NewQueryService(acc, nil, nil).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "No data", stats.HotPartsDateRange)
	assert.Zero(t, stats.HotPartsCount)
}

func TestQueryService_StatsLogFailure(t *testing.T) {
	acc := master.New(master.NewMemoryStore(), nil)
	logReader := new(MockLogReader)
	logReader.On("CountLog", mock.Anything).Return(0, errors.New("disk gone"))

	_, err := NewQueryService(acc, logReader, nil).Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
	logReader.AssertExpectations(t)
}

func TestQueryService_Masters(t *testing.T) {
	acc, _ := seededAccumulator(t)
	svc := NewQueryService(acc, nil, nil)
	ctx := context.Background()

	all, err := svc.Masters(ctx, domain.KindHotParts, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, domain.SortKey{MPN: "ABC123", Date: "2025.06.30"}, all[0].SortKey())
	assert.Equal(t, domain.SortKey{MPN: "XYZ9", Date: "2025.07.07"}, all[2].SortKey())

	filtered, err := svc.Masters(ctx, domain.KindHotParts, " xyz9 ")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "XYZ9", filtered[0].SortKey().MPN)

	none, err := svc.Masters(ctx, domain.KindMatches, "NOPE")
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = svc.Masters(ctx, domain.Kind("bogus"), "")
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))
}

func TestQueryService_Summaries(t *testing.T) {
	acc, _ := seededAccumulator(t)
	svc := NewQueryService(acc, nil, nil)
	ctx := context.Background()

	hot := svc.HotPartsSummary(ctx)
	require.Len(t, hot, 2)
	assert.Equal(t, domain.HotPartSummary{
		MPN:              "ABC123",
		Manufacturer:     "Broadcom",
		TotalOccurrences: 2,
		FirstSeen:        "2025.06.30",
		LastSeen:         "2025.07.07",
	}, hot[0])

	excess := svc.ExcessSummary(ctx)
	require.Len(t, excess, 2)
	assert.Equal(t, "XYZ9", excess[0].MPN, "largest quantity first")
	assert.Nil(t, excess[0].MinTargetPrice)
	assert.Equal(t, 2, excess[1].Files)
	assert.Equal(t, 40, excess[1].TotalAvailableQty)
	assert.Equal(t, 5.6, *excess[1].MinTargetPrice)
	assert.Equal(t, 11.2, *excess[1].MaxTargetPrice)

	matches := svc.MatchesSummary(ctx)
	require.Len(t, matches, 1)
	assert.Equal(t, 2, matches[0].TotalMatches)
	assert.Equal(t, 40, matches[0].TotalExcessQty)
	assert.Equal(t, 11.2, *matches[0].MaxTargetPrice)

	_, err := svc.Summary(ctx, domain.KindPivot)
	assert.Equal(t, apperrors.ErrTypeNotFound, apperrors.TypeOf(err))

	got, err := svc.Summary(ctx, domain.KindMatches)
	require.NoError(t, err)
	assert.Equal(t, matches, got)
}

func TestQueryService_RandomParts(t *testing.T) {
	ctx := context.Background()
	acc := master.New(master.NewMemoryStore(), nil)

	var matches []domain.MatchRecord
	for _, mfr := range []string{"Broadcom", "Intel", "AMD", "Micron"} {
		for i := 0; i < 4; i++ {
			matches = append(matches, domain.MatchRecord{
				MPN:            fmt.Sprintf("%s-%d", mfr, i),
				HotPartsDate:   "2025.07.07",
				Manufacturer:   mfr,
				ExcessFilename: "x.xlsx",
				TargetPrice:    price(float64(10 * (i + 1))),
			})
		}
	}
	matches = append(matches, domain.MatchRecord{MPN: "NOPRICE", Manufacturer: "Intel"})
	_, err := acc.MergeMatches(ctx, matches)
	require.NoError(t, err)

	svc := NewQueryService(acc, nil, nil).WithRand(rand.New(rand.NewPCG(1, 2)))

	tests := []struct {
		name    string
		query   RandomPartsQuery
		wantMax int
	}{
		{name: "capped per manufacturer", query: RandomPartsQuery{Count: 100, MinPrice: 0, MaxManufacturers: 50}, wantMax: 8},
		{name: "capped by count", query: RandomPartsQuery{Count: 3, MinPrice: 0, MaxManufacturers: 4}, wantMax: 3},
		{name: "capped by manufacturers", query: RandomPartsQuery{Count: 100, MinPrice: 0, MaxManufacturers: 1}, wantMax: 2},
		{name: "price floor is exclusive", query: RandomPartsQuery{Count: 100, MinPrice: 30, MaxManufacturers: 50}, wantMax: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := svc.RandomParts(ctx, tt.query)
			require.NoError(t, err)
			assert.Len(t, parts, tt.wantMax)

			perMfr := map[string]int{}
			for _, p := range parts {
				require.NotNil(t, p.TargetPrice)
				assert.Greater(t, *p.TargetPrice, tt.query.MinPrice)
				perMfr[p.Manufacturer]++
			}
			assert.LessOrEqual(t, len(perMfr), tt.query.MaxManufacturers)
			for mfr, n := range perMfr {
				assert.LessOrEqual(t, n, 2, mfr)
			}
		})
	}

	_, err = svc.RandomParts(ctx, RandomPartsQuery{Count: 0, MaxManufacturers: 1})
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}

func TestQueryService_ProcessingLog(t *testing.T) {
	acc := master.New(master.NewMemoryStore(), nil)

	logReader := new(MockLogReader)
	entries := []domain.ProcessingLog{{Filename: "b.xlsx"}, {Filename: "a.xlsx"}}
	logReader.On("RecentLog", mock.Anything, DefaultLogLimit).Return(entries, nil).Once()
	logReader.On("RecentLog", mock.Anything, 5).Return(nil, errors.New("locked")).Once()

	svc := NewQueryService(acc, logReader, nil)

	got, err := svc.ProcessingLog(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	_, err = svc.ProcessingLog(context.Background(), 5)
	assert.Equal(t, apperrors.ErrTypeStorage, apperrors.TypeOf(err))
	logReader.AssertExpectations(t)

	empty, err := NewQueryService(acc, nil, nil).ProcessingLog(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
