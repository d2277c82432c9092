package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"hotparts/pkg/contracts/domain"
)

func TestDedupe_PartitionsAgainstMaster(t *testing.T) {
	existing := []domain.HotPart{{MPN: "A", Date: "2025.07.07"}}
	incoming := []domain.HotPart{
		{MPN: "A", Date: "2025.07.07", ReqsCount: "9"},
		{MPN: "A", Date: "2025.07.14"},
		{MPN: "B", Date: "2025.07.07"},
	}

	unique, dups := Dedupe(incoming, existing)

	assert.Equal(t, incoming[1:], unique)
	assert.Equal(t, incoming[:1], dups)
}

func TestDedupe_CollapsesRepeatsWithinBatch(t *testing.T) {
	incoming := []domain.PivotRecord{
		{MPN: "A", Date: "2025.07.07", ReqsCount: "1"},
		{MPN: "A", Date: "2025.07.07", ReqsCount: "2"},
	}

	unique, dups := Dedupe(incoming, nil)

	assert.Equal(t, incoming[:1], unique)
	assert.Equal(t, incoming[1:], dups)
}

func TestDedupe_IdempotentOnResubmission(t *testing.T) {
	incoming := []domain.ExcessRecord{
		{MPN: "A", ExcessFilename: "f.xlsx", ExcessQty: 1},
		{MPN: "B", ExcessFilename: "f.xlsx", ExcessQty: 2},
	}
	var master []domain.ExcessRecord

	unique, _ := Dedupe(incoming, master)
	master = append(master, unique...)
	assert.Len(t, unique, 2)

	unique, dups := Dedupe(incoming, master)
	assert.Empty(t, unique)
	assert.Len(t, dups, 2)
}

func TestDedupe_ExcessKeyIgnoresQuantity(t *testing.T) {
	existing := []domain.ExcessRecord{{MPN: "A", ExcessFilename: "f.xlsx", ExcessQty: 1}}
	incoming := []domain.ExcessRecord{
		{MPN: "A", ExcessFilename: "f.xlsx", ExcessQty: 500},
		{MPN: "A", ExcessFilename: "g.xlsx", ExcessQty: 1},
	}

	unique, dups := Dedupe(incoming, existing)
	assert.Equal(t, incoming[1:], unique)
	assert.Equal(t, incoming[:1], dups)
}

func TestDedupe_MatchKeyIsFullTuple(t *testing.T) {
	price := 11.2
	base := domain.MatchRecord{MPN: "A", HotPartsDate: "2025.07.07", ExcessFilename: "f.xlsx", ExcessQty: 1, TargetPrice: &price}
	changed := base
	changed.ExcessQty = 2
	nilPrice := base
	nilPrice.TargetPrice = nil

	unique, dups := Dedupe([]domain.MatchRecord{base, changed, nilPrice}, []domain.MatchRecord{base})

	assert.Equal(t, []domain.MatchRecord{changed, nilPrice}, unique)
	assert.Len(t, dups, 1)
}

func TestKeySet(t *testing.T) {
	set := NewKeySet([]domain.HotPart{{MPN: "A", Date: "d"}})
	assert.True(t, set.Has(domain.HotPart{MPN: "A", Date: "d"}.Key()))
	assert.False(t, set.Has(domain.HotPart{MPN: "A", Date: "e"}.Key()))

	set.Insert("k")
	assert.True(t, set.Has("k"))
}
