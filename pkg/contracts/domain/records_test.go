package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "hot-parts", want: KindHotParts},
		{in: " HOT_PARTS ", want: KindHotParts},
		{in: "pivot", want: KindPivot},
		{in: "excess_inventory", want: KindExcess},
		{in: "match", want: KindMatches},
		{in: "orders", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordKeys(t *testing.T) {
	a := HotPart{MPN: "ABC", Date: "2025.07.07", ReqsCount: "1"}
	b := HotPart{MPN: "ABC", Date: "2025.07.07", ReqsCount: "9", SourceFile: "other.xlsx"}
	assert.Equal(t, a.Key(), b.Key(), "only mpn and date identify a hot part")

	// Adjacent fields must not collide when concatenated.
	assert.NotEqual(t,
		PivotRecord{MPN: "AB", Date: "C"}.Key(),
		PivotRecord{MPN: "A", Date: "BC"}.Key())

	ex1 := ExcessRecord{MPN: "ABC", ExcessFilename: "a.xlsx", ExcessQty: 1}
	ex2 := ExcessRecord{MPN: "ABC", ExcessFilename: "a.xlsx", ExcessQty: 50}
	assert.Equal(t, ex1.Key(), ex2.Key())

	p := 1.5
	m1 := MatchRecord{MPN: "ABC", ExcessFilename: "a.xlsx", TargetPrice: &p}
	m2 := MatchRecord{MPN: "ABC", ExcessFilename: "a.xlsx"}
	assert.NotEqual(t, m1.Key(), m2.Key(), "a match is identified by its full tuple")
}

func TestNewMatch(t *testing.T) {
	p := 11.2
	hp := HotPart{MPN: "ABC", Date: "2025.07.07", ReqsCount: "3", Manufacturer: "Broadcom", ProductClass: "IC", Description: "Switch", SourceFile: "hot.xlsx"}
	ex := ExcessRecord{MPN: "ABC", ExcessFilename: "stock.xlsx", ExcessQty: 40, TargetPrice: &p, Manufacturer: "BRCM", SheetName: "Sheet1"}

	m := NewMatch(hp, ex)
	assert.Equal(t, MatchRecord{
		MPN:            "ABC",
		HotPartsDate:   "2025.07.07",
		ReqsCount:      "3",
		Manufacturer:   "Broadcom",
		ProductClass:   "IC",
		Description:    "Switch",
		ExcessFilename: "stock.xlsx",
		ExcessQty:      40,
		TargetPrice:    &p,
	}, m)
	assert.Len(t, m.Values(), len(Columns(KindMatches)))
}

func TestColumnsMatchValues(t *testing.T) {
	records := map[Kind]Record{
		KindHotParts: HotPart{},
		KindPivot:    PivotRecord{},
		KindExcess:   ExcessRecord{},
		KindMatches:  MatchRecord{},
	}
	for _, kind := range AllKinds() {
		assert.Len(t, records[kind].Values(), len(Columns(kind)), kind)
	}
	assert.Nil(t, Columns(Kind("other")))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "", FormatPrice(nil))
	p := 5.6
	assert.Equal(t, "5.6", FormatPrice(&p))
	assert.Nil(t, ExcessRecord{}.Values()[3])
}

func TestSortRecords(t *testing.T) {
	records := []HotPart{
		{MPN: "B", Date: "2025.01.01", SourceFile: "1"},
		{MPN: "A", Date: "2025.02.01"},
		{MPN: "A", Date: "2025.01.01"},
		{MPN: "B", Date: "2025.01.01", SourceFile: "2"},
	}
	SortRecords(records)

	assert.Equal(t, SortKey{MPN: "A", Date: "2025.01.01"}, records[0].SortKey())
	assert.Equal(t, SortKey{MPN: "A", Date: "2025.02.01"}, records[1].SortKey())
	assert.Equal(t, "1", records[2].SourceFile, "stable for equal keys")
	assert.Equal(t, "2", records[3].SourceFile)

	erased := Erase(records)
	require.Len(t, erased, 4)
	assert.Equal(t, records[0].Key(), erased[0].Key())
}
