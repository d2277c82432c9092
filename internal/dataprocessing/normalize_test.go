package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanQuantity(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"1,250", 1250},
		{" 1 250 ", 1250},
		{"42", 42},
		{"12.9", 12},
		{"abc", 0},
		{"", 0},
		{"-5", 0},
		{"NaN", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanQuantity(tt.raw))
		})
	}
}

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"$10.00", 11.2},
		{"1,000", 1120},
		{" $ 0.5 ", 0.56},
		{"0.12345", 0.1383},
		{"0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := CleanPrice(tt.raw)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestCleanPrice_AbsentIsNil(t *testing.T) {
	for _, raw := range []string{"", "   ", "call", "N/A", "$", "-3.00"} {
		assert.Nil(t, CleanPrice(raw), raw)
	}
}

func TestCleanMPN(t *testing.T) {
	mpn, ok := CleanMPN("  ABC123\t")
	assert.True(t, ok)
	assert.Equal(t, "ABC123", mpn)

	_, ok = CleanMPN("   ")
	assert.False(t, ok)
}

func TestDates(t *testing.T) {
	d, ok := DateFromFilename("/drop/Weekly Hot Parts List 2025.07.07.xlsx")
	assert.True(t, ok)
	assert.Equal(t, "2025.07.07", d)

	_, ok = DateFromFilename("Weekly Hot Parts List.xlsx")
	assert.False(t, ok)

	d, ok = DateFromSheetName("2025.07.14 (rev)")
	assert.True(t, ok)
	assert.Equal(t, "2025.07.14", d)

	_, ok = DateFromSheetName("Week 2025.07.14")
	assert.False(t, ok)
}

func TestFileClassification(t *testing.T) {
	assert.True(t, IsHotPartsFile("Weekly Hot Parts List 2025.07.07.xlsx"))
	assert.False(t, IsHotPartsFile("Kelly Chen excess.xlsx"))

	assert.True(t, IsWorkbookFile("a/b/Stock.XLSX"))
	assert.False(t, IsWorkbookFile("~$Stock.xlsx"))
	assert.False(t, IsWorkbookFile("Stock.xlsx.error"))
	assert.False(t, IsWorkbookFile("Stock.xls"))

	assert.Equal(t, "Micron stock", VendorOf("Micron stock 07-2025.xlsx"))
	assert.Equal(t, "", VendorOf("Unknown supplier.xlsx"))
}
