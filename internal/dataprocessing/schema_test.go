package dataprocessing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSchema_HeaderBelowTitleRows(t *testing.T) {
	rows := [][]string{
		{"Weekly Hot Parts"},
		{},
		{"Notes", "generated by planning"},
		{"Description", "MFG", "mpn ", "Reqs Count", "Product Class", "Buyer"},
		{"3.2T Switch", "Broadcom", "ABC123", "5", "Interface", "Kim"},
	}

	det, err := DetectSchema(rows, HotPartsSchema)
	require.NoError(t, err)

	assert.Equal(t, 3, det.HeaderRow)
	assert.Equal(t, map[Field]int{
		FieldDescription:  0,
		FieldManufacturer: 1,
		FieldMPN:          2,
		FieldReqsCount:    3,
		FieldProductClass: 4,
	}, det.Columns)
	assert.Equal(t, "ABC123", det.Cell(rows[4], FieldMPN))
	assert.Equal(t, "", det.Cell([]string{"short"}, FieldProductClass))
}

func TestDetectSchema_NoHeader(t *testing.T) {
	rows := [][]string{{"Part", "Count"}, {"ABC", "1"}}

	_, err := DetectSchema(rows, HotPartsSchema)
	assert.True(t, errors.Is(err, ErrSchemaNotFound))

	_, err = DetectSchema(nil, ExcessSchema)
	assert.True(t, errors.Is(err, ErrSchemaNotFound))
}

func TestDetectSchema_PivotRequiresReqsCount(t *testing.T) {
	rows := [][]string{
		{"MPN", "Sum"},
		{"Row Labels", "MPN", "Requirements Count"},
		{"", "ABC123", "7"},
	}

	det, err := DetectSchema(rows, PivotSchema)
	require.NoError(t, err)
	assert.Equal(t, 1, det.HeaderRow)
	assert.Equal(t, 1, det.Columns[FieldMPN])
	assert.Equal(t, 2, det.Columns[FieldReqsCount])
}

func TestDetectSchema_PriorityResolvesAmbiguousHeaders(t *testing.T) {
	tests := []struct {
		name   string
		header string
		schema Schema
		want   Field
		ok     bool
	}{
		{"mpn beats manufacturer", "MFG MPN", HotPartsSchema, FieldMPN, true},
		{"reqs count beats description", "Reqs Count Description", HotPartsSchema, FieldReqsCount, true},
		{"target is price", "Target", ExcessSchema, FieldPrice, true},
		{"case insensitive", "PRODUCT CLASS", HotPartsSchema, FieldProductClass, true},
		{"no match", "Buyer", HotPartsSchema, "", false},
		{"blank", "   ", HotPartsSchema, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchField(strings.ToLower(strings.TrimSpace(tt.header)), orderedFields(tt.schema))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectSchema_ExcessColumnPreference(t *testing.T) {
	tests := []struct {
		name      string
		header    []string
		wantQty   string
		wantPrice string
	}{
		{
			name:      "exact QTY beats Stock QTY",
			header:    []string{"MPN", "Stock QTY", "QTY", "Unit Cost", "Price"},
			wantQty:   "QTY",
			wantPrice: "Price",
		},
		{
			name:      "Stock QTY beats other quantity columns",
			header:    []string{"MPN", "Quantity Available", "Stock QTY", "Target Price"},
			wantQty:   "Stock QTY",
			wantPrice: "Target Price",
		},
		{
			name:      "stock price is a price column",
			header:    []string{"MPN", "Qty", "Stock Price"},
			wantQty:   "Qty",
			wantPrice: "Stock Price",
		},
		{
			name:      "price skips the quantity column when it has another candidate",
			header:    []string{"MPN", "Stock Cost", "Unit Cost"},
			wantQty:   "Stock Cost",
			wantPrice: "Unit Cost",
		},
		{
			name:      "first keyword column otherwise",
			header:    []string{"Cost USD", "mpn", "Avail Quantity", "On Hand Qty", "Target"},
			wantQty:   "Avail Quantity",
			wantPrice: "Cost USD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			det, err := DetectSchema([][]string{tt.header}, ExcessSchema)
			require.NoError(t, err)
			assert.Equal(t, tt.wantQty, det.Header(FieldQuantity))
			assert.Equal(t, tt.wantPrice, det.Header(FieldPrice))
		})
	}
}

func TestDetectSchema_FirstColumnWinsForRepeatedField(t *testing.T) {
	det, err := DetectSchema([][]string{{"MPN", "Alt MPN"}}, HotPartsSchema)
	require.NoError(t, err)
	assert.Equal(t, 0, det.Columns[FieldMPN])
}
