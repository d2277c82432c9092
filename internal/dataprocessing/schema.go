package dataprocessing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrSchemaNotFound is returned when no row of a sheet qualifies as a header.
var ErrSchemaNotFound = errors.New("no schema found")

// Field is a canonical column name.
type Field string

const (
	FieldMPN          Field = "mpn"
	FieldReqsCount    Field = "reqs_count"
	FieldManufacturer Field = "manufacturer"
	FieldProductClass Field = "product_class"
	FieldDescription  Field = "description"
	FieldQuantity     Field = "quantity"
	FieldPrice        Field = "price"
)

// FieldSpec declares how a canonical field is recognized in a header row.
//
// Variants are matched as case-insensitive substrings of the header text.
// When a header cell matches several fields, the one with the lowest Priority
// wins, unless the schema is Overlapping. When several cells map to the same
// field, a cell whose trimmed text equals one of Preferred (case-sensitive, in
// order) is chosen; otherwise the leftmost cell wins.
type FieldSpec struct {
	Field     Field
	Variants  []string
	Priority  int
	Required  bool
	Preferred []string
}

// Schema is a named set of field specs.
//
// In an Overlapping schema every field collects its candidate cells on its
// own, so "Stock Price" is a candidate for both quantity and price. Fields are
// then resolved in priority order and a cell already taken by an earlier
// field is only reused when it is a field's sole candidate.
type Schema struct {
	Name        string
	Fields      []FieldSpec
	Overlapping bool
}

// HotPartsSchema maps the per-date sheets of a hot-parts workbook.
var HotPartsSchema = Schema{
	Name: "hot_parts",
	Fields: []FieldSpec{
		{Field: FieldMPN, Variants: []string{"mpn"}, Priority: 0, Required: true},
		{Field: FieldReqsCount, Variants: []string{"reqs count", "reqscount", "requirements count"}, Priority: 1},
		{Field: FieldManufacturer, Variants: []string{"mfg", "manufacturer"}, Priority: 2},
		{Field: FieldProductClass, Variants: []string{"product class", "productclass"}, Priority: 3},
		{Field: FieldDescription, Variants: []string{"description", "part description"}, Priority: 4},
	},
}

// PivotSchema maps the Pivot sheet of a hot-parts workbook.
var PivotSchema = Schema{
	Name: "pivot",
	Fields: []FieldSpec{
		{Field: FieldMPN, Variants: []string{"mpn"}, Priority: 0, Required: true},
		{Field: FieldReqsCount, Variants: []string{"reqs count", "reqscount", "requirements count"}, Priority: 1, Required: true},
	},
}

// ExcessSchema maps the data sheet of a vendor excess workbook.
var ExcessSchema = Schema{
	Name:        "excess",
	Overlapping: true,
	Fields: []FieldSpec{
		{Field: FieldMPN, Variants: []string{"mpn"}, Priority: 0, Required: true},
		{Field: FieldQuantity, Variants: []string{"qty", "quantity", "stock"}, Priority: 1, Preferred: []string{"QTY", "Stock QTY"}},
		{Field: FieldPrice, Variants: []string{"price", "target", "cost"}, Priority: 2, Preferred: []string{"Price"}},
		{Field: FieldManufacturer, Variants: []string{"mfg", "manufacturer"}, Priority: 3},
	},
}

// Detection is the result of a successful header search.
type Detection struct {
	Schema    string
	HeaderRow int
	Headers   []string
	Columns   map[Field]int
}

// Has reports whether a field was mapped to a column.
func (d Detection) Has(f Field) bool {
	_, ok := d.Columns[f]
	return ok
}

// Cell returns the trimmed value of field f in row. Missing fields and short
// rows yield the empty string.
func (d Detection) Cell(row []string, f Field) string {
	idx, ok := d.Columns[f]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Header returns the header text of the column mapped to f.
func (d Detection) Header(f Field) string {
	idx, ok := d.Columns[f]
	if !ok || idx >= len(d.Headers) {
		return ""
	}
	return d.Headers[idx]
}

// DetectSchema scans rows top-down. The first row in which every required
// field's keywords appear is the header row; its cells are then assigned to
// fields. It returns ErrSchemaNotFound when no row qualifies or a required
// field ends up without a column.
func DetectSchema(rows [][]string, schema Schema) (Detection, error) {
	fields := orderedFields(schema)

	for i, row := range rows {
		if !containsRequired(row, fields) {
			continue
		}
		var columns map[Field]int
		if schema.Overlapping {
			columns = assignOverlapping(row, fields)
		} else {
			columns = assignColumns(row, fields)
		}
		for _, spec := range fields {
			if _, ok := columns[spec.Field]; spec.Required && !ok {
				return Detection{}, fmt.Errorf("%w: header row %d has no %s column", ErrSchemaNotFound, i+1, spec.Field)
			}
		}
		return Detection{
			Schema:    schema.Name,
			HeaderRow: i,
			Headers:   row,
			Columns:   columns,
		}, nil
	}

	return Detection{}, fmt.Errorf("%w: no %s header row", ErrSchemaNotFound, schema.Name)
}

func orderedFields(schema Schema) []FieldSpec {
	fields := make([]FieldSpec, len(schema.Fields))
	copy(fields, schema.Fields)
	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Priority < fields[j].Priority })
	return fields
}

func containsRequired(row []string, fields []FieldSpec) bool {
	lowered := make([]string, len(row))
	for i, cell := range row {
		lowered[i] = strings.ToLower(cell)
	}

	required := 0
	for _, spec := range fields {
		if !spec.Required {
			continue
		}
		required++
		found := false
		for _, cell := range lowered {
			if containsAny(cell, spec.Variants) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return required > 0
}

func assignColumns(row []string, fields []FieldSpec) map[Field]int {
	candidates := make(map[Field][]int)
	for idx, cell := range row {
		if f, ok := matchField(strings.ToLower(strings.TrimSpace(cell)), fields); ok {
			candidates[f] = append(candidates[f], idx)
		}
	}

	columns := make(map[Field]int, len(candidates))
	for _, spec := range fields {
		cols := candidates[spec.Field]
		if len(cols) == 0 {
			continue
		}
		columns[spec.Field] = pickColumn(row, cols, spec.Preferred)
	}
	return columns
}

func assignOverlapping(row []string, fields []FieldSpec) map[Field]int {
	lowered := make([]string, len(row))
	for i, cell := range row {
		lowered[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	columns := make(map[Field]int, len(fields))
	taken := make(map[int]bool, len(fields))
	for _, spec := range fields {
		var cols, free []int
		for idx, cell := range lowered {
			if cell == "" || !containsAny(cell, spec.Variants) {
				continue
			}
			cols = append(cols, idx)
			if !taken[idx] {
				free = append(free, idx)
			}
		}
		if len(cols) == 0 {
			continue
		}
		if len(free) > 0 {
			cols = free
		}
		idx := pickColumn(row, cols, spec.Preferred)
		columns[spec.Field] = idx
		taken[idx] = true
	}
	return columns
}

func pickColumn(row []string, cols []int, preferred []string) int {
	for _, want := range preferred {
		for _, idx := range cols {
			if strings.TrimSpace(row[idx]) == want {
				return idx
			}
		}
	}
	return cols[0]
}

func matchField(lowered string, fields []FieldSpec) (Field, bool) {
	if lowered == "" {
		return "", false
	}
	for _, spec := range fields {
		if containsAny(lowered, spec.Variants) {
			return spec.Field, true
		}
	}
	return "", false
}

func containsAny(lowered string, variants []string) bool {
	for _, v := range variants {
		if strings.Contains(lowered, v) {
			return true
		}
	}
	return false
}
