package exporter

import (
	"fmt"
	"strconv"
)

// formatCell renders one exported value as CSV text. Missing prices are empty.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// formatRow renders a record's values as CSV text.
func formatRow(values []any) []string {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = formatCell(v)
	}
	return row
}

// cellValue maps a missing value to an empty cell.
func cellValue(v any) any {
	if v == nil {
		return ""
	}
	return v
}
