package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// SheetSpec describes one worksheet of a generated workbook. Each row is
// written starting at column A.
type SheetSpec struct {
	Name string
	Rows [][]any
}

// WriteWorkbook saves an .xlsx file named name in dir and returns its path.
func WriteWorkbook(t *testing.T, dir, name string, sheets ...SheetSpec) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				t.Fatalf("rename sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("new sheet %q: %v", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			values := row
			if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
				t.Fatalf("write row %d of %q: %v", r+1, sheet.Name, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

// HotPartsHeader is the column layout of a typical per-date sheet.
var HotPartsHeader = []any{"MPN", "Reqs Count", "MFG", "Product Class", "Description"}

// ExcessHeader is the column layout of a typical vendor sheet.
var ExcessHeader = []any{"MPN", "Stock QTY", "QTY", "Price"}
