package dataprocessing

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Sheet is the raw cell grid of one worksheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// Workbook holds every sheet of an input file in workbook order.
type Workbook struct {
	Name   string
	Sheets []Sheet
}

// Sheet returns the sheet with the given name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// OpenWorkbook reads all sheets of an .xlsx file.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return readWorkbook(f, filepath.Base(path))
}

func readWorkbook(f *excelize.File, name string) (*Workbook, error) {
	wb := &Workbook{Name: name}
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: sheetName, Rows: rows})
	}
	return wb, nil
}
