package dataprocessing

import (
	"errors"
	"strings"

	"hotparts/pkg/contracts/domain"
)

// ErrNoExcessSheet is returned when no sheet of an excess workbook has an MPN column.
var ErrNoExcessSheet = errors.New("no sheet with an MPN column")

// micronInfoSheet is an informational tab in Micron stock lists.
const (
	micronToken     = "Micron stock"
	micronInfoSheet = "global"
)

// ExcessBatch is everything extracted from one excess workbook.
type ExcessBatch struct {
	Vendor      string
	Sheet       string
	QtyColumn   string
	PriceColumn string
	Records     []domain.ExcessRecord
	Skipped     int
	Sheets      []SheetOutcome
}

// SkipExcessSheet reports whether a sheet must never be read as supply data:
// prior match output and the Micron informational tab.
func SkipExcessSheet(filename, sheetName string) bool {
	lower := strings.ToLower(sheetName)
	if strings.Contains(lower, "match") {
		return true
	}
	return strings.Contains(filename, micronToken) && strings.TrimSpace(lower) == micronInfoSheet
}

// SelectExcessSheet returns the first eligible sheet whose header maps an MPN
// column. Later sheets are not considered once one qualifies.
func SelectExcessSheet(wb *Workbook) (*Sheet, Detection, []SheetOutcome, error) {
	var outcomes []SheetOutcome
	for i := range wb.Sheets {
		sheet := &wb.Sheets[i]
		if SkipExcessSheet(wb.Name, sheet.Name) {
			outcomes = append(outcomes, SheetOutcome{Sheet: sheet.Name, Schema: ExcessSchema.Name, Error: "skipped"})
			continue
		}
		det, err := DetectSchema(sheet.Rows, ExcessSchema)
		if err != nil {
			outcomes = append(outcomes, SheetOutcome{Sheet: sheet.Name, Schema: ExcessSchema.Name, Error: err.Error()})
			continue
		}
		return sheet, det, outcomes, nil
	}
	return nil, Detection{}, outcomes, ErrNoExcessSheet
}

// ExtractExcess reads supply records from the selected sheet of an excess
// workbook. A workbook with no eligible sheet yields ErrNoExcessSheet and an
// empty batch that still carries the per-sheet outcomes.
func ExtractExcess(wb *Workbook) (*ExcessBatch, error) {
	sheet, det, outcomes, err := SelectExcessSheet(wb)
	if err != nil {
		return &ExcessBatch{Sheets: outcomes}, err
	}

	batch := &ExcessBatch{
		Vendor:      VendorOf(wb.Name),
		Sheet:       sheet.Name,
		QtyColumn:   det.Header(FieldQuantity),
		PriceColumn: det.Header(FieldPrice),
	}

	for _, row := range sheet.Rows[det.HeaderRow+1:] {
		mpn, ok := CleanMPN(det.Cell(row, FieldMPN))
		if !ok {
			batch.Skipped++
			continue
		}
		rec := domain.ExcessRecord{
			MPN:            mpn,
			ExcessFilename: wb.Name,
			Manufacturer:   det.Cell(row, FieldManufacturer),
			SheetName:      sheet.Name,
		}
		if det.Has(FieldQuantity) {
			rec.ExcessQty = CleanQuantity(det.Cell(row, FieldQuantity))
		}
		if det.Has(FieldPrice) {
			rec.TargetPrice = CleanPrice(det.Cell(row, FieldPrice))
		}
		batch.Records = append(batch.Records, rec)
	}

	batch.Sheets = append(outcomes, SheetOutcome{
		Sheet:   sheet.Name,
		Schema:  ExcessSchema.Name,
		Records: len(batch.Records),
		Skipped: batch.Skipped,
	})
	return batch, nil
}
