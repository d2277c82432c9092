package dataprocessing

import (
	"errors"
	"fmt"

	"hotparts/pkg/contracts/domain"
)

// ErrNoFileDate is returned for a hot-parts file name without a YYYY.MM.DD token.
var ErrNoFileDate = errors.New("no date token in file name")

// SheetOutcome reports what happened to one sheet of a workbook.
type SheetOutcome struct {
	Sheet   string `json:"sheet"`
	Schema  string `json:"schema"`
	Records int    `json:"records"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

// HotPartsBatch is everything extracted from one hot-parts workbook.
type HotPartsBatch struct {
	FileDate string
	HotParts []domain.HotPart
	Pivot    []domain.PivotRecord
	Sheets   []SheetOutcome
}

// Processed is the number of records extracted across both collections.
func (b *HotPartsBatch) Processed() int {
	return len(b.HotParts) + len(b.Pivot)
}

// ExtractHotParts reads the per-date sheets and the Pivot sheet of a hot-parts
// workbook. Sheets with no recognizable header are recorded in Sheets and
// skipped.
func ExtractHotParts(wb *Workbook) (*HotPartsBatch, error) {
	fileDate, ok := DateFromFilename(wb.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoFileDate, wb.Name)
	}

	batch := &HotPartsBatch{FileDate: fileDate}
	for i := range wb.Sheets {
		sheet := &wb.Sheets[i]

		if sheetDate, ok := DateFromSheetName(sheet.Name); ok {
			records, outcome := extractHotPartSheet(sheet, sheetDate, wb.Name)
			batch.HotParts = append(batch.HotParts, records...)
			batch.Sheets = append(batch.Sheets, outcome)
			continue
		}

		if sheet.Name == PivotSheetName {
			records, outcome := extractPivotSheet(sheet, fileDate)
			batch.Pivot = append(batch.Pivot, records...)
			batch.Sheets = append(batch.Sheets, outcome)
		}
	}
	return batch, nil
}

func extractHotPartSheet(sheet *Sheet, date, sourceFile string) ([]domain.HotPart, SheetOutcome) {
	outcome := SheetOutcome{Sheet: sheet.Name, Schema: HotPartsSchema.Name}

	det, err := DetectSchema(sheet.Rows, HotPartsSchema)
	if err != nil {
		outcome.Error = err.Error()
		return nil, outcome
	}

	var records []domain.HotPart
	for _, row := range sheet.Rows[det.HeaderRow+1:] {
		mpn, ok := CleanMPN(det.Cell(row, FieldMPN))
		if !ok {
			outcome.Skipped++
			continue
		}
		records = append(records, domain.HotPart{
			MPN:          mpn,
			Date:         date,
			ReqsCount:    det.Cell(row, FieldReqsCount),
			Manufacturer: det.Cell(row, FieldManufacturer),
			ProductClass: det.Cell(row, FieldProductClass),
			Description:  det.Cell(row, FieldDescription),
			SourceFile:   sourceFile,
		})
	}
	outcome.Records = len(records)
	return records, outcome
}

func extractPivotSheet(sheet *Sheet, fileDate string) ([]domain.PivotRecord, SheetOutcome) {
	outcome := SheetOutcome{Sheet: sheet.Name, Schema: PivotSchema.Name}

	det, err := DetectSchema(sheet.Rows, PivotSchema)
	if err != nil {
		outcome.Error = err.Error()
		return nil, outcome
	}

	var records []domain.PivotRecord
	for _, row := range sheet.Rows[det.HeaderRow+1:] {
		mpn, ok := CleanMPN(det.Cell(row, FieldMPN))
		if !ok {
			outcome.Skipped++
			continue
		}
		records = append(records, domain.PivotRecord{
			MPN:       mpn,
			ReqsCount: det.Cell(row, FieldReqsCount),
			Date:      fileDate,
		})
	}
	outcome.Records = len(records)
	return records, outcome
}
