// Package exporter writes the master collections to disk.
//
// MasterExporter renders each collection, sorted by (mpn, date), into its own
// single-sheet workbook:
//
//	Master_Hot_Parts_Data.xlsx  sheet Master_Data
//	Master_Pivot_Data.xlsx      sheet Pivot_Data
//	Master_Excess_Data.xlsx     sheet Excess_Data
//	Master_Matches_Data.xlsx    sheet Master_Matches
//
// Workbooks are streamed with excelize and renamed into place once complete.
// CSVWriter produces optional CSV siblings with a UTF-8 BOM for Excel.
//
// Example usage:
//
//	exp := exporter.NewMasterExporter(acc, paths.OutputDir, true, logger)
//	written, err := exp.ExportAll(ctx)
package exporter
