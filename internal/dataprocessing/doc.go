// Package dataprocessing turns loosely structured hot-parts and excess
// inventory workbooks into canonical records.
//
// # Architecture
//
// The package is organized leaf-first:
//
//  1. Schema detection: DetectSchema locates a header row with keyword
//     heuristics declared as FieldSpec tables.
//  2. Normalization: CleanQuantity, CleanPrice and CleanMPN turn raw cells
//     into canonical values. Prices carry the fixed 12% markup.
//  3. Extraction: ExtractHotParts and ExtractExcess walk detected sheets and
//     produce domain records, skipping rows without an MPN.
//  4. Deduplication: Dedupe and Partition split a batch into unique records
//     and duplicates by composite key in linear time.
//  5. Cross-reference: Match joins excess records to hot-parts records by
//     exact MPN, one match per pair.
//
// # Data Flow
//
//	Workbook → DetectSchema → Extract* → Partition (against the master) → Match
//
// # Error Handling
//
// A sheet without a recognizable header is skipped and reported through
// SheetOutcome; only failures to open or read a workbook, or a hot-parts file
// name without a date token, are returned as errors.
package dataprocessing
