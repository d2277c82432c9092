// Package operations runs ingestion passes over dropped workbooks.
//
// A Pipeline turns one workbook into a Result: it detects the file kind,
// extracts records, merges them into the master Accumulator and
// cross-references excess supply against hot-parts demand in both
// directions. The Pipeline never moves files.
//
// A FileQueue owns the side effects. Its workers run the Pipeline, move the
// file to the processed or errors directory, append the processing log and
// notify result listeners. An InFlight set guarantees that a filename is
// never processed by two workers at once.
//
// ProcessBacklog drives the same per-file handling synchronously over a
// fixed list of files, which is how the one-shot mode drains a directory.
package operations
