package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"hotparts/pkg/contracts/domain"
)

// MasterFile names the workbook and sheet a collection is exported to.
type MasterFile struct {
	Kind     domain.Kind
	Filename string
	Sheet    string
}

var masterFiles = []MasterFile{
	{Kind: domain.KindHotParts, Filename: "Master_Hot_Parts_Data.xlsx", Sheet: "Master_Data"},
	{Kind: domain.KindPivot, Filename: "Master_Pivot_Data.xlsx", Sheet: "Pivot_Data"},
	{Kind: domain.KindExcess, Filename: "Master_Excess_Data.xlsx", Sheet: "Excess_Data"},
	{Kind: domain.KindMatches, Filename: "Master_Matches_Data.xlsx", Sheet: "Master_Matches"},
}

// MasterFiles lists the exported workbooks in export order.
func MasterFiles() []MasterFile {
	return append([]MasterFile(nil), masterFiles...)
}

// MasterFileFor returns the export target of kind.
func MasterFileFor(kind domain.Kind) (MasterFile, bool) {
	for _, mf := range masterFiles {
		if mf.Kind == kind {
			return mf, true
		}
	}
	return MasterFile{}, false
}

// CSVName is the sibling CSV file name of the workbook.
func (m MasterFile) CSVName() string {
	return strings.TrimSuffix(m.Filename, filepath.Ext(m.Filename)) + ".csv"
}

// Source yields the (mpn, date) sorted contents of a collection.
type Source interface {
	Sorted(kind domain.Kind) ([]domain.Record, error)
}

// MasterExporter regenerates the master workbooks from the accumulator.
// Exports are serialized so concurrent passes never interleave writes to
// the same file.
type MasterExporter struct {
	mu       sync.Mutex
	source   Source
	dir      string
	csv      *CSVWriter
	writeCSV bool
	logger   *slog.Logger
}

// NewMasterExporter creates an exporter writing into dir. When writeCSV is
// set every workbook gets a CSV sibling.
func NewMasterExporter(source Source, dir string, writeCSV bool, logger *slog.Logger) *MasterExporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &MasterExporter{
		source:   source,
		dir:      dir,
		csv:      NewCSVWriter(dir, logger),
		writeCSV: writeCSV,
		logger:   logger,
	}
}

// ExportAll writes every master workbook and returns the written paths.
func (e *MasterExporter) ExportAll(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	var written []string
	for _, mf := range masterFiles {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		paths, err := e.export(ctx, mf)
		written = append(written, paths...)
		if err != nil {
			return written, err
		}
	}

	e.logger.InfoContext(ctx, "Master workbooks exported",
		slog.Int("files", len(written)),
		slog.Duration("duration", time.Since(start)))
	return written, nil
}

// Export writes the master workbook of one collection.
func (e *MasterExporter) Export(ctx context.Context, kind domain.Kind) ([]string, error) {
	mf, ok := MasterFileFor(kind)
	if !ok {
		return nil, fmt.Errorf("no master file for %q", kind)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.export(ctx, mf)
}

func (e *MasterExporter) export(ctx context.Context, mf MasterFile) ([]string, error) {
	records, err := e.source.Sorted(mf.Kind)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", mf.Kind, err)
	}

	headers := domain.Columns(mf.Kind)
	path := filepath.Join(e.dir, mf.Filename)
	if err := WriteMasterWorkbook(path, mf.Sheet, headers, records); err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", mf.Filename, err)
	}
	written := []string{path}

	if e.writeCSV {
		rows := make([][]string, len(records))
		for i, rec := range records {
			rows[i] = formatRow(rec.Values())
		}
		if err := e.csv.WriteSimpleCSV(mf.CSVName(), headers, rows); err != nil {
			return written, fmt.Errorf("failed to export %s: %w", mf.CSVName(), err)
		}
		written = append(written, filepath.Join(e.dir, mf.CSVName()))
	}

	e.logger.DebugContext(ctx, "Master collection exported",
		slog.String("kind", string(mf.Kind)),
		slog.String("file", mf.Filename),
		slog.Int("records", len(records)))
	return written, nil
}
