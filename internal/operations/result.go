package operations

import (
	"path/filepath"
	"time"

	"hotparts/internal/dataprocessing"
	"hotparts/pkg/contracts/domain"
)

// Result is the outcome of one pass over one file.
type Result struct {
	File     string                  `json:"file"`
	Path     string                  `json:"path"`
	FileType domain.FileType         `json:"file_type"`
	Status   domain.ProcessingStatus `json:"status"`

	// Processed counts extracted records, Added the ones new to the masters
	// and Skipped the duplicates among them.
	Processed int `json:"records_processed"`
	Added     int `json:"records_added"`
	Skipped   int `json:"records_skipped"`

	HotPartsAdded int `json:"hot_parts_added"`
	PivotAdded    int `json:"pivot_added"`
	ExcessAdded   int `json:"excess_added"`
	MatchesAdded  int `json:"matches_added"`

	Sheets      []dataprocessing.SheetOutcome `json:"sheets,omitempty"`
	TraceID     string                        `json:"trace_id,omitempty"`
	Destination string                        `json:"destination,omitempty"`
	StartedAt   time.Time                     `json:"started_at"`
	Duration    time.Duration                 `json:"duration"`

	Err          error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

func newResult(path string) Result {
	name := filepath.Base(path)
	fileType := domain.FileTypeExcess
	if dataprocessing.IsHotPartsFile(name) {
		fileType = domain.FileTypeHotParts
	}
	return Result{File: name, Path: path, FileType: fileType}
}

// OK reports whether the pass completed without a file-level failure.
func (r Result) OK() bool {
	return r.Err == nil
}

// Changed reports whether the pass added anything to any master collection.
func (r Result) Changed() bool {
	return r.Added > 0 || r.MatchesAdded > 0
}

func (r *Result) fail(err error) {
	r.Err = err
	r.ErrorMessage = err.Error()
	r.Status = domain.StatusError
}

// settle derives the status of a completed pass from its counters.
func (r *Result) settle() {
	r.Skipped = r.Processed - r.Added
	switch {
	case r.Processed == 0:
		r.Status = domain.StatusEmpty
	case r.Added == 0:
		r.Status = domain.StatusDuplicate
	default:
		r.Status = domain.StatusSuccess
	}
}

// LogEntry converts the result into a processing log row.
func (r Result) LogEntry() domain.ProcessingLog {
	return domain.ProcessingLog{
		Filename:         r.File,
		FileType:         r.FileType,
		Status:           r.Status,
		RecordsProcessed: r.Processed,
		RecordsAdded:     r.Added,
		RecordsSkipped:   r.Skipped,
		ErrorMessage:     r.ErrorMessage,
		ProcessedAt:      r.StartedAt.Add(r.Duration),
	}
}
