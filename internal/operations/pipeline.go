package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hotparts/internal/dataprocessing"
	apperrors "hotparts/internal/errors"
	"hotparts/internal/infrastructure"
	"hotparts/internal/master"
	"hotparts/internal/validation"
	"hotparts/pkg/contracts/domain"
)

// Pipeline runs detect, extract, dedupe, merge and cross-reference for one file.
type Pipeline struct {
	acc       *master.Accumulator
	validator *validation.FileValidator
	metrics   *Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline creates a pipeline merging into acc. metrics may be nil.
func NewPipeline(acc *master.Accumulator, metrics *Metrics, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "pipeline"))
	return &Pipeline{
		acc:       acc,
		validator: validation.NewFileValidator(logger),
		metrics:   metrics,
		tracer:    otel.Tracer(infrastructure.InstrumentationName),
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessFile runs one full pass over the workbook at path. Failures are
// reported in the Result, never by panicking; records merged before a
// failure stay merged.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (res Result) {
	res = newResult(path)
	res.StartedAt = p.now()

	if infrastructure.FileFromContext(ctx) == "" {
		ctx = infrastructure.WithFile(ctx, res.File)
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	res.TraceID = infrastructure.GetTraceID(ctx)

	ctx, span := p.tracer.Start(ctx, "pipeline.process_file",
		trace.WithAttributes(
			attribute.String("file.name", res.File),
			attribute.String("file.type", string(res.FileType)),
		))
	defer span.End()

	logger := p.logger.With(slog.String("file_type", string(res.FileType)))
	logger.InfoContext(ctx, "Processing file")

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "pass panicked", slog.Any("panic", r))
			res.fail(apperrors.NewFileFailureError(res.File, fmt.Errorf("panic: %v", r)))
		}

		res.Duration = p.now().Sub(res.StartedAt)
		span.SetAttributes(
			attribute.String("pass.status", string(res.Status)),
			attribute.Int("records.processed", res.Processed),
			attribute.Int("records.added", res.Added),
		)
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.ErrorMessage)
			logger.ErrorContext(ctx, "File processing failed",
				slog.String("error", res.ErrorMessage),
				slog.Duration("duration", res.Duration))
		} else {
			logger.InfoContext(ctx, "File processed",
				slog.String("status", string(res.Status)),
				slog.Int("records_processed", res.Processed),
				slog.Int("records_added", res.Added),
				slog.Int("records_skipped", res.Skipped),
				slog.Int("matches_added", res.MatchesAdded),
				slog.Duration("duration", res.Duration))
		}
		p.metrics.RecordPass(ctx, res)
	}()

	if err := p.validator.ValidateWorkbook(path); err != nil {
		res.fail(apperrors.NewFileFailureError(res.File, err))
		return res
	}

	wb, err := dataprocessing.OpenWorkbook(path)
	if err != nil {
		res.fail(apperrors.NewFileFailureError(res.File, err))
		return res
	}

	if res.FileType == domain.FileTypeHotParts {
		err = p.processHotParts(ctx, wb, &res, logger)
	} else {
		err = p.processExcess(ctx, wb, &res, logger)
	}
	if err != nil {
		res.fail(err)
		return res
	}

	res.settle()
	return res
}

func (p *Pipeline) processHotParts(ctx context.Context, wb *dataprocessing.Workbook, res *Result, logger *slog.Logger) error {
	batch, err := dataprocessing.ExtractHotParts(wb)
	if err != nil {
		return apperrors.NewParsingError("failed to extract hot parts", err).
			WithContext("file", wb.Name)
	}
	res.Sheets = batch.Sheets
	res.Processed = batch.Processed()
	logSkippedSheets(ctx, logger, batch.Sheets)

	hot, err := p.acc.MergeHotParts(ctx, batch.HotParts)
	if err != nil {
		return apperrors.NewStorageError("failed to merge hot parts", err)
	}
	res.HotPartsAdded = len(hot.Added)

	pivot, err := p.acc.MergePivot(ctx, batch.Pivot)
	if err != nil {
		return apperrors.NewStorageError("failed to merge pivot data", err)
	}
	res.PivotAdded = len(pivot.Added)
	res.Added = res.HotPartsAdded + res.PivotAdded

	// New demand is matched against all supply seen so far
	matches, err := p.acc.MergeMatches(ctx, dataprocessing.Match(p.acc.Excess(), hot.Added))
	if err != nil {
		return apperrors.NewStorageError("failed to merge matches", err)
	}
	res.MatchesAdded = len(matches.Added)

	return nil
}

func (p *Pipeline) processExcess(ctx context.Context, wb *dataprocessing.Workbook, res *Result, logger *slog.Logger) error {
	batch, err := dataprocessing.ExtractExcess(wb)
	res.Sheets = batch.Sheets
	if errors.Is(err, dataprocessing.ErrNoExcessSheet) {
		logger.WarnContext(ctx, "No sheet with an MPN column", slog.Int("sheets", len(wb.Sheets)))
		return nil
	}
	if err != nil {
		return apperrors.NewParsingError("failed to extract excess inventory", err).
			WithContext("file", wb.Name)
	}
	res.Processed = len(batch.Records)

	if batch.Vendor != "" {
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("excess.vendor", batch.Vendor))
	}
	logger.DebugContext(ctx, "Excess sheet selected",
		slog.String("vendor", batch.Vendor),
		slog.String("sheet", batch.Sheet),
		slog.String("qty_column", batch.QtyColumn),
		slog.String("price_column", batch.PriceColumn),
		slog.Int("rows_without_mpn", batch.Skipped))

	excess, err := p.acc.MergeExcess(ctx, batch.Records)
	if err != nil {
		return apperrors.NewStorageError("failed to merge excess inventory", err)
	}
	res.ExcessAdded = len(excess.Added)
	res.Added = res.ExcessAdded

	// New supply is matched against all demand seen so far
	matches, err := p.acc.MergeMatches(ctx, dataprocessing.Match(excess.Added, p.acc.HotParts()))
	if err != nil {
		return apperrors.NewStorageError("failed to merge matches", err)
	}
	res.MatchesAdded = len(matches.Added)

	return nil
}

func logSkippedSheets(ctx context.Context, logger *slog.Logger, sheets []dataprocessing.SheetOutcome) {
	for _, s := range sheets {
		if s.Error != "" {
			logger.WarnContext(ctx, "Sheet skipped",
				slog.String("sheet", s.Sheet),
				slog.String("reason", s.Error))
		}
	}
}
