package operations

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"hotparts/internal/infrastructure"
)

// Metrics holds the pipeline instruments.
type Metrics struct {
	filesProcessed   metric.Int64Counter
	recordsAdded     metric.Int64Counter
	recordsDuplicate metric.Int64Counter
	passDuration     metric.Float64Histogram
}

// NewMetrics creates the pipeline instruments on meter, or on the global
// meter provider when meter is nil.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(infrastructure.InstrumentationName)
	}

	filesProcessed, err := meter.Int64Counter(
		"hotparts.files.processed",
		metric.WithDescription("Files passed through the pipeline"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create files counter: %w", err)
	}

	recordsAdded, err := meter.Int64Counter(
		"hotparts.records.added",
		metric.WithDescription("Records added to a master collection"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create added counter: %w", err)
	}

	recordsDuplicate, err := meter.Int64Counter(
		"hotparts.records.duplicate",
		metric.WithDescription("Extracted records already present in the masters"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duplicate counter: %w", err)
	}

	passDuration, err := meter.Float64Histogram(
		"hotparts.pass.duration",
		metric.WithDescription("Duration of one file pass"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}

	return &Metrics{
		filesProcessed:   filesProcessed,
		recordsAdded:     recordsAdded,
		recordsDuplicate: recordsDuplicate,
		passDuration:     passDuration,
	}, nil
}

// RecordPass records the counters of one finished pass.
func (m *Metrics) RecordPass(ctx context.Context, res Result) {
	if m == nil {
		return
	}

	kind := attribute.String("kind", string(res.FileType))
	m.filesProcessed.Add(ctx, 1, metric.WithAttributes(kind, attribute.String("status", string(res.Status))))
	m.passDuration.Record(ctx, res.Duration.Seconds(), metric.WithAttributes(kind))

	added := map[string]int{
		"hot_parts": res.HotPartsAdded,
		"pivot":     res.PivotAdded,
		"excess":    res.ExcessAdded,
		"matches":   res.MatchesAdded,
	}
	for collection, n := range added {
		if n > 0 {
			m.recordsAdded.Add(ctx, int64(n), metric.WithAttributes(attribute.String("collection", collection)))
		}
	}

	if res.Skipped > 0 {
		m.recordsDuplicate.Add(ctx, int64(res.Skipped), metric.WithAttributes(kind))
	}
}
