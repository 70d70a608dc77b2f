package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds metric instruments for the batching pipeline.
type PipelineMetrics struct {
	batchTotal     metric.Int64Counter
	batchDuration  metric.Float64Histogram
	sampleAccepted metric.Int64Counter
	sampleDropped  metric.Int64Counter
	entityEvicted  metric.Int64Counter
	epochTotal     metric.Int64Counter
}

// NewPipelineMetrics creates metric instruments on the given meter.
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	batchTotal, err := meter.Int64Counter("batch.total",
		metric.WithDescription("Total number of batches assembled"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating batch.total counter: %w", err)
	}

	batchDuration, err := meter.Float64Histogram("batch.duration",
		metric.WithDescription("Duration of batch assembly in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating batch.duration histogram: %w", err)
	}

	sampleAccepted, err := meter.Int64Counter("sample.accepted",
		metric.WithDescription("Samples accepted into batches"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sample.accepted counter: %w", err)
	}

	sampleDropped, err := meter.Int64Counter("sample.dropped",
		metric.WithDescription("Samples dropped by rejection or failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sample.dropped counter: %w", err)
	}

	entityEvicted, err := meter.Int64Counter("entity.evicted",
		metric.WithDescription("Entity raw-data evictions under memory pressure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating entity.evicted counter: %w", err)
	}

	epochTotal, err := meter.Int64Counter("epoch.total",
		metric.WithDescription("Cursor wraparounds (dataset epochs)"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating epoch.total counter: %w", err)
	}

	return &PipelineMetrics{
		batchTotal:     batchTotal,
		batchDuration:  batchDuration,
		sampleAccepted: sampleAccepted,
		sampleDropped:  sampleDropped,
		entityEvicted:  entityEvicted,
		epochTotal:     epochTotal,
	}, nil
}

// RecordBatch records an assembled batch and its assembly duration.
func (m *PipelineMetrics) RecordBatch(ctx context.Context, source string, size int, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("source", source),
		attribute.Int("batch_size", size),
	)
	m.batchTotal.Add(ctx, 1, attrs)
	m.batchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("source", source),
	))
}

// RecordSampleAccepted records a sample accepted into a batch.
func (m *PipelineMetrics) RecordSampleAccepted(ctx context.Context, source string) {
	m.sampleAccepted.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordSampleDropped records a dropped sample by reason ("rejected", "failed", "timeout").
func (m *PipelineMetrics) RecordSampleDropped(ctx context.Context, source, reason string) {
	m.sampleDropped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("reason", reason),
	))
}

// RecordEviction records an entity raw-data eviction.
func (m *PipelineMetrics) RecordEviction(ctx context.Context, source string) {
	m.entityEvicted.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordEpoch records a cursor wraparound.
func (m *PipelineMetrics) RecordEpoch(ctx context.Context, source string) {
	m.epochTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
