package datasource

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/kbukum/datakit/entity"
	"github.com/kbukum/datakit/errors"
	"github.com/kbukum/datakit/logger"
)

// Batch is an assembled group of samples, column-split into data and labels.
// Data[i] and Labels[i] come from the same sample.
type Batch struct {
	Data   []any
	Labels []any
}

// Size returns the number of samples in the batch.
func (b *Batch) Size() int { return len(b.Data) }

// Dense converts the batch into two dense matrices, one row per sample.
// Every data value must be a numeric scalar or a numeric slice, and all rows
// of a column must share one width; labels likewise.
func (b *Batch) Dense() (*mat.Dense, *mat.Dense, error) {
	if len(b.Data) == 0 {
		return nil, nil, errors.BatchFormat("empty batch")
	}
	data, err := denseOf(b.Data, "data")
	if err != nil {
		return nil, nil, err
	}
	labels, err := denseOf(b.Labels, "labels")
	if err != nil {
		return nil, nil, err
	}
	return data, labels, nil
}

func denseOf(vals []any, column string) (*mat.Dense, error) {
	width := -1
	backing := make([]float64, 0, len(vals))
	for i, v := range vals {
		row, ok := toRow(v)
		if !ok {
			return nil, errors.BatchFormat(fmt.Sprintf("%s[%d] is not numeric (%T)", column, i, v))
		}
		if width == -1 {
			width = len(row)
		} else if len(row) != width {
			return nil, errors.BatchFormat(fmt.Sprintf("%s[%d] has width %d, want %d", column, i, len(row), width))
		}
		backing = append(backing, row...)
	}
	if width == 0 {
		return nil, errors.BatchFormat(column + " rows have zero width")
	}
	return mat.NewDense(len(vals), width, backing), nil
}

func toRow(v any) ([]float64, bool) {
	switch x := v.(type) {
	case float64:
		return []float64{x}, true
	case float32:
		return []float64{float64(x)}, true
	case int:
		return []float64{float64(x)}, true
	case []float64:
		return x, true
	case []float32:
		row := make([]float64, len(x))
		for i, f := range x {
			row[i] = float64(f)
		}
		return row, true
	case []int:
		row := make([]float64, len(x))
		for i, n := range x {
			row[i] = float64(n)
		}
		return row, true
	default:
		return nil, false
	}
}

// Next assembles one full batch of the configured size. It blocks until
// every slot is filled; partial batches are never returned.
func (ds *DataSource) Next(ctx context.Context) (*Batch, error) {
	return ds.NextN(ctx, ds.cfg.BatchSize)
}

// NextN assembles one full batch of n samples.
func (ds *DataSource) NextN(ctx context.Context, n int) (*Batch, error) {
	if n <= 0 {
		return nil, errors.Validation("batch size must be positive")
	}

	start := time.Now()
	b := &Batch{
		Data:   make([]any, 0, n),
		Labels: make([]any, 0, n),
	}
	for b.Size() < n {
		s, err := ds.NextSample(ctx)
		if err != nil {
			return nil, err
		}
		b.Data = append(b.Data, s.Data)
		b.Labels = append(b.Labels, s.Label)
		if ds.metrics != nil {
			ds.metrics.RecordSampleAccepted(ctx, ds.id)
		}
	}

	if ds.cfg.ConvertDense {
		if _, _, err := b.Dense(); err != nil {
			return nil, err
		}
	}

	elapsed := time.Since(start)
	if ds.metrics != nil {
		ds.metrics.RecordBatch(ctx, ds.id, n, elapsed)
	}
	ds.log.Debug("batch assembled", logger.Fields(
		logger.FieldBatchSize, n,
		logger.FieldDuration, elapsed.Milliseconds(),
	))
	return b, nil
}

// NextSample produces one accepted sample. The first call locks the store
// shape and, with Workers > 1, launches the background pipeline.
func (ds *DataSource) NextSample(ctx context.Context) (entity.Sample, error) {
	ds.mu.Lock()
	closed := ds.closed
	ds.mu.Unlock()
	if closed {
		return entity.Sample{}, errors.SourceClosed()
	}

	ds.start()
	if ds.cfg.Workers > 1 {
		return ds.pullSample(ctx)
	}
	return ds.inlineSample(ctx)
}

// inlineSample walks the store on the caller's goroutine until a sample is
// accepted, giving up after MaxAttempts consecutive drops.
func (ds *DataSource) inlineSample(ctx context.Context) (entity.Sample, error) {
	for attempt := 0; attempt < ds.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return entity.Sample{}, err
		}
		e := ds.nextEntity(ctx)
		s, ok := ds.materialize(ctx, ds.rng, e)
		ds.maybeEvict(ctx, e)
		if ok {
			return s, nil
		}
	}
	return entity.Sample{}, errors.BatchStalled(ds.cfg.MaxAttempts)
}

// pullSample receives one sample from the worker pool, bounded by the
// per-sample timeout or the default stall wait.
func (ds *DataSource) pullSample(ctx context.Context) (entity.Sample, error) {
	wait := ds.cfg.Timeout
	if wait <= 0 {
		wait = defaultStallWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case s := <-ds.sampleCh:
		return s, nil
	case <-ctx.Done():
		return entity.Sample{}, ctx.Err()
	case <-timer.C:
		return entity.Sample{}, errors.Timeout("next_sample")
	}
}
