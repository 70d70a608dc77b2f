package datasource

import (
	"context"
	stderrors "errors"
	"math/rand"
	"time"

	"github.com/kbukum/datakit/entity"
	"github.com/kbukum/datakit/logger"
)

// defaultStallWait bounds how long a batch request waits on the sample queue
// when no per-sample timeout is configured.
const defaultStallWait = 30 * time.Second

// start marks the source as consuming and, with Workers > 1, launches the
// filler and the worker pool exactly once. Structural operations (Split,
// FilterIDs) are refused after this point.
func (ds *DataSource) start() {
	ds.startOnce.Do(func() {
		ds.mu.Lock()
		ds.started = true
		if ds.cfg.Workers <= 1 || ds.closed {
			ds.mu.Unlock()
			return
		}

		queueSize := ds.cfg.QueueSize
		if queueSize == 0 {
			queueSize = 2 * ds.cfg.BatchSize
		}
		ctx, cancel := context.WithCancel(context.Background())
		ds.cancel = cancel
		ds.entityCh = make(chan entity.Entity, queueSize)
		ds.sampleCh = make(chan entity.Sample, queueSize)
		// Each worker gets its own random source derived from the store's,
		// so controller alternatives stay seedable without sharing a Rand
		// across goroutines.
		seeds := make([]int64, ds.cfg.Workers)
		for i := range seeds {
			seeds[i] = ds.rng.Int63()
		}
		ds.mu.Unlock()

		ds.wg.Add(1 + ds.cfg.Workers)
		go ds.fill(ctx)
		for i := 0; i < ds.cfg.Workers; i++ {
			go ds.work(ctx, rand.New(rand.NewSource(seeds[i])))
		}

		ds.log.Info("pipeline started", logger.Fields(
			logger.FieldWorkers, ds.cfg.Workers,
			"queue_size", queueSize,
		))
	})
}

// fill walks the store cyclically into the entity queue. The bounded channel
// is the backpressure; the filler parks on send when workers fall behind.
func (ds *DataSource) fill(ctx context.Context) {
	defer ds.wg.Done()
	for {
		e := ds.nextEntity(ctx)
		select {
		case ds.entityCh <- e:
		case <-ctx.Done():
			return
		}
	}
}

// work materializes entities from the entity queue into the sample queue.
// Failed or rejected samples are dropped; the worker never stops on them.
func (ds *DataSource) work(ctx context.Context, rng *rand.Rand) {
	defer ds.wg.Done()
	for {
		var e entity.Entity
		select {
		case e = <-ds.entityCh:
		case <-ctx.Done():
			return
		}

		s, ok := ds.materialize(ctx, rng, e)
		ds.maybeEvict(ctx, e)
		if !ok {
			continue
		}

		select {
		case ds.sampleCh <- s:
		case <-ctx.Done():
			return
		}
	}
}

// nextEntity advances the cursor one step, reshuffling the store and bumping
// the epoch counter on wraparound.
func (ds *DataSource) nextEntity(ctx context.Context) entity.Entity {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.cursor >= len(ds.entities) {
		ds.cursor = 0
		ds.epochs++
		ds.rng.Shuffle(len(ds.entities), func(i, j int) {
			ds.entities[i], ds.entities[j] = ds.entities[j], ds.entities[i]
		})
		if ds.metrics != nil {
			ds.metrics.RecordEpoch(ctx, ds.id)
		}
		ds.log.Debug("entity store reshuffled", logger.Fields(logger.FieldEpoch, ds.epochs))
	}
	e := ds.entities[ds.cursor]
	ds.cursor++
	return e
}

// materialize produces a controlled sample from one entity. ok=false means
// the sample was dropped, either rejected by a controller or failed. rng is
// owned by the calling goroutine.
func (ds *DataSource) materialize(ctx context.Context, rng *rand.Rand, e entity.Entity) (entity.Sample, bool) {
	if ds.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ds.cfg.Timeout)
		defer cancel()
	}

	s, err := e.Sample(ctx)
	if err != nil {
		ds.drop(ctx, e, "failed", err)
		return entity.Sample{}, false
	}

	out, ok, err := ds.stages.ApplyWith(ctx, rng, s)
	if err != nil {
		ds.drop(ctx, e, "failed", err)
		return entity.Sample{}, false
	}
	if !ok {
		ds.drop(ctx, e, "rejected", nil)
		return entity.Sample{}, false
	}
	return out, true
}

// drop records a non-accepted sample.
func (ds *DataSource) drop(ctx context.Context, e entity.Entity, reason string, err error) {
	if err != nil && stderrors.Is(err, context.DeadlineExceeded) {
		reason = "timeout"
	}
	if ds.metrics != nil {
		ds.metrics.RecordSampleDropped(ctx, ds.id, reason)
	}
	fields := logger.Fields(logger.FieldEntityID, e.UniqueID(), "reason", reason)
	if err != nil {
		fields[logger.FieldError] = err.Error()
	}
	ds.log.Debug("sample dropped", fields)
}
