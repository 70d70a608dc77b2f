package datasource

import (
	"context"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/datakit/controller"
	"github.com/kbukum/datakit/entity"
	"github.com/kbukum/datakit/errors"
	"github.com/kbukum/datakit/logger"
	"github.com/kbukum/datakit/memory"
	"github.com/kbukum/datakit/observability"
	"github.com/kbukum/datakit/resilience"
	"github.com/kbukum/datakit/retrieval"
)

// DataSource owns a shuffled entity store and assembles fixed-size batches
// from it. Construct with New; a DataSource must not be copied.
type DataSource struct {
	id      string
	cfg     Config
	stages  controller.Chain
	gauge   memory.Gauge
	log     *logger.Logger
	metrics *observability.PipelineMetrics
	factory entity.Factory
	source  retrieval.Retrieval

	mu       sync.Mutex
	entities []entity.Entity
	cursor   int
	epochs   int
	rng      *rand.Rand
	started  bool
	closed   bool

	startOnce sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	entityCh  chan entity.Entity
	sampleCh  chan entity.Sample
}

// New builds a DataSource over a retrieval adapter. The entity list is loaded
// from the adapter's cache when available, enumerated otherwise, prefiltered
// and shuffled. src may be nil, in which case the factory is invoked once
// with id "0" and a nil fetcher.
func New(ctx context.Context, src retrieval.Retrieval, factory entity.Factory, opts ...Option) (*DataSource, error) {
	if factory == nil {
		return nil, errors.Validation("entity factory is required")
	}

	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	o.cfg.ApplyDefaults()
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	log := o.log
	if log == nil {
		log = logger.WithComponent("datasource")
	}
	log = log.WithFields(logger.Fields(logger.FieldSourceID, id))

	rng := o.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	gauge := o.gauge
	if gauge == nil {
		gauge = memory.System{}
	}

	ds := &DataSource{
		id:      id,
		cfg:     o.cfg,
		stages:  o.stages,
		gauge:   gauge,
		log:     log,
		factory: factory,
		source:  src,
		rng:     rng,
	}

	if m, err := observability.NewPipelineMetrics(observability.Meter("datakit/datasource")); err == nil {
		ds.metrics = m
	} else {
		log.Warn("metric instruments unavailable", logger.ErrorFields("init_metrics", err))
	}

	entities, err := ds.loadEntities(ctx)
	if err != nil {
		return nil, err
	}
	entities = ds.prefilter(entities, o.prefilters)
	if len(entities) == 0 {
		return nil, errors.EmptySource("startup")
	}

	rng.Shuffle(len(entities), func(i, j int) {
		entities[i], entities[j] = entities[j], entities[i]
	})
	ds.entities = entities

	log.Info("data source ready", logger.Fields(
		logger.FieldCount, len(entities),
		logger.FieldWorkers, ds.cfg.Workers,
		logger.FieldBatchSize, ds.cfg.BatchSize,
	))
	return ds, nil
}

// loadEntities produces the initial entity list from the cache, the adapter,
// or the synthetic single-entity fallback.
func (ds *DataSource) loadEntities(ctx context.Context) ([]entity.Entity, error) {
	if ds.source == nil {
		e, err := ds.factory(ctx, "0", nil)
		if err != nil {
			return nil, errors.SampleFailure("0", err)
		}
		return []entity.Entity{e}, nil
	}

	if !ds.cfg.IgnoreCache && ds.source.IsCached() {
		entities, err := ds.source.LoadFromCache(ctx, ds.factory)
		if err == nil {
			ds.log.Info("entities loaded from cache", logger.Fields(logger.FieldCount, len(entities)))
			return entities, nil
		}
		ds.log.Warn("cache load failed, falling back to enumeration", logger.ErrorFields("load_cache", err))
	}

	ids, err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() ([]string, error) {
		return ds.source.List(ctx)
	})
	if err != nil {
		return nil, errors.RetrievalFailed("list", err)
	}

	entities := make([]entity.Entity, 0, len(ids))
	for _, eid := range ids {
		e, err := ds.factory(ctx, eid, ds.source)
		if err != nil {
			return nil, errors.SampleFailure(eid, err)
		}
		entities = append(entities, e)
	}

	if !ds.cfg.IgnoreCache {
		if err := ds.source.Cache(ctx, entities); err != nil {
			ds.log.Warn("entity cache write failed", logger.ErrorFields("cache", err))
		}
	}
	return entities, nil
}

// prefilter applies entity-level filters in order, logging the shrink of the
// store after each one.
func (ds *DataSource) prefilter(entities []entity.Entity, filters []controller.Prefilter) []entity.Entity {
	for i, filter := range filters {
		before := len(entities)
		kept := entities[:0]
		for _, e := range entities {
			if filter(e) {
				kept = append(kept, e)
			}
		}
		entities = kept
		ds.log.Info("prefilter applied", logger.Fields(
			"filter", i,
			"before", before,
			"after", len(entities),
		))
	}
	return entities
}

// Len returns the number of entities currently in the store.
func (ds *DataSource) Len() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.entities)
}

// IDs returns the identifiers of all entities in store order.
func (ds *DataSource) IDs() []string {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ids := make([]string, len(ds.entities))
	for i, e := range ds.entities {
		ids[i] = e.UniqueID()
	}
	return ids
}

// Epochs returns how many times the cursor has wrapped around the store.
func (ds *DataSource) Epochs() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.epochs
}

// SaveIDs writes the store's entity identifiers to a file, one per line.
func (ds *DataSource) SaveIDs(path string) error {
	ids := ds.IDs()
	data := strings.Join(ids, "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return errors.CacheFailed("save_ids", err)
	}
	ds.log.Info("entity ids saved", logger.Fields("path", path, logger.FieldCount, len(ids)))
	return nil
}

// FilterIDs restricts the store to the given identifiers. It must be called
// before any batch has been requested; the resulting store must be non-empty.
func (ds *DataSource) FilterIDs(keep []string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return errors.SourceClosed()
	}
	if ds.started {
		return errors.Validation("cannot filter ids after consumption has started")
	}

	allowed := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		allowed[id] = struct{}{}
	}

	before := len(ds.entities)
	kept := ds.entities[:0]
	for _, e := range ds.entities {
		if _, ok := allowed[e.UniqueID()]; ok {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return errors.EmptySource("filter_ids")
	}
	ds.entities = kept
	ds.cursor = 0
	ds.log.Info("entity ids filtered", logger.Fields("before", before, "after", len(kept)))
	return nil
}

// Split partitions the store into two independent data sources holding
// roughly fraction and 1-fraction of the entities. The receiver transfers
// ownership of its entities to the returned sources and must not be consumed
// afterward. Entities that share a backing payload are not deduplicated
// across the two halves; callers needing strict train/test isolation should
// split at the identifier level.
func (ds *DataSource) Split(fraction float64) (*DataSource, *DataSource, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if ds.closed {
		return nil, nil, errors.SourceClosed()
	}
	if ds.started {
		return nil, nil, errors.Validation("cannot split after consumption has started")
	}
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, errors.Validation("split fraction must be in (0, 1)")
	}

	ds.rng.Shuffle(len(ds.entities), func(i, j int) {
		ds.entities[i], ds.entities[j] = ds.entities[j], ds.entities[i]
	})

	cut := int(float64(len(ds.entities)) * fraction)
	if cut == 0 || cut == len(ds.entities) {
		return nil, nil, errors.EmptySource("split")
	}

	left := ds.child(ds.entities[:cut])
	right := ds.child(ds.entities[cut:])
	ds.log.Warn("split partitions entities, not payloads; entities sharing a payload stay correlated across halves")
	ds.log.Info("data source split", logger.Fields(
		"fraction", fraction,
		"left", left.Len(),
		"right", right.Len(),
	))
	return left, right, nil
}

// child builds a fresh DataSource sharing config, stages and adapters but
// owning its own copy of the given entity slice.
func (ds *DataSource) child(entities []entity.Entity) *DataSource {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	own := make([]entity.Entity, len(entities))
	copy(own, entities)
	return &DataSource{
		id:       id,
		cfg:      ds.cfg,
		stages:   ds.stages,
		gauge:    ds.gauge,
		log:      logger.WithComponent("datasource").WithFields(logger.Fields(logger.FieldSourceID, id)),
		metrics:  ds.metrics,
		factory:  ds.factory,
		source:   ds.source,
		entities: own,
		rng:      rand.New(rand.NewSource(ds.rng.Int63())),
	}
}

// Close stops background workers and marks the source closed. Safe to call
// more than once; subsequent batch requests fail with a closed-source error.
func (ds *DataSource) Close() error {
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return nil
	}
	ds.closed = true
	cancel := ds.cancel
	ds.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	ds.wg.Wait()
	ds.log.Debug("data source closed")
	return nil
}

// maybeEvict drops the cached payload of an entity when system memory use is
// above the configured threshold.
func (ds *DataSource) maybeEvict(ctx context.Context, e entity.Entity) {
	used, err := ds.gauge.UsedFraction()
	if err != nil {
		ds.log.Debug("memory gauge unavailable", logger.ErrorFields("gauge", err))
		return
	}
	if used <= ds.cfg.MaxMemPercent {
		return
	}
	e.Evict()
	if ds.metrics != nil {
		ds.metrics.RecordEviction(ctx, ds.id)
	}
	ds.log.Debug("entity payload evicted", logger.Fields(
		logger.FieldEntityID, e.UniqueID(),
		"used_fraction", used,
	))
}
