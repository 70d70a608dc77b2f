package datasource

import (
	"math/rand"
	"time"

	"github.com/kbukum/datakit/controller"
	"github.com/kbukum/datakit/errors"
	"github.com/kbukum/datakit/logger"
	"github.com/kbukum/datakit/memory"
	"github.com/kbukum/datakit/validation"
)

const (
	// DefaultBatchSize is used when no batch size is configured.
	DefaultBatchSize = 30

	// DefaultMaxAttempts bounds consecutive non-accepted samples while
	// assembling a batch inline before the assembler gives up.
	DefaultMaxAttempts = 100

	// DefaultMaxMemPercent is the used-memory fraction above which
	// materialized entity payloads are evicted.
	DefaultMaxMemPercent = 0.95
)

// Config holds the tunable knobs of a DataSource. The zero value is not
// usable; apply defaults before validating.
type Config struct {
	// BatchSize is the exact number of samples per assembled batch.
	BatchSize int `mapstructure:"batch_size" validate:"gt=0"`

	// Workers is the number of sample workers. One means fully inline
	// operation with no background goroutines.
	Workers int `mapstructure:"workers" validate:"gte=1"`

	// QueueSize caps the entity and sample queues. Only meaningful with
	// Workers > 1; zero means 2*BatchSize.
	QueueSize int `mapstructure:"queue_size" validate:"gte=0"`

	// Timeout bounds a single sample materialization (fetch, decode and
	// controller chain). Zero disables the per-sample deadline.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// MaxAttempts bounds consecutive rejected or failed samples during
	// inline assembly.
	MaxAttempts int `mapstructure:"max_attempts" validate:"gte=0"`

	// MaxMemPercent is the used-memory fraction that triggers eviction of
	// cached entity payloads, in (0, 1].
	MaxMemPercent float64 `mapstructure:"max_mem_percent" validate:"gt=0,lte=1"`

	// ConvertDense validates on assembly that every batch converts to
	// dense matrices.
	ConvertDense bool `mapstructure:"convert_dense"`

	// IgnoreCache skips the retrieval's cache on both load and store.
	IgnoreCache bool `mapstructure:"ignore_cache"`
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		BatchSize:     DefaultBatchSize,
		Workers:       1,
		MaxAttempts:   DefaultMaxAttempts,
		MaxMemPercent: DefaultMaxMemPercent,
	}
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxMemPercent == 0 {
		c.MaxMemPercent = DefaultMaxMemPercent
	}
}

// Validate checks field ranges and cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return errors.InvalidConfig("config", err.Error())
	}
	v := validation.New()
	v.Check(c.QueueSize == 0 || c.Workers > 1, "queue_size", "requires workers > 1")
	if err := v.Error(); err != nil {
		return errors.InvalidConfig("queue_size", err.Error())
	}
	return nil
}

type options struct {
	cfg        Config
	stages     controller.Chain
	prefilters []controller.Prefilter
	gauge      memory.Gauge
	log        *logger.Logger
	rng        *rand.Rand
}

// Option customizes a DataSource at construction time.
type Option func(*options)

// WithConfig replaces the whole configuration. Defaults are still applied to
// unset fields.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithBatchSize sets the number of samples per batch.
func WithBatchSize(n int) Option {
	return func(o *options) { o.cfg.BatchSize = n }
}

// WithWorkers sets the number of sample workers.
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Workers = n }
}

// WithQueueSize caps the entity and sample queues.
func WithQueueSize(n int) Option {
	return func(o *options) { o.cfg.QueueSize = n }
}

// WithTimeout bounds a single sample materialization.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.cfg.Timeout = d }
}

// WithMaxAttempts bounds consecutive non-accepted samples during inline
// assembly.
func WithMaxAttempts(n int) Option {
	return func(o *options) { o.cfg.MaxAttempts = n }
}

// WithMaxMemPercent sets the eviction threshold as a used-memory fraction.
func WithMaxMemPercent(p float64) Option {
	return func(o *options) { o.cfg.MaxMemPercent = p }
}

// WithConvertDense makes batch assembly validate dense conversion eagerly.
func WithConvertDense(on bool) Option {
	return func(o *options) { o.cfg.ConvertDense = on }
}

// WithIgnoreCache skips the retrieval cache entirely.
func WithIgnoreCache(on bool) Option {
	return func(o *options) { o.cfg.IgnoreCache = on }
}

// WithControllers sets the per-sample transformation chain. Stages run in
// order; a rejecting stage drops the sample.
func WithControllers(stages ...controller.Stage) Option {
	return func(o *options) { o.stages = controller.Chain(stages) }
}

// WithPrefilters sets entity-level filters applied once at construction,
// before any sample is materialized.
func WithPrefilters(filters ...controller.Prefilter) Option {
	return func(o *options) { o.prefilters = filters }
}

// WithGauge replaces the system memory gauge. Useful in tests.
func WithGauge(g memory.Gauge) Option {
	return func(o *options) { o.gauge = g }
}

// WithLogger replaces the source's logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithSeed makes shuffling deterministic.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewSource(seed)) }
}
