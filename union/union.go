package union

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/datakit/datasource"
	"github.com/kbukum/datakit/errors"
	"github.com/kbukum/datakit/logger"
)

// Union composes several data sources into one weighted batch stream.
type Union struct {
	id        string
	sources   []*datasource.DataSource
	weights   []int
	total     int
	batchSize int
	rng       *rand.Rand
	log       *logger.Logger
}

// Option customizes a Union at construction time.
type Option func(*Union)

// WithBatchSize overrides the union's batch size. Defaults to
// datasource.DefaultBatchSize.
func WithBatchSize(n int) Option {
	return func(u *Union) { u.batchSize = n }
}

// WithSeed makes source selection deterministic.
func WithSeed(seed int64) Option {
	return func(u *Union) { u.rng = rand.New(rand.NewSource(seed)) }
}

// New builds a Union over the given sources. Each source is weighted by its
// entity count, so larger stores contribute proportionally more samples.
func New(sources []*datasource.DataSource, opts ...Option) (*Union, error) {
	if len(sources) < 2 {
		return nil, errors.Validation("a union needs at least two sources")
	}

	u := &Union{
		id:        strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		sources:   append([]*datasource.DataSource(nil), sources...),
		batchSize: datasource.DefaultBatchSize,
	}
	for _, src := range u.sources {
		if src == nil {
			return nil, errors.Validation("union sources must be non-nil")
		}
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.batchSize <= 0 {
		return nil, errors.Validation("batch size must be positive")
	}
	if u.rng == nil {
		u.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	u.weights = make([]int, len(u.sources))
	for i, src := range u.sources {
		n := src.Len()
		if n == 0 {
			return nil, errors.EmptySource("union")
		}
		u.weights[i] = n
		u.total += n
	}

	u.log = logger.WithComponent("union").WithFields(logger.Fields(
		logger.FieldSourceID, u.id,
		"sources", len(u.sources),
		logger.FieldCount, u.total,
	))
	u.log.Info("union created")
	return u, nil
}

// Combine merges two dataset values into a Union. Each argument may be a
// *datasource.DataSource or a *Union; unions are flattened, never nested.
func Combine(a, b any) (*Union, error) {
	left, err := sourcesOf(a)
	if err != nil {
		return nil, err
	}
	right, err := sourcesOf(b)
	if err != nil {
		return nil, err
	}
	merged := make([]*datasource.DataSource, 0, len(left)+len(right))
	merged = append(merged, left...)
	merged = append(merged, right...)
	return New(merged)
}

func sourcesOf(v any) ([]*datasource.DataSource, error) {
	switch x := v.(type) {
	case *datasource.DataSource:
		if x == nil {
			return nil, errors.Composition("nil *datasource.DataSource")
		}
		return []*datasource.DataSource{x}, nil
	case *Union:
		if x == nil {
			return nil, errors.Composition("nil *union.Union")
		}
		return x.Sources(), nil
	default:
		return nil, errors.Composition(fmt.Sprintf("%T", v))
	}
}

// Sources returns a copy of the member source list.
func (u *Union) Sources() []*datasource.DataSource {
	return append([]*datasource.DataSource(nil), u.sources...)
}

// Len returns the total entity count across all members.
func (u *Union) Len() int { return u.total }

// Next assembles one full batch of the union's batch size.
func (u *Union) Next(ctx context.Context) (*datasource.Batch, error) {
	return u.NextN(ctx, u.batchSize)
}

// NextN assembles one full batch of n samples, each drawn from a member
// source chosen by weight.
func (u *Union) NextN(ctx context.Context, n int) (*datasource.Batch, error) {
	if n <= 0 {
		return nil, errors.Validation("batch size must be positive")
	}

	b := &datasource.Batch{
		Data:   make([]any, 0, n),
		Labels: make([]any, 0, n),
	}
	for b.Size() < n {
		src := u.pick()
		s, err := src.NextSample(ctx)
		if err != nil {
			return nil, err
		}
		b.Data = append(b.Data, s.Data)
		b.Labels = append(b.Labels, s.Label)
	}
	return b, nil
}

// pick selects a member source with probability proportional to its weight.
func (u *Union) pick() *datasource.DataSource {
	r := u.rng.Intn(u.total)
	for i, w := range u.weights {
		if r < w {
			return u.sources[i]
		}
		r -= w
	}
	return u.sources[len(u.sources)-1]
}

// Close closes every member source, returning the first failure.
func (u *Union) Close() error {
	var first error
	for _, src := range u.sources {
		if err := src.Close(); err != nil && first == nil {
			first = err
		}
	}
	u.log.Debug("union closed")
	return first
}
