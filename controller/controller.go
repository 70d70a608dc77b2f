package controller

import (
	"context"
	"math/rand"

	"github.com/kbukum/datakit/entity"
)

// Func inspects one sample and returns the (possibly transformed) sample.
// ok=false rejects the sample; "accept unchanged" is returning the input
// sample with ok=true. An error marks the sample as failed rather than
// rejected; callers treat both as a drop.
type Func func(ctx context.Context, s entity.Sample) (entity.Sample, bool, error)

// Prefilter is an entity-level predicate applied once at startup, before any
// batching. It sees only the entity's identity, not materialized samples.
type Prefilter func(e entity.Entity) bool

// Stage is one link of a Chain: either a single controller or a group of
// alternatives resolved by random choice per sample.
type Stage struct {
	single Func
	oneOf  []Func
}

// Single wraps one controller function as a stage.
func Single(fn Func) Stage {
	return Stage{single: fn}
}

// OneOf wraps a group of alternative controllers; one is picked uniformly at
// random each time the stage runs.
func OneOf(fns ...Func) Stage {
	return Stage{oneOf: fns}
}

// resolve returns the controller to run for this application of the stage.
// rng may be nil, in which case alternatives are picked via the package-global
// source.
func (st Stage) resolve(rng *rand.Rand) Func {
	if st.single != nil {
		return st.single
	}
	if len(st.oneOf) == 0 {
		return nil
	}
	if rng != nil {
		return st.oneOf[rng.Intn(len(st.oneOf))]
	}
	return st.oneOf[rand.Intn(len(st.oneOf))]
}

// Chain is an ordered sequence of stages.
type Chain []Stage

// Apply runs the chain over a sample. Rejection is absorbing: the first
// stage returning ok=false stops the chain and discards the sample.
func (c Chain) Apply(ctx context.Context, s entity.Sample) (entity.Sample, bool, error) {
	return c.ApplyWith(ctx, nil, s)
}

// ApplyWith is Apply with an explicit random source for OneOf stages, for
// callers that need the alternative picks to be reproducible. rng must not be
// shared across goroutines without locking; pass nil to fall back to the
// package-global source.
func (c Chain) ApplyWith(ctx context.Context, rng *rand.Rand, s entity.Sample) (entity.Sample, bool, error) {
	for _, st := range c {
		fn := st.resolve(rng)
		if fn == nil {
			continue
		}
		out, ok, err := fn(ctx, s)
		if err != nil {
			return entity.Sample{}, false, err
		}
		if !ok {
			return entity.Sample{}, false, nil
		}
		s = out
	}
	return s, true, nil
}
