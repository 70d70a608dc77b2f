package testutil

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/datakit/entity"
)

// StaticEntity is a scripted entity. It returns a fixed sample (or a fixed
// error) and counts materializations and evictions.
type StaticEntity struct {
	ID    string
	Data  any
	Label any
	Err   error

	sampleCalls int32
	evictions   int32
}

func (e *StaticEntity) UniqueID() string { return e.ID }

func (e *StaticEntity) Sample(_ context.Context) (entity.Sample, error) {
	atomic.AddInt32(&e.sampleCalls, 1)
	if e.Err != nil {
		return entity.Sample{}, e.Err
	}
	return entity.Sample{Data: e.Data, Label: e.Label}, nil
}

func (e *StaticEntity) Evict() { atomic.AddInt32(&e.evictions, 1) }

// SampleCalls returns how many times Sample ran.
func (e *StaticEntity) SampleCalls() int { return int(atomic.LoadInt32(&e.sampleCalls)) }

// Evictions returns how many times Evict ran.
func (e *StaticEntity) Evictions() int { return int(atomic.LoadInt32(&e.evictions)) }

// StaticFactory builds StaticEntity values whose data and label both carry
// the entity id.
func StaticFactory() entity.Factory {
	return func(_ context.Context, id string, _ entity.Fetcher) (entity.Entity, error) {
		return &StaticEntity{ID: id, Data: id, Label: id}, nil
	}
}

// BytesFactory builds lazily fetched entities whose sample data is the raw
// payload and whose label is the entity id.
func BytesFactory() entity.Factory {
	return func(_ context.Context, id string, fetch entity.Fetcher) (entity.Entity, error) {
		return entity.NewRaw(id, fetch, func(id string, raw []byte) (entity.Sample, error) {
			return entity.Sample{Data: raw, Label: id}, nil
		}), nil
	}
}

var _ entity.Entity = (*StaticEntity)(nil)
