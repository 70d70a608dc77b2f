package entity

import (
	"context"
	"fmt"
	"sync"
)

// DecodeFunc turns an entity's raw payload into a sample.
type DecodeFunc func(id string, raw []byte) (Sample, error)

// Raw is an Entity backed by a lazily fetched raw payload plus a
// caller-supplied decode function. The payload is cached after the first
// fetch and released by Evict.
type Raw struct {
	id     string
	fetch  Fetcher
	decode DecodeFunc

	mu  sync.Mutex
	raw []byte
	set bool
}

// NewRaw creates a Raw entity. fetch may be nil if the payload is provided
// up front via SetRaw.
func NewRaw(id string, fetch Fetcher, decode DecodeFunc) *Raw {
	return &Raw{id: id, fetch: fetch, decode: decode}
}

// UniqueID returns the entity's identifier.
func (e *Raw) UniqueID() string { return e.id }

// SetRaw installs the payload directly, bypassing the fetcher. Used when
// loading from a cache or constructing synthetic entities.
func (e *Raw) SetRaw(raw []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.raw = raw
	e.set = true
}

// Cached reports whether the raw payload is currently held in memory.
func (e *Raw) Cached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Sample fetches (if needed), caches, and decodes the raw payload.
func (e *Raw) Sample(ctx context.Context) (Sample, error) {
	raw, err := e.load(ctx)
	if err != nil {
		return Sample{}, err
	}
	if e.decode == nil {
		return Sample{}, fmt.Errorf("entity %s has no decode function", e.id)
	}
	return e.decode(e.id, raw)
}

// Evict releases the cached raw payload.
func (e *Raw) Evict() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.raw = nil
	e.set = false
}

func (e *Raw) load(ctx context.Context) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set {
		return e.raw, nil
	}
	if e.fetch == nil {
		return nil, fmt.Errorf("entity %s has no payload and no fetcher", e.id)
	}
	raw, err := e.fetch.Fetch(ctx, e.id)
	if err != nil {
		return nil, err
	}
	e.raw = raw
	e.set = true
	return raw, nil
}
