package entity

import "context"

// Sample is a (data, label) pair derived from an entity.
type Sample struct {
	Data  any
	Label any
}

// Entity is one addressable unit of raw data capable of producing a sample.
type Entity interface {
	// UniqueID returns the entity's identifier.
	UniqueID() string
	// Sample materializes one sample from the entity. Implementations may
	// fetch and cache raw data lazily on first call.
	Sample(ctx context.Context) (Sample, error)
	// Evict releases any cached raw data. Best-effort; a following Sample
	// call re-fetches.
	Evict()
}

// Fetcher provides raw payload access by entity id. The retrieval adapter
// satisfies this; entities hold only this narrow view of it.
type Fetcher interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// Factory constructs one Entity per identifier. fetch is nil when the data
// source runs without a retrieval adapter.
type Factory func(ctx context.Context, id string, fetch Fetcher) (Entity, error)
