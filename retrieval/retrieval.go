package retrieval

import (
	"context"

	"github.com/kbukum/datakit/entity"
)

// Retrieval enumerates raw item identifiers, serves payloads, and manages a
// cache of the materialized entity list.
type Retrieval interface {
	entity.Fetcher

	// List enumerates all identifiers known to the store.
	List(ctx context.Context) ([]string, error)
	// IsCached reports whether a previously persisted entity list exists.
	IsCached() bool
	// LoadFromCache rebuilds the cached entity list, constructing each
	// entity with the given factory.
	LoadFromCache(ctx context.Context, f entity.Factory) ([]entity.Entity, error)
	// Cache persists the given entity construction for future reuse.
	Cache(ctx context.Context, entities []entity.Entity) error
}
