package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/datakit/entity"
	"github.com/kbukum/datakit/retrieval"
)

// Mem is an in-memory retrieval for tests. It is safe for concurrent use and
// supports error injection per operation.
type Mem struct {
	mu       sync.Mutex
	items    map[string][]byte
	manifest []string

	// FetchErr, ListErr and CacheErr, when set, are returned by the
	// corresponding operations.
	FetchErr error
	ListErr  error
	CacheErr error
}

// NewMem builds a Mem preloaded with the given items.
func NewMem(items map[string][]byte) *Mem {
	m := &Mem{items: make(map[string][]byte, len(items))}
	for id, payload := range items {
		m.items[id] = append([]byte(nil), payload...)
	}
	return m
}

// Put stores one item payload.
func (m *Mem) Put(id string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = append([]byte(nil), payload...)
}

// Fetch returns the stored payload for id.
func (m *Mem) Fetch(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	payload, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("testutil: no item %q", id)
	}
	return payload, nil
}

// List enumerates item ids, sorted.
func (m *Mem) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	ids := make([]string, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// IsCached reports whether Cache has stored a manifest.
func (m *Mem) IsCached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.manifest) > 0
}

// LoadFromCache rebuilds entities from the stored manifest.
func (m *Mem) LoadFromCache(ctx context.Context, f entity.Factory) ([]entity.Entity, error) {
	m.mu.Lock()
	ids := append([]string(nil), m.manifest...)
	err := m.CacheErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	entities := make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		e, err := f(ctx, id, m)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}

// Cache stores the entity ids as the manifest.
func (m *Mem) Cache(_ context.Context, entities []entity.Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CacheErr != nil {
		return m.CacheErr
	}
	m.manifest = m.manifest[:0]
	for _, e := range entities {
		m.manifest = append(m.manifest, e.UniqueID())
	}
	return nil
}

var _ retrieval.Retrieval = (*Mem)(nil)
