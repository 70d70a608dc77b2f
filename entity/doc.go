// Package entity defines the data model for datakit pipelines: the Entity,
// one addressable unit of raw data, and the Sample it produces.
//
// Domain-specific decoding stays outside datakit. Callers either implement
// Entity directly or use Raw with a decode function:
//
//	factory := func(_ context.Context, id string, fetch entity.Fetcher) (entity.Entity, error) {
//	    return entity.NewRaw(id, fetch, decodeMIDI), nil
//	}
package entity
