package store

import "context"

// Backend is raw keyed persistence for records. Implementations do not
// apply policy: validation and eviction live in Store.
//
// Get returns (nil, nil) when no record exists.
type Backend interface {
	Put(ctx context.Context, rec Record) error
	Get(ctx context.Context, videoID string) (*Record, error)
	// Delete reports whether a record was present.
	Delete(ctx context.Context, videoID string) (bool, error)
	List(ctx context.Context) ([]Record, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Close() error
}
