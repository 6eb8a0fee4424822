package cachestore

import (
	"context"
)

// Get returns an empty string (and no error) on cache miss. Purge of a
// missing key is not an error.
type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}

// entries of different names never collide, in any store
func scopedKey(name, key string) string {
	return name + "/" + key
}
