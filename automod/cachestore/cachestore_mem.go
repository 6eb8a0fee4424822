package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// In-process store, bounded both in size (least recently used entries are
// evicted first) and in age. State is lost on restart.
type MemCacheStore struct {
	lru *expirable.LRU[string, string]
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, ttl time.Duration) *MemCacheStore {
	return &MemCacheStore{
		lru: expirable.NewLRU[string, string](capacity, nil, ttl),
	}
}

func (s *MemCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	// a miss and an expired entry look the same
	val, _ := s.lru.Get(scopedKey(name, key))
	return val, nil
}

func (s *MemCacheStore) Set(ctx context.Context, name, key string, val string) error {
	s.lru.Add(scopedKey(name, key), val)
	return nil
}

func (s *MemCacheStore) Purge(ctx context.Context, name, key string) error {
	s.lru.Remove(scopedKey(name, key))
	return nil
}

// Number of live entries, across all names.
func (s *MemCacheStore) Len() int {
	return s.lru.Len()
}
