package countstore

import (
	"context"
	"sync"
	"time"
)

type MemCountStore struct {
	mu     sync.Mutex
	Counts map[string]int
	// overridable for tests; defaults to time.Now
	Now func() time.Time
}

func NewMemCountStore() *MemCountStore {
	return &MemCountStore{
		Counts: make(map[string]int),
		Now:    time.Now,
	}
}

func (s *MemCountStore) GetCount(ctx context.Context, name, val, period string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Counts[periodBucket(s.Now(), name, val, period)], nil
}

func (s *MemCountStore) Increment(ctx context.Context, name, val string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	for _, p := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		s.Counts[periodBucket(now, name, val, p)]++
	}
	return nil
}
