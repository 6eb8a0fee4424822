package setstore

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Named sets of strings (eg, "bad-domains"), consulted by signatures.
//
// Lookups are synchronous and in-process, because signatures are pure
// predicates which must not block on the network.
type SetStore interface {
	InSet(name, val string) bool
}

type MemSetStore struct {
	mu   sync.RWMutex
	Sets map[string]map[string]bool
}

var _ SetStore = (*MemSetStore)(nil)

func NewMemSetStore() *MemSetStore {
	return &MemSetStore{
		Sets: make(map[string]map[string]bool),
	}
}

// Values are compared case-insensitively.
func (s *MemSetStore) InSet(name, val string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.Sets[name]
	if !ok {
		// NOTE: currently returns false when entire set isn't found
		return false
	}
	return set[strings.ToLower(val)]
}

func (s *MemSetStore) Add(name string, vals ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.Sets[name]
	if !ok {
		set = make(map[string]bool, len(vals))
		s.Sets[name] = set
	}
	for _, v := range vals {
		set[strings.ToLower(v)] = true
	}
}

// Loads a JSON object mapping set names to lists of values. Sets named in
// the file replace any existing set of the same name.
func (s *MemSetStore) LoadFromFileJSON(p string) error {
	raw, err := os.ReadFile(p)
	if err != nil {
		return err
	}

	var sets map[string][]string
	if err := json.Unmarshal(raw, &sets); err != nil {
		return fmt.Errorf("parsing sets file %s: %w", p, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for name, l := range sets {
		m := make(map[string]bool, len(l))
		for _, val := range l {
			m[strings.ToLower(val)] = true
		}
		s.Sets[name] = m
	}
	return nil
}
