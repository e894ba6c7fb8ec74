// FILE: lixenwraith/appsettings/mapstore.go
package appsettings

import (
	"strings"
	"sync"
)

// MapStore is an in-memory Store of flat dotted keys.
// The host may mutate it concurrently with lookups.
type MapStore struct {
	mu       sync.RWMutex
	values   map[string]string
	sections map[string]bool
}

// NewMapStore creates a store holding a copy of values.
func NewMapStore(values map[string]string) *MapStore {
	s := &MapStore{
		values:   make(map[string]string, len(values)),
		sections: make(map[string]bool),
	}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

func (s *MapStore) Lookup(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MapStore) HasDescendants(prefix string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := prefix + KeyDelimiter
	for key := range s.values {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func (s *MapStore) Keys(prefix string) []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for key := range s.values {
		keys = append(keys, key)
	}
	s.mu.RUnlock()
	return keysUnder(keys, prefix)
}

// HasSection reports whether path was declared with DeclareSection.
func (s *MapStore) HasSection(path string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sections[path]
}

// DeclareSection marks path as a namespace even while it has no keys.
func (s *MapStore) DeclareSection(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sections[path] = true
}

// Set stores value under key.
func (s *MapStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key.
func (s *MapStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Replace swaps the whole content of the store for a copy of values.
func (s *MapStore) Replace(values map[string]string) {
	fresh := make(map[string]string, len(values))
	for k, v := range values {
		fresh[k] = v
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = fresh
}

// Snapshot returns a copy of the stored values.
func (s *MapStore) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Len returns the number of stored keys.
func (s *MapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
