package cmap

import (
	"sort"
	"strings"
)

// Range calls fn for every entry until fn returns false.
// fn runs under the shard read lock and must not write to the map.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns all keys in unspecified order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(k string, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// SortedKeys returns the keys that start with prefix in ascending order.
func (m *Map[V]) SortedKeys(prefix string) []string {
	var keys []string
	m.Range(func(k string, _ V) bool {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
		return true
	})
	sort.Strings(keys)
	return keys
}

// Update replaces the value under key with fn(existing, exists) atomically.
func (m *Map[V]) Update(key string, fn func(value V, exists bool) V) V {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.items[key]
	next := fn(existing, ok)
	s.items[key] = next
	return next
}

// DeleteIf removes every entry for which fn returns true and returns the
// removed entries.
func (m *Map[V]) DeleteIf(fn func(key string, value V) bool) map[string]V {
	removed := make(map[string]V)
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if fn(k, v) {
				removed[k] = v
				delete(s.items, k)
			}
		}
		s.mu.Unlock()
	}
	return removed
}
