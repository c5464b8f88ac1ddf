package kvstore

import (
	"errors"
	"sort"
	"sync"
)

// Store is a synchronous string key/value substrate. It mirrors the storage the
// client persists against in the browser build: Get misses are not errors, Set may
// fail when the backend's capacity is exhausted, and writes are last-writer-wins
// across processes.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string)
	Keys() []string
}

// ErrQuotaExceeded is returned by Set when a configured byte quota would be
// exceeded. The write is not applied.
var ErrQuotaExceeded = errors.New("kvstore: quota exceeded")

// MemStore is an in-memory Store. Used for tests and for guest-grade transience.
type MemStore struct {
	mu    sync.Mutex
	data  map[string]string
	quota int
}

// NewMemStore returns a MemStore limited to quota bytes across all keys and
// values. quota <= 0 means unlimited.
func NewMemStore(quota int) *MemStore {
	return &MemStore{data: make(map[string]string), quota: quota}
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *MemStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quota > 0 {
		total := 0
		for k, v := range s.data {
			if k == key {
				continue
			}
			total += len(k) + len(v)
		}
		if total+len(key)+len(value) > s.quota {
			return ErrQuotaExceeded
		}
	}
	s.data[key] = value
	return nil
}

func (s *MemStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

func (s *MemStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
