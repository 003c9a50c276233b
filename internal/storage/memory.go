package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps values in process. It backs tests and dry runs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string][]byte
	opts   Options
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{values: make(map[string][]byte), opts: opts}
}

func (s *MemoryStore) Initialize() error { return nil }

func (s *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	if err := s.opts.check(key, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Keys returns the number of stored keys.
func (s *MemoryStore) Keys() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

func (s *MemoryStore) Close() error { return nil }
