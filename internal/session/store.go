package session

import "sync"

type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Load() (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyValues(s.values), nil
}

func (s *MemoryStore) Save(values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = copyValues(values)
	return nil
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
