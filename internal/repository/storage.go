package repository

import (
	"context"
	"sync"
)

// MemStorage хранит записи кеша в памяти процесса.
// Записи не вытесняются и не истекают, удаляются только через Clear.
type MemStorage struct {
	entries map[string]OrderEntry
	mu      sync.RWMutex
}

func NewMemStorage() *MemStorage {
	return &MemStorage{entries: make(map[string]OrderEntry)}
}

func (s *MemStorage) Get(_ context.Context, orderID string) (OrderEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[orderID]
	return entry, ok, nil
}

func (s *MemStorage) Set(_ context.Context, orderID string, entry OrderEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[orderID] = entry
	return nil
}

func (s *MemStorage) Snapshot(_ context.Context) (map[string]OrderEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]OrderEntry, len(s.entries))
	for id, entry := range s.entries {
		out[id] = entry
	}
	return out, nil
}

func (s *MemStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemStorage) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]OrderEntry)
	return nil
}
