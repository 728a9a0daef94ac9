package drafts

import (
	"context"
	"sync"
)

// MemoryStore keeps drafts in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	drafts map[string]Draft
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string]Draft)}
}

func (s *MemoryStore) Put(_ context.Context, d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.Payload = append([]byte(nil), d.Payload...)
	s.drafts[storeKey(d.OwnerID, d.Key)] = d
	return nil
}

func (s *MemoryStore) Get(_ context.Context, ownerID, key string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[storeKey(ownerID, key)]
	if !ok {
		return Draft{}, ErrNotFound
	}
	return d, nil
}

func (s *MemoryStore) Delete(_ context.Context, ownerID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, storeKey(ownerID, key))
	return nil
}

func storeKey(ownerID, key string) string {
	return ownerID + "\x00" + key
}
