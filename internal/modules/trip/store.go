// README: Conversation store: one in-progress trip record per identity.
package trip

import (
	"context"
	"sync"
)

// Store keys exactly one in-progress Record by caller identity. The store
// exclusively owns the records; callers always work on copies. Sessions are
// never expired by the store itself (the redis backend can be given a TTL).
type Store interface {
	Get(ctx context.Context, identity string) (Record, bool, error)
	Put(ctx context.Context, identity string, rec Record) error
	Delete(ctx context.Context, identity string) error

	// Count returns the number of active sessions, for administrative
	// reporting.
	Count(ctx context.Context) (int, error)
}

// MemoryStore is the default process-local Store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Record
}

// NewMemoryStore returns a Store holding sessions in process memory.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, identity string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[identity]
	return rec, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, identity string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[identity] = rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, identity)
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions), nil
}
