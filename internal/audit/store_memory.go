package audit

import (
	"context"
	"sync"

	"chainpass/pkg/domain"
)

// InMemoryStore keeps the event log in process memory. Suitable for tests
// and single-node development runs; production uses the Postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[domain.Address][]Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[domain.Address][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.OwnerAddress] = append(s.events[event.OwnerAddress], event)
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner domain.Address) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[owner]...), nil
}
