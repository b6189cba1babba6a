package credential

import (
	"context"
	"sync"

	"chainpass/pkg/domain"
	"chainpass/pkg/platform/sentinel"
)

// InMemoryStore keeps credential records in process memory behind one
// RWMutex; per-email write volume is one registration plus occasional
// counter bumps.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Email]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.Email]Record)}
}

func (s *InMemoryStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.OwnerEmail] = record
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, email domain.Email) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[email]; ok {
		return record, nil
	}
	return Record{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) Exists(_ context.Context, email domain.Email) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[email]
	return ok, nil
}

func (s *InMemoryStore) UpdateCounter(_ context.Context, email domain.Email, newCounter uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[email]
	if !ok {
		return sentinel.ErrNotFound
	}
	record.SignCount = newCounter
	s.records[email] = record
	return nil
}

// IncrementCounter reads and advances the counter under the same lock, so
// concurrent callers each observe a distinct value.
func (s *InMemoryStore) IncrementCounter(_ context.Context, email domain.Email) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[email]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	record.SignCount++
	s.records[email] = record
	return record.SignCount, nil
}
