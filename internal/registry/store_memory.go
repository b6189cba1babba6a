package registry

import (
	"context"
	"sync"

	"chainpass/pkg/domain"
	"chainpass/pkg/platform/sentinel"
)

// InMemoryStore keeps records in process memory. One mutex covers the
// record map and both uniqueness indexes so check-then-insert is atomic;
// registrant volume is small enough that a single lock is fine.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Address]*Record
	order   []domain.Address
	byEmail map[domain.Email]domain.Address
	byHash  map[domain.IDHash]domain.Address
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[domain.Address]*Record),
		byEmail: make(map[domain.Email]domain.Address),
		byHash:  make(map[domain.IDHash]domain.Address),
	}
}

func (s *InMemoryStore) Create(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.OwnerAddress]; ok && existing.Active {
		return ErrAddressTaken
	}
	if _, ok := s.byEmail[record.Email]; ok {
		return ErrEmailTaken
	}
	if _, ok := s.byHash[record.IDHash]; ok {
		return ErrIDHashTaken
	}

	stored := record
	stored.Active = true
	if _, seen := s.records[record.OwnerAddress]; !seen {
		s.order = append(s.order, record.OwnerAddress)
	}
	s.records[record.OwnerAddress] = &stored
	s.byEmail[record.Email] = record.OwnerAddress
	s.byHash[record.IDHash] = record.OwnerAddress
	return nil
}

func (s *InMemoryStore) FindByOwner(_ context.Context, owner domain.Address) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if record, ok := s.records[owner]; ok && record.Active {
		return *record, nil
	}
	return Record{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email domain.Email) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if owner, ok := s.byEmail[email]; ok {
		if record, ok := s.records[owner]; ok && record.Active {
			return *record, nil
		}
	}
	return Record{}, sentinel.ErrNotFound
}

// ListActive returns active records in registration order. Callers treat
// this as an administrative enumeration; volume stays small by design.
func (s *InMemoryStore) ListActive(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]Record, 0, len(s.order))
	for _, owner := range s.order {
		if record, ok := s.records[owner]; ok && record.Active {
			records = append(records, *record)
		}
	}
	return records, nil
}

func (s *InMemoryStore) CountActive(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, record := range s.records {
		if record.Active {
			count++
		}
	}
	return count, nil
}

// Deactivate flips the record inactive and frees its email and id-hash for
// re-registration. The record itself stays in the map; the log is
// append-only.
func (s *InMemoryStore) Deactivate(_ context.Context, owner domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[owner]
	if !ok || !record.Active {
		return sentinel.ErrNotFound
	}
	record.Active = false
	delete(s.byEmail, record.Email)
	delete(s.byHash, record.IDHash)
	return nil
}
