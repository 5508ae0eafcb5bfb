package residency

import (
	"context"
	"sync"

	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// Store retains determinations per (user, tax year). One determination is
// authoritative at a time; superseded ones are kept for audit, never deleted.
type Store interface {
	Save(ctx context.Context, userID id.UserID, det Determination) error
	Latest(ctx context.Context, userID id.UserID, year id.TaxYear) (Determination, error)
	History(ctx context.Context, userID id.UserID, year id.TaxYear) ([]Determination, error)
}

type storeKey struct {
	user id.UserID
	year id.TaxYear
}

// InMemoryStore keeps determination history in memory. Suitable for tests
// and single-node deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	history map[storeKey][]Determination
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{history: make(map[storeKey][]Determination)}
}

// Save appends a determination; the newest entry is authoritative.
func (s *InMemoryStore) Save(ctx context.Context, userID id.UserID, det Determination) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := storeKey{user: userID, year: det.TaxYear}
	s.history[key] = append(s.history[key], det)
	return nil
}

// Latest returns the authoritative determination for the year.
func (s *InMemoryStore) Latest(ctx context.Context, userID id.UserID, year id.TaxYear) (Determination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[storeKey{user: userID, year: year}]
	if len(entries) == 0 {
		return Determination{}, dErrors.Newf(dErrors.CodeNotFound, "no determination for %s %s", userID, year)
	}
	return entries[len(entries)-1], nil
}

// History returns every determination ever saved for the year, oldest first.
func (s *InMemoryStore) History(ctx context.Context, userID id.UserID, year id.TaxYear) ([]Determination, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[storeKey{user: userID, year: year}]
	out := make([]Determination, len(entries))
	copy(out, entries)
	return out, nil
}
