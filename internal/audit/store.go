package audit

import (
	"context"
	"sync"

	id "goalplan/pkg/domain"
	dErrors "goalplan/pkg/domain-errors"
)

// Store persists calculation audit records. Append-only; records are never
// updated or deleted.
type Store interface {
	Append(ctx context.Context, record CalculationAuditRecord) error
	Get(ctx context.Context, recordID id.AuditRecordID) (CalculationAuditRecord, error)
	ListByUser(ctx context.Context, userID id.UserID, year id.TaxYear) ([]CalculationAuditRecord, error)
}

// InMemoryStore backs tests and deployments without Postgres wired.
type InMemoryStore struct {
	mu      sync.RWMutex
	byID    map[id.AuditRecordID]CalculationAuditRecord
	ordered []id.AuditRecordID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[id.AuditRecordID]CalculationAuditRecord)}
}

// Append rejects a duplicate record ID with Conflict to preserve the
// write-once contract.
func (s *InMemoryStore) Append(ctx context.Context, record CalculationAuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[record.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "audit record %s already written", record.ID)
	}
	s.byID[record.ID] = record
	s.ordered = append(s.ordered, record.ID)
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, recordID id.AuditRecordID) (CalculationAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.byID[recordID]
	if !ok {
		return CalculationAuditRecord{}, dErrors.Newf(dErrors.CodeNotFound, "audit record %s not found", recordID)
	}
	return record, nil
}

// ListByUser returns the user's records for a year in append order.
func (s *InMemoryStore) ListByUser(ctx context.Context, userID id.UserID, year id.TaxYear) ([]CalculationAuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []CalculationAuditRecord
	for _, recordID := range s.ordered {
		record := s.byID[recordID]
		if record.UserID == userID && record.TaxYear == year {
			out = append(out, record)
		}
	}
	return out, nil
}
