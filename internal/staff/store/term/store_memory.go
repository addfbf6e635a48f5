package term

import (
	"context"
	"sort"
	"sync"

	"curia/internal/staff/models"
	id "curia/pkg/domain"
	"curia/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for unit tests.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.TermID]*models.TermRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.TermID]*models.TermRecord)}
}

func (s *InMemory) Create(_ context.Context, record *models.TermRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	clone := *record
	s.records[record.ID] = &clone
	return nil
}

func (s *InMemory) FindByID(_ context.Context, termID id.TermID) (*models.TermRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[termID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *InMemory) ListByStaff(_ context.Context, staffID id.StaffID) ([]*models.TermRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(r *models.TermRecord) bool { return r.StaffID == staffID }), nil
}

func (s *InMemory) ListByParish(_ context.Context, parishID id.ParishID) ([]*models.TermRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter(func(r *models.TermRecord) bool { return r.ParishID == parishID }), nil
}

func (s *InMemory) filter(keep func(*models.TermRecord) bool) []*models.TermRecord {
	var out []*models.TermRecord
	for _, record := range s.records {
		if keep(record) {
			clone := *record
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TermEnd.After(out[j].TermEnd)
	})
	return out
}
