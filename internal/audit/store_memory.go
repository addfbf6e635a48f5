package audit

import (
	"context"
	"sync"
	"time"

	id "curia/pkg/domain"
)

// InMemory is a slice-backed Store for unit tests.
type InMemory struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemory) ListByTarget(_ context.Context, targetType, targetID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, event := range s.events {
		if event.TargetType == targetType && event.TargetID == targetID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *InMemory) TermStats(_ context.Context, staffID id.StaffID, from, to time.Time) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{ByKind: make(map[string]int64)}
	for _, event := range s.events {
		if event.ActorID != staffID {
			continue
		}
		if event.Timestamp.Before(from) || event.Timestamp.After(to) {
			continue
		}
		stats.TotalActions++
		stats.ByKind[string(event.Action)]++
	}
	return stats, nil
}

// Events returns a snapshot of everything appended. Test hook.
func (s *InMemory) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
