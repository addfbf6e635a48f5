package notify

import (
	"context"
	"sync"
)

// InMemory records notifications for unit tests. Err, when set, fails every
// call so tests can verify that sink failures never fail the primary
// operation.
type InMemory struct {
	mu       sync.Mutex
	pending  []PendingApproval
	approved []Approved

	Err error
}

func NewInMemory() *InMemory {
	return &InMemory{}
}

func (s *InMemory) NotifyPendingApproval(_ context.Context, msg PendingApproval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.pending = append(s.pending, msg)
	return nil
}

func (s *InMemory) NotifyApproved(_ context.Context, msg Approved) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.approved = append(s.approved, msg)
	return nil
}

// PendingApprovals returns a snapshot of enqueued pending-approval messages.
func (s *InMemory) PendingApprovals() []PendingApproval {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingApproval, len(s.pending))
	copy(out, s.pending)
	return out
}

// ApprovedMessages returns a snapshot of enqueued approval messages.
func (s *InMemory) ApprovedMessages() []Approved {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Approved, len(s.approved))
	copy(out, s.approved)
	return out
}
