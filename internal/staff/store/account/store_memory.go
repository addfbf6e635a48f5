package account

import (
	"context"
	"sort"
	"sync"

	"curia/internal/staff/models"
	id "curia/pkg/domain"
	"curia/pkg/platform/sentinel"
)

// InMemory is a map-backed Store for unit tests and local development.
// All reads return copies so callers cannot mutate stored state without
// going through Execute.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.StaffID]*models.StaffAccount
	byEmail  map[string]id.StaffID
}

func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[id.StaffID]*models.StaffAccount),
		byEmail:  make(map[string]id.StaffID),
	}
}

func (s *InMemory) Create(_ context.Context, account *models.StaffAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.byEmail[account.Email]; exists {
		return sentinel.ErrAlreadyUsed
	}

	clone := *account
	s.accounts[account.ID] = &clone
	s.byEmail[account.Email] = account.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, staffID id.StaffID) (*models.StaffAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[staffID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *account
	return &clone, nil
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.StaffAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staffID, ok := s.byEmail[email]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.accounts[staffID]
	return &clone, nil
}

func (s *InMemory) ListPending(_ context.Context, parishID id.ParishID) ([]*models.StaffAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.StaffAccount
	for _, account := range s.accounts {
		if account.ParishID == parishID && account.Status == models.StatusPending {
			clone := *account
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out, nil
}

func (s *InMemory) FindActive(_ context.Context, parishID id.ParishID, position *id.Position) (*models.StaffAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*models.StaffAccount
	for _, account := range s.accounts {
		if account.ParishID != parishID || account.Status != models.StatusActive {
			continue
		}
		if position != nil && account.Position != *position {
			continue
		}
		matches = append(matches, account)
	}
	if len(matches) == 0 {
		return nil, sentinel.ErrNotFound
	}
	// Deterministic "first": earliest term start wins.
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].RegisteredAt.Before(matches[j].RegisteredAt)
	})
	clone := *matches[0]
	return &clone, nil
}

func (s *InMemory) ListActiveAndInactive(_ context.Context, parishID id.ParishID) ([]*models.StaffAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.StaffAccount
	for _, account := range s.accounts {
		if account.ParishID != parishID {
			continue
		}
		if account.Status != models.StatusActive && account.Status != models.StatusInactive {
			continue
		}
		clone := *account
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, staffID id.StaffID, validate func(*models.StaffAccount) error, mutate func(*models.StaffAccount)) (*models.StaffAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[staffID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}

	// Validate against a copy so a failing guard leaves stored state untouched
	// even if the callback mutates its argument.
	candidate := *account
	if err := validate(&candidate); err != nil {
		return nil, err
	}
	mutate(&candidate)
	s.accounts[staffID] = &candidate

	clone := candidate
	return &clone, nil
}
