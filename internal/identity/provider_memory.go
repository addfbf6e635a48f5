package identity

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	id "curia/pkg/domain"
	"curia/pkg/email"
	"curia/pkg/platform/sentinel"
)

// InMemory is a map-backed Provider for unit tests. It counts opened and
// closed scopes so tests can assert that provisioning always happens inside
// an isolated scope and that the scope is torn down afterwards.
type InMemory struct {
	mu          sync.Mutex
	credentials map[string]memCredential // keyed by normalized email

	scopesOpened int
	scopesClosed int

	// CreateErr, when set, fails every CreateCredential call. DeleteErr fails
	// every compensating delete. Used to exercise failure paths.
	CreateErr error
	DeleteErr error
}

type memCredential struct {
	staffID id.StaffID
	hash    []byte
}

func NewInMemory() *InMemory {
	return &InMemory{credentials: make(map[string]memCredential)}
}

func (p *InMemory) Provision(_ context.Context) (Scope, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scopesOpened++
	return &memScope{provider: p}, nil
}

func (p *InMemory) Authenticate(_ context.Context, address, password string) (id.StaffID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cred, ok := p.credentials[email.Normalize(address)]
	if !ok {
		return id.StaffID{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.hash, []byte(password)); err != nil {
		return id.StaffID{}, ErrBadCredentials
	}
	return cred.staffID, nil
}

// HasCredential reports whether a credential exists for the address.
// Test hook for the no-orphan-identities property.
func (p *InMemory) HasCredential(address string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.credentials[email.Normalize(address)]
	return ok
}

// ScopesOpened returns how many provisioning scopes have been opened.
func (p *InMemory) ScopesOpened() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scopesOpened
}

// ScopesClosed returns how many provisioning scopes have been torn down.
func (p *InMemory) ScopesClosed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scopesClosed
}

type memScope struct {
	provider *InMemory
	closed   bool
}

func (s *memScope) CreateCredential(_ context.Context, address, password string) (id.StaffID, error) {
	p := s.provider
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.CreateErr != nil {
		return id.StaffID{}, p.CreateErr
	}

	normalized := email.Normalize(address)
	if !email.Valid(normalized) {
		return id.StaffID{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return id.StaffID{}, ErrWeakPassword
	}
	if _, exists := p.credentials[normalized]; exists {
		return id.StaffID{}, sentinel.ErrAlreadyUsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return id.StaffID{}, err
	}

	staffID := id.NewStaffID()
	p.credentials[normalized] = memCredential{staffID: staffID, hash: hash}
	return staffID, nil
}

func (s *memScope) DeleteCredential(_ context.Context, staffID id.StaffID) error {
	p := s.provider
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.DeleteErr != nil {
		return p.DeleteErr
	}
	for address, cred := range p.credentials {
		if cred.staffID == staffID {
			delete(p.credentials, address)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *memScope) Close(_ context.Context) error {
	p := s.provider
	p.mu.Lock()
	defer p.mu.Unlock()

	if !s.closed {
		s.closed = true
		p.scopesClosed++
	}
	return nil
}
