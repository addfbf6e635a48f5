package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"curia/internal/audit"
	"curia/internal/identity"
	"curia/internal/notify"
	"curia/internal/staff/models"
	"curia/internal/staff/store/account"
	"curia/internal/staff/store/term"
	id "curia/pkg/domain"
)

var testTime = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

// fixture bundles the in-memory collaborators every service suite needs.
type fixture struct {
	provider *identity.InMemory
	accounts *account.InMemory
	terms    *term.InMemory
	activity *audit.InMemory
	sink     *notify.InMemory
	auditor  *capturePublisher
	clock    time.Time
}

func newFixture() *fixture {
	return &fixture{
		provider: identity.NewInMemory(),
		accounts: account.NewInMemory(),
		terms:    term.NewInMemory(),
		activity: audit.NewInMemory(),
		sink:     notify.NewInMemory(),
		auditor:  &capturePublisher{},
		clock:    testTime,
	}
}

func (f *fixture) options() []Option {
	return []Option{
		WithAuditPublisher(f.auditor),
		WithNotifier(f.sink),
		WithClock(func() time.Time { return f.clock }),
	}
}

// seedAccount persists an account directly in the store, walked to the
// requested status through the same transitions production code uses.
func (f *fixture) seedAccount(t *testing.T, address, name string, parish id.ParishID, position id.Position, status models.Status) *models.StaffAccount {
	t.Helper()

	acct, err := models.NewStaffAccount(id.NewStaffID(), address, name,
		id.DioceseBacolod, parish, "St. Test Parish", "Bacolod City",
		position, "", f.clock.Add(-24*time.Hour))
	require.NoError(t, err)

	actor := id.NewStaffID()
	switch status {
	case models.StatusPending:
	case models.StatusActive:
		acct.ApplyApproval(f.clock.Add(-12*time.Hour), actor, "")
	case models.StatusInactive:
		acct.ApplyApproval(f.clock.Add(-12*time.Hour), actor, "")
		acct.ApplyDeactivation(f.clock.Add(-6*time.Hour), actor, "seeded inactive")
	case models.StatusRejected:
		acct.ApplyRejection(f.clock.Add(-12*time.Hour), actor, "seeded rejected")
	case models.StatusArchived:
		acct.ApplyApproval(f.clock.Add(-12*time.Hour), actor, "")
		acct.ApplyArchival(f.clock.Add(-1*time.Hour), actor, "seeded archived")
	default:
		t.Fatalf("cannot seed status %q", status)
	}

	require.NoError(t, f.accounts.Create(context.Background(), acct))
	return acct
}

// capturePublisher records emitted audit events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []audit.Event
}

func (c *capturePublisher) Emit(_ context.Context, event audit.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *capturePublisher) Events() []audit.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]audit.Event(nil), c.events...)
}

func (c *capturePublisher) Last(t *testing.T) audit.Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.events, "expected at least one audit event")
	return c.events[len(c.events)-1]
}

// failingAccounts wraps a store so profile creation fails, exercising the
// compensating rollback path.
type failingAccounts struct {
	account.Store
	createErr error
}

func (f *failingAccounts) Create(ctx context.Context, acct *models.StaffAccount) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Store.Create(ctx, acct)
}

// failingActivity wraps an audit store so statistics capture fails.
type failingActivity struct {
	audit.Store
	statsErr error
}

func (f *failingActivity) TermStats(ctx context.Context, staffID id.StaffID, from, to time.Time) (audit.Stats, error) {
	if f.statsErr != nil {
		return audit.Stats{}, f.statsErr
	}
	return f.Store.TermStats(ctx, staffID, from, to)
}

// failingTerms wraps a term store so record creation fails.
type failingTerms struct {
	term.Store
	createErr error
}

func (f *failingTerms) Create(ctx context.Context, record *models.TermRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.Store.Create(ctx, record)
}
