// Package account persists staff account profiles. The store is the unit of
// mutual exclusion for lifecycle transitions: Execute holds the record lock
// (mutex in memory, SELECT ... FOR UPDATE in Postgres) across both the guard
// check and the mutation, so two racing transitions resolve to exactly one
// winner.
package account

import (
	"context"

	"curia/internal/staff/models"
	id "curia/pkg/domain"
)

// Store is implemented by InMemory (unit tests) and Postgres (production).
type Store interface {
	// Create inserts a new profile. Returns sentinel.ErrAlreadyUsed when the
	// ID or normalized email is already taken.
	Create(ctx context.Context, account *models.StaffAccount) error

	// FindByID returns the profile or sentinel.ErrNotFound.
	FindByID(ctx context.Context, staffID id.StaffID) (*models.StaffAccount, error)

	// FindByEmail looks up by normalized email. Returns sentinel.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.StaffAccount, error)

	// ListPending returns pending registrations for a parish,
	// most-recent-first. Always an authoritative read.
	ListPending(ctx context.Context, parishID id.ParishID) ([]*models.StaffAccount, error)

	// FindActive returns the first active account for a parish, optionally
	// filtered by position. Returns sentinel.ErrNotFound when none match.
	FindActive(ctx context.Context, parishID id.ParishID, position *id.Position) (*models.StaffAccount, error)

	// ListActiveAndInactive returns accounts currently active or inactive for
	// a parish, most-recent-first. Pending, rejected, and archived records are
	// excluded.
	ListActiveAndInactive(ctx context.Context, parishID id.ParishID) ([]*models.StaffAccount, error)

	// Execute atomically validates and mutates one record while holding its
	// lock. validate sees the currently persisted state; if it returns an
	// error nothing is written and the error is returned verbatim. Returns
	// the mutated record, or sentinel.ErrNotFound for an unknown ID.
	Execute(ctx context.Context, staffID id.StaffID, validate func(*models.StaffAccount) error, mutate func(*models.StaffAccount)) (*models.StaffAccount, error)
}
