// Package term persists completed-tenure records. The collection is
// append-only: records are created once when a tenure is formally ended and
// never updated, so it is free of update races by construction.
package term

import (
	"context"

	"curia/internal/staff/models"
	id "curia/pkg/domain"
)

type Store interface {
	// Create appends a new term record. Returns sentinel.ErrAlreadyUsed if
	// the ID is already taken.
	Create(ctx context.Context, record *models.TermRecord) error

	// FindByID returns a record or sentinel.ErrNotFound.
	FindByID(ctx context.Context, termID id.TermID) (*models.TermRecord, error)

	// ListByStaff returns all completed tenures for a staff account,
	// most-recent-first.
	ListByStaff(ctx context.Context, staffID id.StaffID) ([]*models.TermRecord, error)

	// ListByParish returns all completed tenures for a parish,
	// most-recent-first.
	ListByParish(ctx context.Context, parishID id.ParishID) ([]*models.TermRecord, error)
}
