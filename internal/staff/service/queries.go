package service

import (
	"context"
	"errors"

	"curia/internal/staff/models"
	"curia/internal/staff/store/account"
	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
	"curia/pkg/platform/sentinel"
)

// Query serves the read-only dashboard views. Every read hits the
// authoritative store: callers act on these lists immediately after
// mutations elsewhere, so cached data would reintroduce the stale-state
// races the transition guards exist to stop.
type Query struct {
	accounts account.Store
}

func NewQuery(accounts account.Store) *Query {
	return &Query{accounts: accounts}
}

// ListPending returns pending registrations for a parish, most-recent-first.
func (q *Query) ListPending(ctx context.Context, parishID id.ParishID) ([]*models.StaffAccount, error) {
	if parishID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "parish is required")
	}
	accounts, err := q.accounts.ListPending(ctx, parishID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending registrations")
	}
	return accounts, nil
}

// GetActive returns the first active account for a parish, optionally
// filtered by position. Returns (nil, nil) when no account matches.
func (q *Query) GetActive(ctx context.Context, parishID id.ParishID, position *id.Position) (*models.StaffAccount, error) {
	if parishID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "parish is required")
	}
	found, err := q.accounts.FindActive(ctx, parishID, position)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up active staff")
	}
	return found, nil
}

// ListActiveAndInactive returns the parish's current roster: active and
// inactive accounts, excluding pending, rejected, and archived records.
func (q *Query) ListActiveAndInactive(ctx context.Context, parishID id.ParishID) ([]*models.StaffAccount, error) {
	if parishID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidArgument, "parish is required")
	}
	accounts, err := q.accounts.ListActiveAndInactive(ctx, parishID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list parish staff")
	}
	return accounts, nil
}
