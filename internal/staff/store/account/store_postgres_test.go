//go:build integration

package account

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curia/internal/staff/models"
	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
	"curia/pkg/platform/sentinel"
	"curia/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	store := NewPostgres(pg.DB)
	ctx := context.Background()

	newAccount := func(t *testing.T, email string) *models.StaffAccount {
		t.Helper()
		acct, err := models.NewStaffAccount(id.NewStaffID(), email, "Integration Test",
			id.DioceseBacolod, id.ParishID("PAR-017"), "St. Test Parish", "Bacolod City",
			id.PositionSecretary, "", time.Now().UTC())
		require.NoError(t, err)
		// The credential row normally comes from the identity provider.
		_, err = pg.DB.ExecContext(ctx,
			`INSERT INTO credentials (id, email, password_hash, created_at) VALUES ($1, $2, 'x', now())`,
			acct.ID.String(), acct.Email)
		require.NoError(t, err)
		return acct
	}

	t.Run("create and read back", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		acct := newAccount(t, "roundtrip@example.org")
		require.NoError(t, store.Create(ctx, acct))

		got, err := store.FindByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, acct.Email, got.Email)
		assert.Equal(t, models.StatusPending, got.Status)
		assert.True(t, got.ApprovedBy.IsNil())

		byEmail, err := store.FindByEmail(ctx, acct.Email)
		require.NoError(t, err)
		assert.Equal(t, acct.ID, byEmail.ID)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		first := newAccount(t, "dup@example.org")
		require.NoError(t, store.Create(ctx, first))

		second, err := models.NewStaffAccount(id.NewStaffID(), "dup@example.org", "Other",
			id.DioceseBacolod, id.ParishID("PAR-017"), "St. Test Parish", "",
			id.PositionSecretary, "", time.Now().UTC())
		require.NoError(t, err)
		assert.ErrorIs(t, store.Create(ctx, second), sentinel.ErrAlreadyUsed)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := store.FindByID(ctx, id.NewStaffID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("execute persists validated mutation", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		acct := newAccount(t, "execute@example.org")
		require.NoError(t, store.Create(ctx, acct))

		approver := id.NewStaffID()
		updated, err := store.Execute(ctx, acct.ID,
			func(a *models.StaffAccount) error { return a.CanApprove() },
			func(a *models.StaffAccount) { a.ApplyApproval(time.Now().UTC(), approver, "lgtm") },
		)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, updated.Status)
		assert.Equal(t, approver, updated.ApprovedBy)
		require.NotNil(t, updated.TermStart)

		got, err := store.FindByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusActive, got.Status)
		assert.Equal(t, "lgtm", got.ApprovalNotes)
	})

	t.Run("execute guard failure leaves row untouched", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		acct := newAccount(t, "guard@example.org")
		require.NoError(t, store.Create(ctx, acct))

		_, err := store.Execute(ctx, acct.ID,
			func(a *models.StaffAccount) error { return a.CanDeactivate() },
			func(a *models.StaffAccount) { a.ApplyDeactivation(time.Now().UTC(), id.NewStaffID(), "x") },
		)
		require.Error(t, err)

		got, err := store.FindByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("concurrent approvals resolve to one winner", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		acct := newAccount(t, "race@example.org")
		require.NoError(t, store.Create(ctx, acct))

		const contenders = 8
		errs := make([]error, contenders)
		var wg sync.WaitGroup
		for i := 0; i < contenders; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = store.Execute(ctx, acct.ID,
					func(a *models.StaffAccount) error {
						if err := a.CanApprove(); err != nil {
							return dErrors.New(dErrors.CodeAlreadyProcessed, "already processed")
						}
						return nil
					},
					func(a *models.StaffAccount) {
						a.ApplyApproval(time.Now().UTC(), id.NewStaffID(), "")
					},
				)
			}()
		}
		wg.Wait()

		var wins int
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyProcessed), "got %v", err)
			}
		}
		assert.Equal(t, 1, wins, "row lock admits exactly one approval")
	})

	t.Run("parish queries", func(t *testing.T) {
		require.NoError(t, pg.Truncate(ctx))
		pendingA := newAccount(t, "pending.a@example.org")
		require.NoError(t, store.Create(ctx, pendingA))
		pendingB := newAccount(t, "pending.b@example.org")
		pendingB.RegisteredAt = pendingB.RegisteredAt.Add(time.Minute)
		require.NoError(t, store.Create(ctx, pendingB))

		active := newAccount(t, "active@example.org")
		active.ApplyApproval(time.Now().UTC(), id.NewStaffID(), "")
		require.NoError(t, store.Create(ctx, active))

		pending, err := store.ListPending(ctx, id.ParishID("PAR-017"))
		require.NoError(t, err)
		require.Len(t, pending, 2)
		assert.Equal(t, pendingB.ID, pending[0].ID, "most recent first")

		position := id.PositionSecretary
		found, err := store.FindActive(ctx, id.ParishID("PAR-017"), &position)
		require.NoError(t, err)
		assert.Equal(t, active.ID, found.ID)

		roster, err := store.ListActiveAndInactive(ctx, id.ParishID("PAR-017"))
		require.NoError(t, err)
		require.Len(t, roster, 1)
		assert.Equal(t, active.ID, roster[0].ID)
	})
}
