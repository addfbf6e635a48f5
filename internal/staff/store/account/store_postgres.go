package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"curia/internal/staff/models"
	id "curia/pkg/domain"
	"curia/pkg/platform/sentinel"
)

// Postgres implements Store on a staff_accounts table. Execute wraps the
// guard check and mutation in a transaction holding a FOR UPDATE row lock,
// which is what makes concurrent approvals resolve to a single winner.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const accountColumns = `
	id, email, name, diocese, parish_id, parish_name, municipality, position,
	phone, status, registered_at, approved_at, rejected_at, deactivated_at,
	reactivated_at, archived_at, term_start, approved_by, rejected_by,
	status_changed_by, archived_by, approval_notes, rejection_reason,
	deactivation_reason, archived_reason, updated_at`

func (s *Postgres) Create(ctx context.Context, a *models.StaffAccount) error {
	query := `
		INSERT INTO staff_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
		ON CONFLICT DO NOTHING`

	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(a.ID), a.Email, a.Name, string(a.Diocese), string(a.ParishID),
		a.ParishName, a.Municipality, string(a.Position), a.Phone, string(a.Status),
		a.RegisteredAt, nullTime(a.ApprovedAt), nullTime(a.RejectedAt),
		nullTime(a.DeactivatedAt), nullTime(a.ReactivatedAt), nullTime(a.ArchivedAt),
		nullTime(a.TermStart), nullStaffID(a.ApprovedBy), nullStaffID(a.RejectedBy),
		nullStaffID(a.StatusChangedBy), nullStaffID(a.ArchivedBy),
		a.ApprovalNotes, a.RejectionReason, a.DeactivationReason, a.ArchivedReason,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert staff account: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, staffID id.StaffID) (*models.StaffAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM staff_accounts WHERE id = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, uuid.UUID(staffID)))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.StaffAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM staff_accounts WHERE email = $1`
	return scanAccount(s.db.QueryRowContext(ctx, query, email))
}

func (s *Postgres) ListPending(ctx context.Context, parishID id.ParishID) ([]*models.StaffAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM staff_accounts
		WHERE parish_id = $1 AND status = $2
		ORDER BY registered_at DESC`
	return s.queryAccounts(ctx, query, string(parishID), string(models.StatusPending))
}

func (s *Postgres) FindActive(ctx context.Context, parishID id.ParishID, position *id.Position) (*models.StaffAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM staff_accounts
		WHERE parish_id = $1 AND status = $2
		  AND ($3::text IS NULL OR position = $3)
		ORDER BY registered_at ASC
		LIMIT 1`

	var pos sql.NullString
	if position != nil {
		pos = sql.NullString{String: string(*position), Valid: true}
	}
	return scanAccount(s.db.QueryRowContext(ctx, query, string(parishID), string(models.StatusActive), pos))
}

func (s *Postgres) ListActiveAndInactive(ctx context.Context, parishID id.ParishID) ([]*models.StaffAccount, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM staff_accounts
		WHERE parish_id = $1 AND status IN ($2, $3)
		ORDER BY registered_at DESC`
	return s.queryAccounts(ctx, query, string(parishID), string(models.StatusActive), string(models.StatusInactive))
}

func (s *Postgres) Execute(ctx context.Context, staffID id.StaffID, validate func(*models.StaffAccount) error, mutate func(*models.StaffAccount)) (*models.StaffAccount, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + accountColumns + ` FROM staff_accounts WHERE id = $1 FOR UPDATE`
	account, err := scanAccount(tx.QueryRowContext(ctx, query, uuid.UUID(staffID)))
	if err != nil {
		return nil, err
	}

	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)

	update := `
		UPDATE staff_accounts SET
			status = $2, approved_at = $3, rejected_at = $4, deactivated_at = $5,
			reactivated_at = $6, archived_at = $7, term_start = $8,
			approved_by = $9, rejected_by = $10, status_changed_by = $11,
			archived_by = $12, approval_notes = $13, rejection_reason = $14,
			deactivation_reason = $15, archived_reason = $16, updated_at = $17
		WHERE id = $1`

	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(account.ID), string(account.Status),
		nullTime(account.ApprovedAt), nullTime(account.RejectedAt),
		nullTime(account.DeactivatedAt), nullTime(account.ReactivatedAt),
		nullTime(account.ArchivedAt), nullTime(account.TermStart),
		nullStaffID(account.ApprovedBy), nullStaffID(account.RejectedBy),
		nullStaffID(account.StatusChangedBy), nullStaffID(account.ArchivedBy),
		account.ApprovalNotes, account.RejectionReason,
		account.DeactivationReason, account.ArchivedReason, account.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transition: %w", err)
	}
	return account, nil
}

func (s *Postgres) queryAccounts(ctx context.Context, query string, args ...any) ([]*models.StaffAccount, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query staff accounts: %w", err)
	}
	defer rows.Close()

	var out []*models.StaffAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.StaffAccount, error) {
	var (
		a        models.StaffAccount
		staffID  uuid.UUID
		diocese  string
		parishID string
		position string
		status   string
	)
	var approvedAt, rejectedAt, deactivatedAt, reactivatedAt, archivedAt, termStart sql.NullTime
	var approvedBy, rejectedBy, statusChangedBy, archivedBy sql.Null[uuid.UUID]

	err := row.Scan(
		&staffID, &a.Email, &a.Name, &diocese, &parishID, &a.ParishName,
		&a.Municipality, &position, &a.Phone, &status, &a.RegisteredAt,
		&approvedAt, &rejectedAt, &deactivatedAt, &reactivatedAt, &archivedAt,
		&termStart, &approvedBy, &rejectedBy, &statusChangedBy, &archivedBy,
		&a.ApprovalNotes, &a.RejectionReason, &a.DeactivationReason,
		&a.ArchivedReason, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan staff account: %w", err)
	}

	a.ID = id.StaffID(staffID)
	a.Diocese = id.Diocese(diocese)
	a.ParishID = id.ParishID(parishID)
	a.Position = id.Position(position)
	a.Status = models.Status(status)
	a.ApprovedAt = timePtr(approvedAt)
	a.RejectedAt = timePtr(rejectedAt)
	a.DeactivatedAt = timePtr(deactivatedAt)
	a.ReactivatedAt = timePtr(reactivatedAt)
	a.ArchivedAt = timePtr(archivedAt)
	a.TermStart = timePtr(termStart)
	a.ApprovedBy = staffIDOf(approvedBy)
	a.RejectedBy = staffIDOf(rejectedBy)
	a.StatusChangedBy = staffIDOf(statusChangedBy)
	a.ArchivedBy = staffIDOf(archivedBy)
	return &a, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullStaffID(staffID id.StaffID) sql.Null[uuid.UUID] {
	if staffID.IsNil() {
		return sql.Null[uuid.UUID]{}
	}
	return sql.Null[uuid.UUID]{V: uuid.UUID(staffID), Valid: true}
}

func staffIDOf(v sql.Null[uuid.UUID]) id.StaffID {
	if !v.Valid {
		return id.StaffID{}
	}
	return id.StaffID(v.V)
}
