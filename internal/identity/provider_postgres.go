package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	id "curia/pkg/domain"
	"curia/pkg/email"
	"curia/pkg/platform/sentinel"
)

// Postgres implements Provider on a credentials table. Each provisioning
// scope checks a dedicated connection out of the pool and returns it on
// Close, so provisioning shares no connection state with request handling.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Provision(ctx context.Context) (Scope, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("open provisioning scope: %w", err)
	}
	return &pgScope{conn: conn}, nil
}

func (p *Postgres) Authenticate(ctx context.Context, address, password string) (id.StaffID, error) {
	var (
		staffID uuid.UUID
		hash    []byte
	)
	query := `SELECT id, password_hash FROM credentials WHERE email = $1`
	err := p.db.QueryRowContext(ctx, query, email.Normalize(address)).Scan(&staffID, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return id.StaffID{}, ErrBadCredentials
	}
	if err != nil {
		return id.StaffID{}, fmt.Errorf("lookup credential: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return id.StaffID{}, ErrBadCredentials
	}
	return id.StaffID(staffID), nil
}

type pgScope struct {
	conn *sql.Conn
}

func (s *pgScope) CreateCredential(ctx context.Context, address, password string) (id.StaffID, error) {
	normalized := email.Normalize(address)
	if !email.Valid(normalized) {
		return id.StaffID{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return id.StaffID{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return id.StaffID{}, fmt.Errorf("hash password: %w", err)
	}

	staffID := id.NewStaffID()
	query := `
		INSERT INTO credentials (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (email) DO NOTHING`
	res, err := s.conn.ExecContext(ctx, query, uuid.UUID(staffID), normalized, hash)
	if err != nil {
		return id.StaffID{}, fmt.Errorf("insert credential: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return id.StaffID{}, sentinel.ErrAlreadyUsed
	}
	return staffID, nil
}

func (s *pgScope) DeleteCredential(ctx context.Context, staffID id.StaffID) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM credentials WHERE id = $1`, uuid.UUID(staffID))
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *pgScope) Close(_ context.Context) error {
	return s.conn.Close()
}
