package term

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"curia/internal/staff/models"
	id "curia/pkg/domain"
	"curia/pkg/platform/sentinel"
)

// Postgres implements Store on a term_records table. Stats are stored as a
// JSONB snapshot since they are written once and only ever read back whole.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const termColumns = `
	id, staff_id, name, email, diocese, parish_id, parish_name, position,
	term_start, term_end, end_reason, ended_by, stats, status, created_at`

func (s *Postgres) Create(ctx context.Context, record *models.TermRecord) error {
	stats, err := json.Marshal(record.Stats)
	if err != nil {
		return fmt.Errorf("marshal term stats: %w", err)
	}

	query := `
		INSERT INTO term_records (` + termColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT DO NOTHING`

	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID), uuid.UUID(record.StaffID), record.Name, record.Email,
		string(record.Diocese), string(record.ParishID), record.ParishName,
		string(record.Position), record.TermStart, record.TermEnd,
		record.EndReason, record.EndedBy, stats, string(record.Status), record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert term record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, termID id.TermID) (*models.TermRecord, error) {
	query := `SELECT ` + termColumns + ` FROM term_records WHERE id = $1`
	return scanTerm(s.db.QueryRowContext(ctx, query, uuid.UUID(termID)))
}

func (s *Postgres) ListByStaff(ctx context.Context, staffID id.StaffID) ([]*models.TermRecord, error) {
	query := `SELECT ` + termColumns + ` FROM term_records WHERE staff_id = $1 ORDER BY term_end DESC`
	return s.queryTerms(ctx, query, uuid.UUID(staffID))
}

func (s *Postgres) ListByParish(ctx context.Context, parishID id.ParishID) ([]*models.TermRecord, error) {
	query := `SELECT ` + termColumns + ` FROM term_records WHERE parish_id = $1 ORDER BY term_end DESC`
	return s.queryTerms(ctx, query, string(parishID))
}

func (s *Postgres) queryTerms(ctx context.Context, query string, args ...any) ([]*models.TermRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query term records: %w", err)
	}
	defer rows.Close()

	var out []*models.TermRecord
	for rows.Next() {
		record, err := scanTerm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTerm(row rowScanner) (*models.TermRecord, error) {
	var (
		record   models.TermRecord
		termID   uuid.UUID
		staffID  uuid.UUID
		diocese  string
		parishID string
		position string
		status   string
		stats    []byte
	)

	err := row.Scan(
		&termID, &staffID, &record.Name, &record.Email, &diocese, &parishID,
		&record.ParishName, &position, &record.TermStart, &record.TermEnd,
		&record.EndReason, &record.EndedBy, &stats, &status, &record.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan term record: %w", err)
	}

	if err := json.Unmarshal(stats, &record.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal term stats: %w", err)
	}
	record.ID = id.TermID(termID)
	record.StaffID = id.StaffID(staffID)
	record.Diocese = id.Diocese(diocese)
	record.ParishID = id.ParishID(parishID)
	record.Position = id.Position(position)
	record.Status = models.TermStatus(status)
	return &record, nil
}
