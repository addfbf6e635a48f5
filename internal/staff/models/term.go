package models

import (
	"strings"
	"time"

	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
)

// TermStatus is always "completed" today; the column exists so an eventual
// mid-term suspension record does not need a schema change.
type TermStatus string

const TermStatusCompleted TermStatus = "completed"

// TermStats are the aggregated activity counts captured from the audit
// collaborator at the moment a tenure is closed.
type TermStats struct {
	TotalActions int64            `json:"total_actions"`
	ByKind       map[string]int64 `json:"by_kind,omitempty"`
}

// TermRecord is the immutable history of one completed tenure. Name and email
// are denormalized snapshots: the staff account persists separately and its
// display fields may be edited after archival.
type TermRecord struct {
	ID         id.TermID   `json:"id"`
	StaffID    id.StaffID  `json:"staff_id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Diocese    id.Diocese  `json:"diocese"`
	ParishID   id.ParishID `json:"parish_id"`
	ParishName string      `json:"parish_name"`
	Position   id.Position `json:"position"`
	TermStart  time.Time   `json:"term_start"`
	TermEnd    time.Time   `json:"term_end"`
	EndReason  string      `json:"end_reason"`
	EndedBy    string      `json:"ended_by"`
	Stats      TermStats   `json:"stats"`
	Status     TermStatus  `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewTermRecord snapshots a closing tenure. The account must still be active;
// the caller archives it only after this record is durably created.
func NewTermRecord(termID id.TermID, account *StaffAccount, endedBy, reason string, stats TermStats, now time.Time) (*TermRecord, error) {
	if account == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "term record requires an account")
	}
	if account.TermStart == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "account has no recorded term start")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "end reason is required")
	}
	return &TermRecord{
		ID:         termID,
		StaffID:    account.ID,
		Name:       account.Name,
		Email:      account.Email,
		Diocese:    account.Diocese,
		ParishID:   account.ParishID,
		ParishName: account.ParishName,
		Position:   account.Position,
		TermStart:  *account.TermStart,
		TermEnd:    now,
		EndReason:  reason,
		EndedBy:    endedBy,
		Stats:      stats,
		Status:     TermStatusCompleted,
		CreatedAt:  now,
	}, nil
}
