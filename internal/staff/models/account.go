package models

import (
	"strings"
	"time"

	id "curia/pkg/domain"
	dErrors "curia/pkg/domain-errors"
	"curia/pkg/email"
)

// StaffAccount is the aggregate root for one person who has ever registered
// for a parish position. Accounts are never deleted; terminal statuses
// (rejected, archived) retain the record as audit trail.
//
// Invariants:
//   - ID is shared with the identity provider credential (one profile per
//     credential, no orphans in either direction)
//   - Email is normalized lower-case and unique at the identity provider
//   - A pending account has no approval or rejection timestamps
//   - active is reachable only via approval (from pending) or reactivation
//   - archived is reachable only from active and is terminal
type StaffAccount struct {
	ID           id.StaffID  `json:"id"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Diocese      id.Diocese  `json:"diocese"`
	ParishID     id.ParishID `json:"parish_id"`
	ParishName   string      `json:"parish_name"`
	Municipality string      `json:"municipality"`
	Position     id.Position `json:"position"`
	Phone        string      `json:"phone,omitempty"`
	Status       Status      `json:"status"`

	RegisteredAt  time.Time  `json:"registered_at"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	RejectedAt    *time.Time `json:"rejected_at,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
	ReactivatedAt *time.Time `json:"reactivated_at,omitempty"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	TermStart     *time.Time `json:"term_start,omitempty"`

	ApprovedBy      id.StaffID `json:"approved_by,omitempty"`
	RejectedBy      id.StaffID `json:"rejected_by,omitempty"`
	StatusChangedBy id.StaffID `json:"status_changed_by,omitempty"`
	ArchivedBy      id.StaffID `json:"archived_by,omitempty"`

	ApprovalNotes      string `json:"approval_notes,omitempty"`
	RejectionReason    string `json:"rejection_reason,omitempty"`
	DeactivationReason string `json:"deactivation_reason,omitempty"`
	ArchivedReason     string `json:"archived_reason,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// NewStaffAccount constructs a pending account from validated registration
// input. staffID must be the credential ID issued by the identity provider.
func NewStaffAccount(staffID id.StaffID, address, name string, diocese id.Diocese, parishID id.ParishID, parishName, municipality string, position id.Position, phone string, now time.Time) (*StaffAccount, error) {
	address = email.Normalize(address)
	if !email.Valid(address) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "email address is malformed")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "name cannot be empty")
	}
	if parishID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "parish is required")
	}
	if strings.TrimSpace(parishName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "parish name is required")
	}
	return &StaffAccount{
		ID:           staffID,
		Email:        address,
		Name:         name,
		Diocese:      diocese,
		ParishID:     parishID,
		ParishName:   strings.TrimSpace(parishName),
		Municipality: strings.TrimSpace(municipality),
		Position:     position,
		Phone:        strings.TrimSpace(phone),
		Status:       StatusPending,
		RegisteredAt: now,
		UpdatedAt:    now,
	}, nil
}

func (a *StaffAccount) IsActive() bool {
	return a.Status == StatusActive
}

// SameParish reports whether other belongs to the same parish as a.
func (a *StaffAccount) SameParish(other *StaffAccount) bool {
	return a.ParishID == other.ParishID
}

// CanApprove checks the pending -> active edge against the current status.
// Use with ApplyApproval inside a store Execute callback.
func (a *StaffAccount) CanApprove() error {
	if !a.Status.CanTransitionTo(StatusActive) || a.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is not awaiting approval")
	}
	return nil
}

// ApplyApproval transitions the account to active and opens its term.
// Call CanApprove first to validate the edge.
func (a *StaffAccount) ApplyApproval(now time.Time, approver id.StaffID, notes string) {
	a.Status = StatusActive
	a.ApprovedAt = &now
	a.ApprovedBy = approver
	a.ApprovalNotes = strings.TrimSpace(notes)
	a.TermStart = &now
	a.UpdatedAt = now
}

// CanReject checks the pending -> rejected edge against the current status.
func (a *StaffAccount) CanReject() error {
	if a.Status != StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "account is not awaiting approval")
	}
	return nil
}

// ApplyRejection transitions the account to the terminal rejected status.
func (a *StaffAccount) ApplyRejection(now time.Time, actor id.StaffID, reason string) {
	a.Status = StatusRejected
	a.RejectedAt = &now
	a.RejectedBy = actor
	a.RejectionReason = strings.TrimSpace(reason)
	a.UpdatedAt = now
}

// CanDeactivate checks the active -> inactive edge against the current status.
func (a *StaffAccount) CanDeactivate() error {
	if a.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "only an active account can be deactivated")
	}
	return nil
}

// ApplyDeactivation transitions the account to inactive.
func (a *StaffAccount) ApplyDeactivation(now time.Time, actor id.StaffID, reason string) {
	a.Status = StatusInactive
	a.DeactivatedAt = &now
	a.StatusChangedBy = actor
	a.DeactivationReason = strings.TrimSpace(reason)
	a.UpdatedAt = now
}

// CanReactivate checks the inactive -> active edge against the current status.
func (a *StaffAccount) CanReactivate() error {
	if a.Status != StatusInactive {
		return dErrors.New(dErrors.CodeInvariantViolation, "only an inactive account can be reactivated")
	}
	return nil
}

// ApplyReactivation transitions the account back to active. The original
// term start is preserved; reactivation does not open a new tenure.
func (a *StaffAccount) ApplyReactivation(now time.Time, actor id.StaffID) {
	a.Status = StatusActive
	a.ReactivatedAt = &now
	a.StatusChangedBy = actor
	a.UpdatedAt = now
}

// CanArchive checks the active -> archived edge against the current status.
func (a *StaffAccount) CanArchive() error {
	if a.Status != StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "only an active account can be archived")
	}
	return nil
}

// ApplyArchival transitions the account to the terminal archived status,
// formally closing its tenure.
func (a *StaffAccount) ApplyArchival(now time.Time, actor id.StaffID, reason string) {
	a.Status = StatusArchived
	a.ArchivedAt = &now
	a.ArchivedBy = actor
	a.ArchivedReason = strings.TrimSpace(reason)
	a.UpdatedAt = now
}
