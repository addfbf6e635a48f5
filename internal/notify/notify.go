// Package notify is the notification-sink collaborator. Messages are
// enqueued for the mailer, which renders and delivers them outside this
// core. Every call is best-effort: the caller logs failures and moves on,
// and no delivery guarantee is relied upon.
package notify

import (
	"context"

	id "curia/pkg/domain"
)

// StaffSummary carries just enough identity for a notification template.
type StaffSummary struct {
	StaffID    id.StaffID  `json:"staff_id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	ParishID   id.ParishID `json:"parish_id"`
	ParishName string      `json:"parish_name"`
	Position   id.Position `json:"position"`
}

// PendingApproval tells the current active staff member that a new
// registration awaits their approval. Recipient may be nil when the parish
// has no active staff for the position yet.
type PendingApproval struct {
	Candidate StaffSummary  `json:"candidate"`
	Recipient *StaffSummary `json:"recipient,omitempty"`
}

// Approved tells a new staff member they were approved, carrying the
// approver's identity for context.
type Approved struct {
	Member   StaffSummary `json:"member"`
	Approver StaffSummary `json:"approver"`
}

// Sink accepts notifications. Implementations must be safe for concurrent
// use; callers invoke them from detached goroutines.
type Sink interface {
	NotifyPendingApproval(ctx context.Context, msg PendingApproval) error
	NotifyApproved(ctx context.Context, msg Approved) error
}
