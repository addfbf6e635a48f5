// Package audit is the audit-sink collaborator. Every successful lifecycle
// transition emits one structured event; emission is best-effort and never
// blocks or fails the transition that produced it. The package also answers
// the aggregated activity statistics captured when a tenure is closed.
package audit

import (
	"context"
	"time"

	id "curia/pkg/domain"
)

// ActionKind is the closed set of auditable actions in the staff lifecycle.
type ActionKind string

const (
	ActionStaffRegistered  ActionKind = "staff_registered"
	ActionStaffApproved    ActionKind = "staff_approved"
	ActionStaffRejected    ActionKind = "staff_rejected"
	ActionStaffDeactivated ActionKind = "staff_deactivated"
	ActionStaffReactivated ActionKind = "staff_reactivated"
	ActionStaffTermEnded   ActionKind = "staff_term_ended"
	ActionStaffLogin       ActionKind = "staff_login"
)

// Target types recorded on events.
const (
	TargetStaffAccount = "staff_account"
	TargetTermRecord   = "term_record"
)

// FieldChange captures one before/after pair for a mutated field.
type FieldChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// Event is emitted from domain logic after a mutation commits. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ActorID      id.StaffID        `json:"actor_id,omitempty"`
	Actor        string            `json:"actor,omitempty"` // display label when no staff ID applies (overseers)
	Action       ActionKind        `json:"action"`
	TargetType   string            `json:"target_type"`
	TargetID     string            `json:"target_id"`
	ResourceName string            `json:"resource_name,omitempty"`
	Changes      []FieldChange     `json:"changes,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	RequestID    string            `json:"request_id,omitempty"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Stats aggregates a staff member's audited activity over a tenure.
type Stats struct {
	TotalActions int64
	ByKind       map[string]int64
}

// Store persists audit events and answers tenure statistics.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByTarget(ctx context.Context, targetType, targetID string) ([]Event, error)

	// TermStats counts actions performed by the staff member between from and
	// to, broken down by action kind. Consumed by the term lifecycle when a
	// tenure is formally closed.
	TermStats(ctx context.Context, staffID id.StaffID, from, to time.Time) (Stats, error)
}
