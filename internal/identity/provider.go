// Package identity is the credential collaborator. It issues stable
// credential IDs keyed by normalized email, enforces the minimum password
// policy, and rejects duplicates.
//
// Provisioning runs inside an isolated Scope that cannot observe or mutate
// any ambient authenticated session. Registration may be triggered from an
// already-authenticated administrative context elsewhere in the portal, and
// creating a credential there must never sign the acting user out. The scope
// doubles as the registration-in-progress token: its lifetime is the
// operation's lifetime, so no process-wide mutable flag is needed.
package identity

import (
	"context"
	"errors"

	id "curia/pkg/domain"
)

// MinPasswordLength is the provider's minimum credential policy.
const MinPasswordLength = 8

var (
	// ErrWeakPassword marks a password below the minimum policy.
	ErrWeakPassword = errors.New("password does not meet the minimum policy")
	// ErrInvalidEmail marks a malformed address.
	ErrInvalidEmail = errors.New("email address is malformed")
	// ErrBadCredentials marks a failed authentication. Unknown email and
	// wrong password are deliberately indistinguishable.
	ErrBadCredentials = errors.New("invalid email or password")
)

// Provider issues and validates credentials.
type Provider interface {
	// Provision opens an isolated credential-provisioning scope. The caller
	// must Close it once the operation finishes, success or not.
	Provision(ctx context.Context) (Scope, error)

	// Authenticate validates a credential and returns its stable ID.
	// Returns ErrBadCredentials on any mismatch.
	Authenticate(ctx context.Context, email, password string) (id.StaffID, error)
}

// Scope is a short-lived provisioning session, isolated from any ambient
// authenticated session in the same process.
type Scope interface {
	// CreateCredential creates a credential and returns its new stable ID.
	// Returns sentinel.ErrAlreadyUsed for a duplicate email, ErrWeakPassword
	// or ErrInvalidEmail for policy violations.
	CreateCredential(ctx context.Context, email, password string) (id.StaffID, error)

	// DeleteCredential removes a credential created in this scope. Used only
	// as the compensating step when the profile write fails.
	DeleteCredential(ctx context.Context, staffID id.StaffID) error

	// Close tears the provisioning session down. Best-effort; failures are
	// logged by the caller, never surfaced.
	Close(ctx context.Context) error
}
