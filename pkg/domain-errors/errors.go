// Package domainerrors provides coded errors for the domain layer. Stores
// return sentinel errors (pkg/platform/sentinel); services translate them into
// coded errors that handlers can map to transport responses without string
// matching.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error for callers.
type Code string

const (
	// CodeInvalidArgument marks malformed or out-of-enumeration input.
	CodeInvalidArgument Code = "invalid_argument"
	// CodeAlreadyExists marks a duplicate identity (email already registered).
	CodeAlreadyExists Code = "already_exists"
	// CodeWeakCredential marks a password below the identity provider's policy.
	CodeWeakCredential Code = "weak_credential"
	// CodeNotFound marks a missing target record.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks a role, parish, or diocese mismatch, including
	// self-targeting where forbidden.
	CodeUnauthorized Code = "unauthorized"
	// CodeInvalidTransition marks an illegal state-machine edge, including any
	// transition attempted from a terminal state.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeAlreadyProcessed marks a lost race: the record was transitioned by a
	// concurrent caller between listing and acting.
	CodeAlreadyProcessed Code = "already_processed"
	// CodeInvariantViolation marks a model-level invariant breach. Services
	// convert these to a caller-facing code before returning.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal marks store or provider failures not otherwise classified.
	CodeInternal Code = "internal"
)

// Error is a coded domain error with an optional wrapped cause.
type Error struct {
	code    Code
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// Message returns the human-readable message without the cause chain,
// suitable for direct display to a dashboard user.
func (e *Error) Message() string { return e.message }

// New creates a coded error with a display-safe message.
func New(code Code, message string) error {
	return &Error{code: code, message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(cause error, code Code, message string) error {
	return &Error{code: code, message: message, cause: cause}
}

// GetCode extracts the code from err, walking the wrap chain.
// Returns CodeInternal for non-domain errors and "" for nil.
func GetCode(err error) Code {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.code == code
	}
	return false
}

// UserMessage returns the displayable message for err. Non-domain errors get
// a generic message so internals never leak to the dashboard.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.message
	}
	return "something went wrong, please try again"
}
