// Package domain holds typed identifiers and closed enumerations shared by
// every module. Keeping them UUID-backed value types (not strings) makes it a
// compile error to pass a staff ID where a term ID is expected.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// StaffID identifies a parish staff account. The same ID keys both the
// credential at the identity provider and the profile document.
type StaffID uuid.UUID

func NewStaffID() StaffID {
	return StaffID(uuid.New())
}

func ParseStaffID(s string) (StaffID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return StaffID{}, fmt.Errorf("invalid staff ID %q: %w", s, err)
	}
	return StaffID(u), nil
}

func (id StaffID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id StaffID) String() string {
	return uuid.UUID(id).String()
}

// TermID identifies a completed-tenure record.
type TermID uuid.UUID

func NewTermID() TermID {
	return TermID(uuid.New())
}

func ParseTermID(s string) (TermID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return TermID{}, fmt.Errorf("invalid term ID %q: %w", s, err)
	}
	return TermID(u), nil
}

func (id TermID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id TermID) String() string {
	return uuid.UUID(id).String()
}
