package domain

import "strings"

// Diocese is the top-level organizational scope above parishes. Overseer
// authority for term-ending is granted per diocese.
type Diocese string

const (
	DioceseBacolod    Diocese = "bacolod"
	DioceseSanCarlos  Diocese = "san_carlos"
	DioceseKabankalan Diocese = "kabankalan"
)

var dioceses = map[Diocese]struct{}{
	DioceseBacolod:    {},
	DioceseSanCarlos:  {},
	DioceseKabankalan: {},
}

// ParseDiocese validates a diocese code against the closed enumeration.
func ParseDiocese(s string) (Diocese, bool) {
	d := Diocese(strings.ToLower(strings.TrimSpace(s)))
	_, ok := dioceses[d]
	return d, ok
}

func (d Diocese) String() string { return string(d) }

// Known reports whether the diocese is part of the closed enumeration.
func (d Diocese) Known() bool {
	_, ok := dioceses[d]
	return ok
}

// Position is a sub-role within parish staff. It scopes who gets notified of
// a new registration but does not change the lifecycle state machine.
type Position string

const (
	PositionSecretary Position = "secretary"
	PositionPriest    Position = "priest"
)

// ParsePosition validates a position against the closed enumeration.
func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PositionSecretary, PositionPriest:
		return p, true
	}
	return "", false
}

func (p Position) String() string { return string(p) }

// ParishID is the registry code of a parish. Codes are issued by the diocese
// registry, which is outside this core; here they only need to be non-empty.
type ParishID string

func (p ParishID) IsZero() bool { return strings.TrimSpace(string(p)) == "" }

func (p ParishID) String() string { return string(p) }
