package models

// Status is the lifecycle state of a staff account.
//
// The edge set is closed:
//
//	pending  -> active   (approve)
//	pending  -> rejected (reject, terminal)
//	active   -> inactive (deactivate)
//	inactive -> active   (reactivate)
//	active   -> archived (end term, terminal)
//
// rejected and archived have no outgoing edges. Every transition is validated
// against the currently persisted status inside a store Execute callback, so
// stale dashboard state can never force an illegal edge.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRejected Status = "rejected"
	StatusArchived Status = "archived"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusActive, StatusRejected},
	StatusActive:   {StatusInactive, StatusArchived},
	StatusInactive: {StatusActive},
	StatusRejected: {},
	StatusArchived: {},
}

// CanTransitionTo reports whether the edge s -> target is in the state machine.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing edges.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Known reports whether s is one of the five defined states.
func (s Status) Known() bool {
	_, ok := transitions[s]
	return ok
}
