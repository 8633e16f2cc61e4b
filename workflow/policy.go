package workflow

import (
	"fmt"

	"taskboard/apperror"
)

// CanTransition reports whether role may move a task to the target status.
// Only the destination is checked; the current status is accepted as is.
func CanTransition(role Role, from, to Status) bool {
	switch role {
	case RoleDeveloper:
		return to == StatusNotStarted || to == StatusInProgress
	case RoleTeam:
		return to == StatusDone
	default:
		return false
	}
}

func forbiddenMessage(role Role) string {
	switch role {
	case RoleDeveloper:
		return fmt.Sprintf("developer may only set status to %q or %q", LabelNotStarted, LabelInProgress)
	case RoleTeam:
		return fmt.Sprintf("team may only set status to %q", LabelDone)
	default:
		return "role is not allowed to change task status"
	}
}

// Machine applies the role policy and, when Strict is set, the adjacency rules.
type Machine struct {
	Strict bool
}

var adjacent = map[Status][]Status{
	StatusNotStarted: {StatusInProgress},
	StatusInProgress: {StatusNotStarted, StatusDone},
}

// Transition validates a requested status change and returns the status to persist.
func (m Machine) Transition(role Role, current, requested Status) (Status, error) {
	if !CanTransition(role, current, requested) {
		return current, apperror.Authorization(forbiddenMessage(role))
	}
	if m.Strict && current != requested && !isAdjacent(current, requested) {
		return current, apperror.Authorization(fmt.Sprintf("cannot move task from %q to %q", current, requested))
	}
	return requested, nil
}

// Authorize is the destination-only half of Transition, usable before the
// current status is known.
func (m Machine) Authorize(role Role, requested Status) error {
	if !CanTransition(role, StatusInvalid, requested) {
		return apperror.Authorization(forbiddenMessage(role))
	}
	return nil
}

func isAdjacent(from, to Status) bool {
	for _, next := range adjacent[from] {
		if next == to {
			return true
		}
	}
	return false
}
