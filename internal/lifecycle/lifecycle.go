// Package lifecycle defines the reservation state machine: the legal states,
// the lifecycle actions, and the transition table governing them. The package
// is pure; persistence and authorization live with the callers.
package lifecycle

import "errors"

// ErrInvalidTransition is returned when an action is not legal from the
// reservation's current state.
var ErrInvalidTransition = errors.New("lifecycle: invalid transition")

// Status enumerates reservation lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are permitted from the
// status.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Active reports whether the status counts toward overlap checks. Pending and
// approved reservations occupy their room's time range.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Action enumerates the lifecycle actions applied to an existing reservation.
type Action string

const (
	ActionApprove           Action = "approve"
	ActionReject            Action = "reject"
	ActionCancel            Action = "cancel"
	ActionUpdate            Action = "update"
	ActionCheckIn           Action = "check_in"
	ActionMarkNoShow        Action = "mark_no_show"
	ActionConfirmCompletion Action = "confirm_completion"
)

// State is the view of a reservation the machine transitions over. The
// no-show condition is a flag on approved/completed records rather than a
// distinct terminal state: a no-show still counts as a completed occupancy.
type State struct {
	Status    Status
	CheckedIn bool
	NoShow    bool
}

// Next applies an action to the state and returns the resulting state.
// timeChanged only matters for ActionUpdate: changing the time of an approved
// reservation invalidates the prior approval and demotes it back to pending.
// Any action not listed for the current state fails with
// ErrInvalidTransition and leaves the state unchanged.
func Next(s State, action Action, timeChanged bool) (State, error) {
	switch action {
	case ActionApprove:
		if s.Status != StatusPending {
			return s, ErrInvalidTransition
		}
		s.Status = StatusApproved
		return s, nil

	case ActionReject:
		if s.Status != StatusPending {
			return s, ErrInvalidTransition
		}
		s.Status = StatusRejected
		return s, nil

	case ActionCancel:
		if !s.Status.Active() {
			return s, ErrInvalidTransition
		}
		s.Status = StatusCancelled
		return s, nil

	case ActionUpdate:
		if !s.Status.Active() {
			return s, ErrInvalidTransition
		}
		if s.Status == StatusApproved && timeChanged {
			s.Status = StatusPending
		}
		return s, nil

	case ActionCheckIn:
		// Check-in and no-show are mutually exclusive outcomes of an
		// approved reservation.
		if s.Status != StatusApproved || s.CheckedIn || s.NoShow {
			return s, ErrInvalidTransition
		}
		s.CheckedIn = true
		return s, nil

	case ActionMarkNoShow:
		if s.Status != StatusApproved || s.CheckedIn {
			return s, ErrInvalidTransition
		}
		s.Status = StatusCompleted
		s.NoShow = true
		return s, nil

	case ActionConfirmCompletion:
		if s.Status != StatusApproved {
			return s, ErrInvalidTransition
		}
		s.Status = StatusCompleted
		return s, nil
	}

	return s, ErrInvalidTransition
}

// Demotes reports whether applying ActionUpdate with a changed time range
// would reset the reservation to pending, requiring re-approval.
func Demotes(s State, timeChanged bool) bool {
	return s.Status == StatusApproved && timeChanged
}
