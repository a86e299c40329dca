package lifecycle

import (
	"errors"
	"testing"
)

var allStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

var allActions = []Action{
	ActionApprove,
	ActionReject,
	ActionCancel,
	ActionUpdate,
	ActionCheckIn,
	ActionMarkNoShow,
	ActionConfirmCompletion,
}

func TestNext_TransitionTable(t *testing.T) {
	cases := []struct {
		name        string
		from        State
		action      Action
		timeChanged bool
		want        State
	}{
		{"approve pending", State{Status: StatusPending}, ActionApprove, false, State{Status: StatusApproved}},
		{"reject pending", State{Status: StatusPending}, ActionReject, false, State{Status: StatusRejected}},
		{"cancel pending", State{Status: StatusPending}, ActionCancel, false, State{Status: StatusCancelled}},
		{"cancel approved", State{Status: StatusApproved}, ActionCancel, false, State{Status: StatusCancelled}},
		{"update pending keeps status", State{Status: StatusPending}, ActionUpdate, true, State{Status: StatusPending}},
		{"update approved without time change", State{Status: StatusApproved}, ActionUpdate, false, State{Status: StatusApproved}},
		{"update approved with time change demotes", State{Status: StatusApproved}, ActionUpdate, true, State{Status: StatusPending}},
		{"check in approved", State{Status: StatusApproved}, ActionCheckIn, false, State{Status: StatusApproved, CheckedIn: true}},
		{"no show approved", State{Status: StatusApproved}, ActionMarkNoShow, false, State{Status: StatusCompleted, NoShow: true}},
		{"complete approved", State{Status: StatusApproved}, ActionConfirmCompletion, false, State{Status: StatusCompleted}},
		{"complete checked in", State{Status: StatusApproved, CheckedIn: true}, ActionConfirmCompletion, false, State{Status: StatusCompleted, CheckedIn: true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Next(tc.from, tc.action, tc.timeChanged)
			if err != nil {
				t.Fatalf("Next(%+v, %s) returned error: %v", tc.from, tc.action, err)
			}
			if got != tc.want {
				t.Fatalf("Next(%+v, %s) = %+v, want %+v", tc.from, tc.action, got, tc.want)
			}
		})
	}
}

// Every (state, action) pair outside the transition table must fail with
// ErrInvalidTransition and leave the state untouched.
func TestNext_Closure(t *testing.T) {
	legal := map[Status]map[Action]bool{
		StatusPending:  {ActionApprove: true, ActionReject: true, ActionCancel: true, ActionUpdate: true},
		StatusApproved: {ActionCancel: true, ActionUpdate: true, ActionCheckIn: true, ActionMarkNoShow: true, ActionConfirmCompletion: true},
	}

	for _, status := range allStatuses {
		for _, action := range allActions {
			from := State{Status: status}
			got, err := Next(from, action, true)
			if legal[status][action] {
				if err != nil {
					t.Fatalf("expected (%s, %s) to be legal, got %v", status, action, err)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition for (%s, %s), got %v", status, action, err)
			}
			if got != from {
				t.Fatalf("state mutated on rejected transition (%s, %s): %+v", status, action, got)
			}
		}
	}
}

func TestNext_CheckInNoShowExclusive(t *testing.T) {
	checkedIn := State{Status: StatusApproved, CheckedIn: true}
	if _, err := Next(checkedIn, ActionMarkNoShow, false); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected no-show after check-in to be rejected, got %v", err)
	}
	if _, err := Next(checkedIn, ActionCheckIn, false); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected double check-in to be rejected, got %v", err)
	}

	noShow := State{Status: StatusApproved, NoShow: true}
	if _, err := Next(noShow, ActionCheckIn, false); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected check-in after no-show to be rejected, got %v", err)
	}
}

func TestStatusPredicates(t *testing.T) {
	for _, status := range allStatuses {
		if !status.Valid() {
			t.Fatalf("expected %s to be valid", status)
		}
	}
	if Status("archived").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}

	for _, status := range []Status{StatusRejected, StatusCancelled, StatusCompleted} {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
		if status.Active() {
			t.Fatalf("expected %s not to be active", status)
		}
	}
	for _, status := range []Status{StatusPending, StatusApproved} {
		if status.Terminal() {
			t.Fatalf("expected %s not to be terminal", status)
		}
		if !status.Active() {
			t.Fatalf("expected %s to be active", status)
		}
	}
}
