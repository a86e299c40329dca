package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/example/room-reservation/internal/authz"
	"github.com/example/room-reservation/internal/lifecycle"
)

// testNow is a Monday morning; every valid fixture range sits on a weekday
// inside business hours with enough advance notice from this instant.
var testNow = time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReservationService(t *testing.T) (*ReservationService, *memoryStore, *recordingSink) {
	t.Helper()
	store := newMemoryStore()
	sink := &recordingSink{}
	ids := &idSequence{prefix: "res"}
	svc := NewReservationServiceWithLogger(store, store, sink, ids.next, func() time.Time { return testNow }, time.UTC, discardLogger())
	store.putRoom(Room{ID: "room-1", Name: "Pine", Capacity: 50, Active: true})
	return svc, store, sink
}

func validInput() ReservationInput {
	return ReservationInput{
		RoomID:         "room-1",
		Title:          "Quarterly planning",
		Start:          at(10, 0),
		End:            at(12, 0),
		AttendeesCount: 8,
	}
}

func organizer(id string) Principal {
	return Principal{UserID: id, Role: authz.RoleOrganizer}
}

func TestCreateReservation_Success(t *testing.T) {
	svc, store, sink := newTestReservationService(t)

	created, err := svc.CreateReservation(context.Background(), CreateReservationParams{
		Principal: organizer("user-1"),
		Input:     validInput(),
	})
	if err != nil {
		t.Fatalf("CreateReservation returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated reservation ID")
	}
	if created.Status != lifecycle.StatusPending {
		t.Fatalf("expected pending status, got %s", created.Status)
	}
	if created.OrganizerID != "user-1" {
		t.Fatalf("expected organizer user-1, got %s", created.OrganizerID)
	}
	if created.CoffeeBreak != CoffeeBreakNotRequested {
		t.Fatalf("expected coffee break not_requested, got %s", created.CoffeeBreak)
	}
	if _, err := store.GetReservation(context.Background(), created.ID); err != nil {
		t.Fatalf("reservation not persisted: %v", err)
	}
	names := sink.published()
	if len(names) != 1 || names[0] != EventReservationCreated {
		t.Fatalf("expected one %s event, got %v", EventReservationCreated, names)
	}
}

func TestCreateReservation_CoffeeBreakDerivation(t *testing.T) {
	request := func(v bool) *bool { return &v }

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		requested *bool
		want      CoffeeBreak
	}{
		{"late morning default", at(10, 0), at(12, 0), nil, CoffeeBreakNotRequested},
		{"late morning requested", at(10, 0), at(12, 0), request(true), CoffeeBreakRequested},
		{"late morning declined", at(10, 0), at(12, 0), request(false), CoffeeBreakNotRequested},
		{"too short", at(10, 0), at(10, 30), request(true), CoffeeBreakNotApplicable},
		{"afternoon", at(14, 0), at(16, 0), request(true), CoffeeBreakNotApplicable},
		{"window boundary end", at(12, 0), at(13, 30), nil, CoffeeBreakNotRequested},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestReservationService(t)
			input := validInput()
			input.Start = tt.start
			input.End = tt.end
			input.CoffeeBreak = tt.requested

			created, err := svc.CreateReservation(context.Background(), CreateReservationParams{
				Principal: organizer("user-1"),
				Input:     input,
			})
			if err != nil {
				t.Fatalf("CreateReservation returned error: %v", err)
			}
			if created.CoffeeBreak != tt.want {
				t.Fatalf("expected coffee break %s, got %s", tt.want, created.CoffeeBreak)
			}
		})
	}
}

func TestCreateReservation_PolicyViolations(t *testing.T) {
	tests := []struct {
		name       string
		start      time.Time
		end        time.Time
		violations int
	}{
		{"insufficient advance notice", at(7, 0), at(8, 0), 1},
		{"before opening", time.Date(2026, 3, 3, 6, 0, 0, 0, time.UTC), time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC), 1},
		{"after closing", time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC), time.Date(2026, 3, 3, 20, 30, 0, 0, time.UTC), 1},
		{"weekend", time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC), time.Date(2026, 3, 7, 11, 0, 0, 0, time.UTC), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, sink := newTestReservationService(t)
			input := validInput()
			input.Start = tt.start
			input.End = tt.end

			_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
				Principal: organizer("user-1"),
				Input:     input,
			})
			var pErr *PolicyError
			if !errors.As(err, &pErr) {
				t.Fatalf("expected PolicyError, got %v", err)
			}
			if len(pErr.Violations) != tt.violations {
				t.Fatalf("expected %d violations, got %v", tt.violations, pErr.Violations)
			}
			if len(sink.published()) != 0 {
				t.Fatalf("no event expected on rejection")
			}
		})
	}
}

func TestCreateReservation_PolicyViolationsAccumulate(t *testing.T) {
	store := newMemoryStore()
	store.putRoom(Room{ID: "room-1", Name: "Pine", Capacity: 50, Active: true})
	ids := &idSequence{prefix: "res"}
	saturday := time.Date(2026, 3, 7, 4, 0, 0, 0, time.UTC)
	svc := NewReservationServiceWithLogger(store, store, nil, ids.next, func() time.Time { return saturday }, time.UTC, discardLogger())

	input := validInput()
	input.Start = saturday.Add(time.Hour)
	input.End = saturday.Add(2 * time.Hour)

	_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
		Principal: organizer("user-1"),
		Input:     input,
	})
	var pErr *PolicyError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected PolicyError, got %v", err)
	}
	if len(pErr.Violations) != 3 {
		t.Fatalf("expected all three violations reported, got %v", pErr.Violations)
	}
}

func TestCreateReservation_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReservationInput)
		field  string
	}{
		{"missing title", func(i *ReservationInput) { i.Title = "  " }, "title"},
		{"zero attendees", func(i *ReservationInput) { i.AttendeesCount = 0 }, "attendees_count"},
		{"missing room", func(i *ReservationInput) { i.RoomID = "" }, "room_id"},
		{"inverted range", func(i *ReservationInput) { i.Start, i.End = i.End, i.Start }, "time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestReservationService(t)
			input := validInput()
			tt.mutate(&input)

			_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
				Principal: organizer("user-1"),
				Input:     input,
			})
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := vErr.FieldErrors[tt.field]; !ok {
				t.Fatalf("expected field %q in %v", tt.field, vErr.FieldErrors)
			}
		})
	}
}

func TestCreateReservation_RoomGuards(t *testing.T) {
	svc, store, _ := newTestReservationService(t)
	store.putRoom(Room{ID: "room-closed", Name: "Closed", Capacity: 10, Active: false})

	t.Run("unknown room", func(t *testing.T) {
		input := validInput()
		input.RoomID = "room-missing"
		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{Principal: organizer("user-1"), Input: input})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("deactivated room", func(t *testing.T) {
		input := validInput()
		input.RoomID = "room-closed"
		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{Principal: organizer("user-1"), Input: input})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("capacity exceeded", func(t *testing.T) {
		input := validInput()
		input.AttendeesCount = 60
		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{Principal: organizer("user-1"), Input: input})
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Fatalf("expected ErrCapacityExceeded, got %v", err)
		}
	})
}

func TestCreateReservation_SchedulingConflict(t *testing.T) {
	svc, store, _ := newTestReservationService(t)
	store.putReservation(Reservation{
		ID:          "res-existing",
		RoomID:      "room-1",
		OrganizerID: "user-2",
		Start:       at(10, 0),
		End:         at(12, 0),
		Status:      lifecycle.StatusApproved,
	})

	t.Run("overlap rejected", func(t *testing.T) {
		input := validInput()
		input.Start = at(11, 0)
		input.End = at(13, 0)
		_, err := svc.CreateReservation(context.Background(), CreateReservationParams{Principal: organizer("user-1"), Input: input})
		if !errors.Is(err, ErrSchedulingConflict) {
			t.Fatalf("expected ErrSchedulingConflict, got %v", err)
		}
	})

	t.Run("back to back allowed", func(t *testing.T) {
		input := validInput()
		input.Start = at(12, 0)
		input.End = at(14, 0)
		if _, err := svc.CreateReservation(context.Background(), CreateReservationParams{Principal: organizer("user-1"), Input: input}); err != nil {
			t.Fatalf("back-to-back reservation should succeed, got %v", err)
		}
	})
}

func TestCreateReservation_Forbidden(t *testing.T) {
	svc, _, _ := newTestReservationService(t)
	_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
		Principal: Principal{UserID: "user-9", Role: authz.RoleReception},
		Input:     validInput(),
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCreateReservation_SinkFailureDoesNotFail(t *testing.T) {
	svc, _, sink := newTestReservationService(t)
	sink.fail = errors.New("broker down")

	if _, err := svc.CreateReservation(context.Background(), CreateReservationParams{
		Principal: organizer("user-1"),
		Input:     validInput(),
	}); err != nil {
		t.Fatalf("sink failure must not fail the operation, got %v", err)
	}
}

func TestCreateReservation_ConcurrentSameSlot(t *testing.T) {
	svc, _, _ := newTestReservationService(t)

	const workers = 8
	results := make(chan error, workers)
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < workers; i++ {
		go func() {
			start.Wait()
			_, err := svc.CreateReservation(context.Background(), CreateReservationParams{
				Principal: organizer("user-1"),
				Input:     validInput(),
			})
			results <- err
		}()
	}
	start.Done()

	var succeeded, conflicted int
	for i := 0; i < workers; i++ {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrSchedulingConflict):
			conflicted++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one success, got %d (conflicts %d)", succeeded, conflicted)
	}
}

func seedReservation(store *memoryStore, id string, status lifecycle.Status, mutate func(*Reservation)) Reservation {
	reservation := Reservation{
		ID:             id,
		RoomID:         "room-1",
		OrganizerID:    "user-1",
		Title:          "Quarterly planning",
		Start:          at(10, 0),
		End:            at(12, 0),
		AttendeesCount: 8,
		CoffeeBreak:    CoffeeBreakNotRequested,
		Status:         status,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
	if mutate != nil {
		mutate(&reservation)
	}
	store.putReservation(reservation)
	return reservation
}

func TestUpdateReservation_TitleOnlyKeepsApproval(t *testing.T) {
	svc, store, _ := newTestReservationService(t)
	approver := "user-5"
	seedReservation(store, "res-1", lifecycle.StatusApproved, func(r *Reservation) {
		r.ApproverID = &approver
		r.ApprovedAt = &testNow
	})

	title := "Reforecast session"
	result, err := svc.UpdateReservation(context.Background(), UpdateReservationParams{
		Principal:     organizer("user-1"),
		ReservationID: "res-1",
		Patch:         ReservationPatch{Title: &title},
	})
	if err != nil {
		t.Fatalf("UpdateReservation returned error: %v", err)
	}
	if result.RequiresReapproval {
		t.Fatalf("title-only change must not demote the reservation")
	}
	if result.Reservation.Status != lifecycle.StatusApproved {
		t.Fatalf("expected approved status, got %s", result.Reservation.Status)
	}
	if result.Reservation.ApproverID == nil {
		t.Fatalf("approval must be preserved")
	}
	if result.Reservation.Title != title {
		t.Fatalf("title not applied: %q", result.Reservation.Title)
	}
}

func TestUpdateReservation_TimeChangeDemotesApproved(t *testing.T) {
	svc, store, sink := newTestReservationService(t)
	approver := "user-5"
	seedReservation(store, "res-1", lifecycle.StatusApproved, func(r *Reservation) {
		r.ApproverID = &approver
		r.ApprovedAt = &testNow
	})

	newStart := at(14, 0)
	newEnd := at(16, 0)
	result, err := svc.UpdateReservation(context.Background(), UpdateReservationParams{
		Principal:     organizer("user-1"),
		ReservationID: "res-1",
		Patch:         ReservationPatch{Start: &newStart, End: &newEnd},
	})
	if err != nil {
		t.Fatalf("UpdateReservation returned error: %v", err)
	}
	if !result.RequiresReapproval {
		t.Fatalf("time change on an approved reservation must report reapproval")
	}
	if result.Reservation.Status != lifecycle.StatusPending {
		t.Fatalf("expected pending status, got %s", result.Reservation.Status)
	}
	if result.Reservation.ApproverID != nil || result.Reservation.ApprovedAt != nil {
		t.Fatalf("approval fields must be cleared on demotion")
	}
	if result.Reservation.CoffeeBreak != CoffeeBreakNotApplicable {
		t.Fatalf("coffee break must be rederived for the new range, got %s", result.Reservation.CoffeeBreak)
	}
	names := sink.published()
	if len(names) != 1 || names[0] != EventReservationUpdated {
		t.Fatalf("expected one %s event, got %v", EventReservationUpdated, names)
	}
	event, ok := sink.events[0].(ReservationEvent)
	if !ok || !event.RequiresReapproval {
		t.Fatalf("event must carry the reapproval flag: %+v", sink.events[0])
	}
}

func TestUpdateReservation_Guards(t *testing.T) {
	t.Run("foreign reservation forbidden for organizer", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		title := "Takeover"
		_, err := svc.UpdateReservation(context.Background(), UpdateReservationParams{
			Principal:     organizer("user-2"),
			ReservationID: "res-1",
			Patch:         ReservationPatch{Title: &title},
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("terminal reservation cannot change", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusCancelled, nil)
		title := "Revive"
		_, err := svc.UpdateReservation(context.Background(), UpdateReservationParams{
			Principal:     organizer("user-1"),
			ReservationID: "res-1",
			Patch:         ReservationPatch{Title: &title},
		})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("moving into occupied slot conflicts", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		seedReservation(store, "res-2", lifecycle.StatusApproved, func(r *Reservation) {
			r.OrganizerID = "user-2"
			r.Start = at(14, 0)
			r.End = at(16, 0)
		})
		newStart := at(15, 0)
		newEnd := at(17, 0)
		_, err := svc.UpdateReservation(context.Background(), UpdateReservationParams{
			Principal:     organizer("user-1"),
			ReservationID: "res-1",
			Patch:         ReservationPatch{Start: &newStart, End: &newEnd},
		})
		if !errors.Is(err, ErrSchedulingConflict) {
			t.Fatalf("expected ErrSchedulingConflict, got %v", err)
		}
	})

	t.Run("own slot does not conflict with itself", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		newStart := at(11, 0)
		newEnd := at(13, 0)
		if _, err := svc.UpdateReservation(context.Background(), UpdateReservationParams{
			Principal:     organizer("user-1"),
			ReservationID: "res-1",
			Patch:         ReservationPatch{Start: &newStart, End: &newEnd},
		}); err != nil {
			t.Fatalf("shifting within own slot should succeed, got %v", err)
		}
	})
}

func TestApproveReservation(t *testing.T) {
	t.Run("approver approves pending", func(t *testing.T) {
		svc, store, sink := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)

		approved, err := svc.ApproveReservation(context.Background(), Principal{UserID: "user-5", Role: authz.RoleApprover}, "res-1")
		if err != nil {
			t.Fatalf("ApproveReservation returned error: %v", err)
		}
		if approved.Status != lifecycle.StatusApproved {
			t.Fatalf("expected approved status, got %s", approved.Status)
		}
		if approved.ApproverID == nil || *approved.ApproverID != "user-5" {
			t.Fatalf("approver not recorded: %+v", approved.ApproverID)
		}
		if approved.ApprovedAt == nil {
			t.Fatalf("approval timestamp not recorded")
		}
		names := sink.published()
		if len(names) != 1 || names[0] != EventReservationApproved {
			t.Fatalf("expected one %s event, got %v", EventReservationApproved, names)
		}
	})

	t.Run("organizer cannot approve", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		_, err := svc.ApproveReservation(context.Background(), organizer("user-1"), "res-1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("already approved", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusApproved, nil)
		_, err := svc.ApproveReservation(context.Background(), Principal{UserID: "user-5", Role: authz.RoleApprover}, "res-1")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestRejectReservation(t *testing.T) {
	t.Run("rejection requires a reason", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		_, err := svc.RejectReservation(context.Background(), RejectReservationParams{
			Principal:     Principal{UserID: "user-5", Role: authz.RoleApprover},
			ReservationID: "res-1",
			Reason:        "  ",
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("missing reservation is reported before the reason check", func(t *testing.T) {
		svc, _, _ := newTestReservationService(t)
		_, err := svc.RejectReservation(context.Background(), RejectReservationParams{
			Principal:     Principal{UserID: "user-5", Role: authz.RoleApprover},
			ReservationID: "res-ghost",
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("forbidden caller is reported before the reason check", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		_, err := svc.RejectReservation(context.Background(), RejectReservationParams{
			Principal:     organizer("user-1"),
			ReservationID: "res-1",
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("rejection records the reason", func(t *testing.T) {
		svc, store, sink := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		rejected, err := svc.RejectReservation(context.Background(), RejectReservationParams{
			Principal:     Principal{UserID: "user-5", Role: authz.RoleApprover},
			ReservationID: "res-1",
			Reason:        "room reserved for maintenance",
		})
		if err != nil {
			t.Fatalf("RejectReservation returned error: %v", err)
		}
		if rejected.Status != lifecycle.StatusRejected {
			t.Fatalf("expected rejected status, got %s", rejected.Status)
		}
		if rejected.RejectionReason == nil || *rejected.RejectionReason != "room reserved for maintenance" {
			t.Fatalf("rejection reason not recorded: %v", rejected.RejectionReason)
		}
		names := sink.published()
		if len(names) != 1 || names[0] != EventReservationRejected {
			t.Fatalf("expected one %s event, got %v", EventReservationRejected, names)
		}
	})
}

func TestCancelReservation(t *testing.T) {
	t.Run("organizer cancels own approved", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusApproved, nil)
		cancelled, err := svc.CancelReservation(context.Background(), CancelReservationParams{
			Principal:     organizer("user-1"),
			ReservationID: "res-1",
		})
		if err != nil {
			t.Fatalf("CancelReservation returned error: %v", err)
		}
		if cancelled.Status != lifecycle.StatusCancelled {
			t.Fatalf("expected cancelled status, got %s", cancelled.Status)
		}
	})

	t.Run("organizer cannot cancel foreign", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		_, err := svc.CancelReservation(context.Background(), CancelReservationParams{
			Principal:     organizer("user-2"),
			ReservationID: "res-1",
		})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("administrator cancels any", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		if _, err := svc.CancelReservation(context.Background(), CancelReservationParams{
			Principal:     Principal{UserID: "admin-1", Role: authz.RoleAdministrator},
			ReservationID: "res-1",
		}); err != nil {
			t.Fatalf("CancelReservation returned error: %v", err)
		}
	})

	t.Run("completed cannot be cancelled", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusCompleted, nil)
		_, err := svc.CancelReservation(context.Background(), CancelReservationParams{
			Principal:     Principal{UserID: "admin-1", Role: authz.RoleAdministrator},
			ReservationID: "res-1",
		})
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}

func TestAttendanceLifecycle(t *testing.T) {
	reception := Principal{UserID: "front-desk", Role: authz.RoleReception}

	t.Run("check in then complete", func(t *testing.T) {
		svc, store, sink := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusApproved, nil)

		checkedIn, err := svc.CheckInReservation(context.Background(), reception, "res-1")
		if err != nil {
			t.Fatalf("CheckInReservation returned error: %v", err)
		}
		if !checkedIn.CheckedIn || checkedIn.CheckedInAt == nil {
			t.Fatalf("check-in not recorded: %+v", checkedIn)
		}
		if checkedIn.Status != lifecycle.StatusApproved {
			t.Fatalf("check-in must not change status, got %s", checkedIn.Status)
		}

		completed, err := svc.ConfirmCompletion(context.Background(), reception, "res-1")
		if err != nil {
			t.Fatalf("ConfirmCompletion returned error: %v", err)
		}
		if completed.Status != lifecycle.StatusCompleted {
			t.Fatalf("expected completed status, got %s", completed.Status)
		}
		if !completed.CompletionConfirmed || completed.CompletionConfirmedAt == nil {
			t.Fatalf("completion not recorded: %+v", completed)
		}

		names := sink.published()
		if len(names) != 2 || names[0] != EventReservationCheckedIn || names[1] != EventReservationCompleted {
			t.Fatalf("unexpected events: %v", names)
		}
	})

	t.Run("double check in", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusApproved, nil)
		if _, err := svc.CheckInReservation(context.Background(), reception, "res-1"); err != nil {
			t.Fatalf("first check-in failed: %v", err)
		}
		_, err := svc.CheckInReservation(context.Background(), reception, "res-1")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("no show completes as no show", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusApproved, nil)
		marked, err := svc.MarkNoShow(context.Background(), reception, "res-1")
		if err != nil {
			t.Fatalf("MarkNoShow returned error: %v", err)
		}
		if marked.Status != lifecycle.StatusCompleted || !marked.NoShow {
			t.Fatalf("no-show not recorded: %+v", marked)
		}
	})

	t.Run("no show after check in is illegal", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusApproved, nil)
		if _, err := svc.CheckInReservation(context.Background(), reception, "res-1"); err != nil {
			t.Fatalf("check-in failed: %v", err)
		}
		_, err := svc.MarkNoShow(context.Background(), reception, "res-1")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("check in on pending is illegal", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusPending, nil)
		_, err := svc.CheckInReservation(context.Background(), reception, "res-1")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("organizer cannot check in", func(t *testing.T) {
		svc, store, _ := newTestReservationService(t)
		seedReservation(store, "res-1", lifecycle.StatusApproved, nil)
		_, err := svc.CheckInReservation(context.Background(), organizer("user-1"), "res-1")
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestGetReservation_Visibility(t *testing.T) {
	svc, store, _ := newTestReservationService(t)
	seedReservation(store, "res-1", lifecycle.StatusPending, nil)

	if _, err := svc.GetReservation(context.Background(), organizer("user-1"), "res-1"); err != nil {
		t.Fatalf("owner must read own reservation: %v", err)
	}
	if _, err := svc.GetReservation(context.Background(), organizer("user-2"), "res-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign organizer, got %v", err)
	}
	if _, err := svc.GetReservation(context.Background(), Principal{UserID: "user-5", Role: authz.RoleApprover}, "res-1"); err != nil {
		t.Fatalf("approver must read any reservation: %v", err)
	}
	if _, err := svc.GetReservation(context.Background(), organizer("user-1"), "res-missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListReservations_OrganizerScoped(t *testing.T) {
	svc, store, _ := newTestReservationService(t)
	seedReservation(store, "res-1", lifecycle.StatusPending, nil)
	seedReservation(store, "res-2", lifecycle.StatusPending, func(r *Reservation) {
		r.OrganizerID = "user-2"
		r.Start = at(14, 0)
		r.End = at(15, 0)
	})

	mine, err := svc.ListReservations(context.Background(), ListReservationsParams{
		Principal:   organizer("user-1"),
		OrganizerID: "user-2",
	})
	if err != nil {
		t.Fatalf("ListReservations returned error: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "res-1" {
		t.Fatalf("organizer filter must be overridden to own reservations, got %+v", mine)
	}

	all, err := svc.ListReservations(context.Background(), ListReservationsParams{
		Principal: Principal{UserID: "admin-1", Role: authz.RoleAdministrator},
	})
	if err != nil {
		t.Fatalf("ListReservations returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("administrator must see every reservation, got %d", len(all))
	}
}

func TestListPendingApprovals(t *testing.T) {
	svc, store, _ := newTestReservationService(t)
	seedReservation(store, "res-1", lifecycle.StatusPending, nil)
	seedReservation(store, "res-2", lifecycle.StatusApproved, func(r *Reservation) {
		r.Start = at(14, 0)
		r.End = at(15, 0)
	})

	pending, err := svc.ListPendingApprovals(context.Background(), Principal{UserID: "user-5", Role: authz.RoleApprover})
	if err != nil {
		t.Fatalf("ListPendingApprovals returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "res-1" {
		t.Fatalf("expected only pending reservations, got %+v", pending)
	}

	if _, err := svc.ListPendingApprovals(context.Background(), organizer("user-1")); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for organizer, got %v", err)
	}
}

func TestListUpcoming(t *testing.T) {
	svc, store, _ := newTestReservationService(t)
	seedReservation(store, "res-soon", lifecycle.StatusApproved, nil)
	seedReservation(store, "res-long", lifecycle.StatusApproved, func(r *Reservation) {
		r.Start = testNow.Add(2 * time.Hour)
		r.End = testNow.Add(30 * time.Hour)
	})
	seedReservation(store, "res-far", lifecycle.StatusApproved, func(r *Reservation) {
		r.Start = testNow.Add(48 * time.Hour)
		r.End = testNow.Add(49 * time.Hour)
	})
	seedReservation(store, "res-pending", lifecycle.StatusPending, func(r *Reservation) {
		r.Start = at(14, 0)
		r.End = at(15, 0)
	})

	upcoming, err := svc.ListUpcoming(context.Background(), Principal{UserID: "user-5", Role: authz.RoleApprover}, 24)
	if err != nil {
		t.Fatalf("ListUpcoming returned error: %v", err)
	}
	if len(upcoming) != 2 {
		t.Fatalf("expected res-soon and res-long within the window, got %+v", upcoming)
	}
	ids := map[string]bool{}
	for _, r := range upcoming {
		ids[r.ID] = true
	}
	if !ids["res-soon"] || !ids["res-long"] {
		t.Fatalf("expected res-soon and res-long within the window, got %+v", upcoming)
	}
}
