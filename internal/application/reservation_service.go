package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/room-reservation/internal/authz"
	"github.com/example/room-reservation/internal/interval"
	"github.com/example/room-reservation/internal/lifecycle"
	"github.com/example/room-reservation/internal/persistence"
)

// Reservation policy constants. The coffee-break window is hour-granular on
// purpose: the boundary behavior is established policy and must not change
// without product confirmation.
const (
	minAdvanceNotice       = 3 * time.Hour
	coffeeBreakMinHours    = 1.0
	coffeeBreakWindowStart = 9
	coffeeBreakWindowEnd   = 13
)

// roomLockTable serializes occupancy-changing operations per room. Holding
// the room's lock across the availability check and the write closes the
// check-then-act race between concurrent requests for the same room.
type roomLockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the room's mutex and returns its release function.
func (t *roomLockTable) lock(roomID string) func() {
	t.mu.Lock()
	if t.locks == nil {
		t.locks = make(map[string]*sync.Mutex)
	}
	l, ok := t.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[roomID] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// ReservationService is the sole entry point mutating reservations. It
// composes the authorization gate, the state machine, and the availability
// index, and emits a domain event after every successful commit.
type ReservationService struct {
	reservations ReservationRepository
	rooms        RoomRepository
	availability *AvailabilityIndex
	events       EventSink
	idGenerator  func() string
	now          func() time.Time
	location     *time.Location
	roomLocks    roomLockTable
	logger       *slog.Logger
}

// NewReservationService wires dependencies for reservation operations.
func NewReservationService(reservations ReservationRepository, rooms RoomRepository, events EventSink, idGenerator func() string, now func() time.Time, location *time.Location) *ReservationService {
	return NewReservationServiceWithLogger(reservations, rooms, events, idGenerator, now, location, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a
// specified logger.
func NewReservationServiceWithLogger(reservations ReservationRepository, rooms RoomRepository, events EventSink, idGenerator func() string, now func() time.Time, location *time.Location, logger *slog.Logger) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.Local
	}
	return &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		availability: NewAvailabilityIndex(rooms, reservations),
		events:       events,
		idGenerator:  idGenerator,
		now:          now,
		location:     location,
		logger:       defaultLogger(logger),
	}
}

// Availability exposes the service's availability index for read-only
// queries such as the available-room search.
func (s *ReservationService) Availability() *AvailabilityIndex {
	if s == nil {
		return nil
	}
	return s.availability
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation validates the request against the reservation policy and
// the room's availability before persisting a pending reservation.
//
// Validation is ordered and fails fast: range sanity, advance notice,
// business hours, weekday, room existence, capacity, availability. The
// availability check and the insert run under the room's lock so that of two
// concurrent overlapping requests at most one can succeed.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil {
		err = fmt.Errorf("reservation repositories not configured")
		return
	}

	principal := params.Principal
	input := params.Input

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", principal.UserID,
		"room_id", input.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("reservation_id", reservation.ID).InfoContext(ctx, "reservation created")
	}()

	if !authz.Authorize(principal.Role, authz.ActionCreate, true) {
		err = ErrForbidden
		return
	}

	if vErr := validateReservationInput(input); vErr.HasErrors() {
		err = vErr
		return
	}

	candidate := interval.New(input.Start, input.End)
	if pErr := s.evaluatePolicy(candidate); pErr.HasViolations() {
		err = pErr
		return
	}

	room, rerr := s.rooms.GetRoom(ctx, input.RoomID)
	if rerr != nil {
		err = mapRepoError(rerr)
		return
	}
	if !room.Active {
		err = ErrNotFound
		return
	}

	if input.AttendeesCount > room.Capacity {
		err = ErrCapacityExceeded
		return
	}

	unlock := s.roomLocks.lock(room.ID)
	defer unlock()

	free, aerr := s.availability.IsAvailable(ctx, room.ID, candidate, "")
	if aerr != nil {
		err = mapRepoError(aerr)
		return
	}
	if !free {
		err = ErrSchedulingConflict
		return
	}

	createdAt := s.now()
	reservation = Reservation{
		ID:             s.idGenerator(),
		RoomID:         room.ID,
		OrganizerID:    principal.UserID,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Start:          input.Start,
		End:            input.End,
		AttendeesCount: input.AttendeesCount,
		CoffeeBreak:    s.deriveCoffeeBreak(candidate, input.CoffeeBreak),
		Status:         lifecycle.StatusPending,
		CreatedAt:      createdAt,
		UpdatedAt:      createdAt,
	}

	persisted, perr := s.reservations.CreateReservation(ctx, reservation)
	if perr != nil {
		err = mapRepoError(perr)
		return
	}
	reservation = persisted

	s.emit(ctx, EventReservationCreated, s.reservationEvent(reservation, principal, ""))
	return
}

// UpdateReservation applies a partial update to a non-terminal reservation.
// When the patch moves the time range, the new range is re-validated against
// policy and availability (excluding the reservation itself), and a
// previously approved reservation is demoted back to pending with its
// approval cleared. The demotion is reported in the result.
func (s *ReservationService) UpdateReservation(ctx context.Context, params UpdateReservationParams) (result UpdateReservationResult, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil {
		err = fmt.Errorf("reservation repositories not configured")
		return
	}

	principal := params.Principal

	logger := s.loggerWith(ctx, "UpdateReservation",
		"principal_id", principal.UserID,
		"reservation_id", params.ReservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "reservation updated", "requires_reapproval", result.RequiresReapproval)
	}()

	existing, gerr := s.reservations.GetReservation(ctx, params.ReservationID)
	if gerr != nil {
		err = mapRepoError(gerr)
		return
	}

	if !authz.Authorize(principal.Role, authz.ActionUpdate, existing.OrganizerID == principal.UserID) {
		err = ErrForbidden
		return
	}

	updated := existing
	patch := params.Patch
	if patch.Title != nil {
		updated.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Start != nil {
		updated.Start = *patch.Start
	}
	if patch.End != nil {
		updated.End = *patch.End
	}
	if patch.AttendeesCount != nil {
		updated.AttendeesCount = *patch.AttendeesCount
	}

	timeChanged := !updated.Start.Equal(existing.Start) || !updated.End.Equal(existing.End)

	nextState, terr := lifecycle.Next(existing.lifecycleState(), lifecycle.ActionUpdate, timeChanged)
	if terr != nil {
		err = terr
		return
	}

	if vErr := validateReservationUpdate(updated); vErr.HasErrors() {
		err = vErr
		return
	}

	candidate := updated.Range()
	if timeChanged {
		if pErr := s.evaluatePolicy(candidate); pErr.HasViolations() {
			err = pErr
			return
		}
	}

	if patch.AttendeesCount != nil {
		var room Room
		room, err = s.rooms.GetRoom(ctx, updated.RoomID)
		if err != nil {
			err = mapRepoError(err)
			return
		}
		if updated.AttendeesCount > room.Capacity {
			err = ErrCapacityExceeded
			return
		}
	}

	if timeChanged || patch.CoffeeBreak != nil {
		updated.CoffeeBreak = s.deriveCoffeeBreak(candidate, patch.CoffeeBreak)
	}

	demoted := lifecycle.Demotes(existing.lifecycleState(), timeChanged)
	updated.Status = nextState.Status
	if demoted {
		updated.ApproverID = nil
		updated.ApprovedAt = nil
	}
	updated.UpdatedAt = s.now()

	if timeChanged {
		unlock := s.roomLocks.lock(updated.RoomID)
		defer unlock()

		free, aerr := s.availability.IsAvailable(ctx, updated.RoomID, candidate, updated.ID)
		if aerr != nil {
			err = mapRepoError(aerr)
			return
		}
		if !free {
			err = ErrSchedulingConflict
			return
		}
	}

	persisted, perr := s.reservations.UpdateReservation(ctx, updated)
	if perr != nil {
		err = mapRepoError(perr)
		return
	}

	result = UpdateReservationResult{Reservation: persisted, RequiresReapproval: demoted}

	event := s.reservationEvent(persisted, principal, "")
	event.RequiresReapproval = demoted
	s.emit(ctx, EventReservationUpdated, event)
	return
}

// ApproveReservation moves a pending reservation to approved.
func (s *ReservationService) ApproveReservation(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	return s.transition(ctx, "ApproveReservation", principal, reservationID, authz.ActionApprove, lifecycle.ActionApprove, EventReservationApproved, func(r *Reservation, now time.Time) error {
		approverID := principal.UserID
		r.ApproverID = &approverID
		r.ApprovedAt = &now
		return nil
	}, "")
}

// RejectReservation moves a pending reservation to rejected. A non-empty
// reason is required, checked after the reservation is loaded and the caller
// authorized so missing ids and forbidden callers are reported first.
func (s *ReservationService) RejectReservation(ctx context.Context, params RejectReservationParams) (Reservation, error) {
	reason := strings.TrimSpace(params.Reason)
	return s.transition(ctx, "RejectReservation", params.Principal, params.ReservationID, authz.ActionReject, lifecycle.ActionReject, EventReservationRejected, func(r *Reservation, now time.Time) error {
		if reason == "" {
			vErr := &ValidationError{}
			vErr.add("reason", "a rejection reason is required")
			return vErr
		}
		approverID := params.Principal.UserID
		r.ApproverID = &approverID
		r.RejectionReason = &reason
		return nil
	}, reason)
}

// CancelReservation cancels a pending or approved reservation. Organizers
// may only cancel their own.
func (s *ReservationService) CancelReservation(ctx context.Context, params CancelReservationParams) (Reservation, error) {
	reason := strings.TrimSpace(params.Reason)
	return s.transition(ctx, "CancelReservation", params.Principal, params.ReservationID, authz.ActionCancel, lifecycle.ActionCancel, EventReservationCancelled, func(r *Reservation, now time.Time) error {
		if reason != "" {
			r.RejectionReason = &reason
		}
		return nil
	}, reason)
}

// CheckInReservation records arrival for an approved reservation.
func (s *ReservationService) CheckInReservation(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	return s.transition(ctx, "CheckInReservation", principal, reservationID, authz.ActionCheckIn, lifecycle.ActionCheckIn, EventReservationCheckedIn, func(r *Reservation, now time.Time) error {
		r.CheckedInAt = &now
		return nil
	}, "")
}

// MarkNoShow completes an approved reservation as a no-show. A reservation
// that has already checked in cannot be marked.
func (s *ReservationService) MarkNoShow(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	return s.transition(ctx, "MarkNoShow", principal, reservationID, authz.ActionMarkNoShow, lifecycle.ActionMarkNoShow, EventReservationNoShow, nil, "")
}

// ConfirmCompletion completes an approved reservation after the meeting.
func (s *ReservationService) ConfirmCompletion(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	return s.transition(ctx, "ConfirmCompletion", principal, reservationID, authz.ActionConfirmCompletion, lifecycle.ActionConfirmCompletion, EventReservationCompleted, func(r *Reservation, now time.Time) error {
		r.CompletionConfirmed = true
		r.CompletionConfirmedAt = &now
		return nil
	}, "")
}

// transition implements the shared load, guard, persist, emit sequence for
// the single-action lifecycle operations.
func (s *ReservationService) transition(ctx context.Context, operation string, principal Principal, reservationID string, gate authz.Action, action lifecycle.Action, eventName string, effect func(*Reservation, time.Time) error, reason string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, operation,
		"principal_id", principal.UserID,
		"reservation_id", reservationID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "lifecycle action failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "lifecycle action applied", "status", reservation.Status)
	}()

	existing, gerr := s.reservations.GetReservation(ctx, reservationID)
	if gerr != nil {
		err = mapRepoError(gerr)
		return
	}

	if !authz.Authorize(principal.Role, gate, existing.OrganizerID == principal.UserID) {
		err = ErrForbidden
		return
	}

	nextState, terr := lifecycle.Next(existing.lifecycleState(), action, false)
	if terr != nil {
		err = terr
		return
	}

	now := s.now()
	updated := existing
	updated.Status = nextState.Status
	updated.CheckedIn = nextState.CheckedIn
	updated.NoShow = nextState.NoShow
	updated.UpdatedAt = now
	if effect != nil {
		if eerr := effect(&updated, now); eerr != nil {
			err = eerr
			return
		}
	}

	persisted, perr := s.reservations.UpdateReservation(ctx, updated)
	if perr != nil {
		err = mapRepoError(perr)
		return
	}
	reservation = persisted

	event := s.reservationEvent(reservation, principal, reason)
	s.emit(ctx, eventName, event)
	return
}

// GetReservation returns a single reservation. Organizers may only read
// their own reservations.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	if s == nil || s.reservations == nil {
		return Reservation{}, fmt.Errorf("reservation repository not configured")
	}

	reservation, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, mapRepoError(err)
	}

	if principal.Role == authz.RoleOrganizer && reservation.OrganizerID != principal.UserID {
		return Reservation{}, ErrForbidden
	}
	return reservation, nil
}

// ListReservations enumerates reservations visible to the principal.
// Organizers only ever see their own.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) ([]Reservation, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}

	filter := ReservationRepositoryFilter{
		RoomID:      params.RoomID,
		OrganizerID: params.OrganizerID,
		Status:      string(params.Status),
		StartsAfter: params.StartsAfter,
		EndsBefore:  params.EndsBefore,
		Limit:       params.Limit,
	}
	if params.Principal.Role == authz.RoleOrganizer {
		filter.OrganizerID = params.Principal.UserID
	}

	reservations, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return reservations, nil
}

// ListPendingApprovals returns reservations waiting for a decision. Only
// approvers and administrators may call it.
func (s *ReservationService) ListPendingApprovals(ctx context.Context, principal Principal) ([]Reservation, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}
	if !authz.Authorize(principal.Role, authz.ActionApprove, false) {
		return nil, ErrForbidden
	}

	reservations, err := s.reservations.ListReservations(ctx, ReservationRepositoryFilter{
		Status: string(lifecycle.StatusPending),
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return reservations, nil
}

// ListUpcoming returns approved reservations starting within the next given
// number of hours.
func (s *ReservationService) ListUpcoming(ctx context.Context, principal Principal, hours int) ([]Reservation, error) {
	if s == nil || s.reservations == nil {
		return nil, fmt.Errorf("reservation repository not configured")
	}
	if hours <= 0 {
		hours = 24
	}

	from := s.now()
	to := from.Add(time.Duration(hours) * time.Hour)
	filter := ReservationRepositoryFilter{
		Status:       string(lifecycle.StatusApproved),
		StartsAfter:  &from,
		StartsBefore: &to,
	}
	if principal.Role == authz.RoleOrganizer {
		filter.OrganizerID = principal.UserID
	}

	reservations, err := s.reservations.ListReservations(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return reservations, nil
}

// evaluatePolicy checks the advance-notice, business-hour, and weekday rules
// and accumulates every violated rule into one error.
func (s *ReservationService) evaluatePolicy(candidate interval.Range) *PolicyError {
	pErr := &PolicyError{}

	if candidate.Start.Sub(s.now()) < minAdvanceNotice {
		pErr.add(fmt.Sprintf("reservations require at least %d hours advance notice", int(minAdvanceNotice.Hours())))
	}
	if !candidate.WithinBusinessHours(s.location) {
		pErr.add(fmt.Sprintf("reservations are only allowed between %d:00 and %d:00", interval.BusinessOpenHour, interval.BusinessCloseHour))
	}
	if !candidate.IsWeekday(s.location) {
		pErr.add("reservations are not allowed on weekends")
	}

	return pErr
}

// deriveCoffeeBreak resolves the catering status for a range. An explicit
// caller request is honored only inside the late-morning window; short
// meetings and out-of-window meetings never get a coffee break.
func (s *ReservationService) deriveCoffeeBreak(candidate interval.Range, requested *bool) CoffeeBreak {
	if candidate.DurationHours() < coffeeBreakMinHours {
		return CoffeeBreakNotApplicable
	}

	startHour := candidate.Start.In(s.location).Hour()
	endHour := candidate.End.In(s.location).Hour()
	if startHour >= coffeeBreakWindowStart && endHour <= coffeeBreakWindowEnd {
		if requested != nil && *requested {
			return CoffeeBreakRequested
		}
		return CoffeeBreakNotRequested
	}

	return CoffeeBreakNotApplicable
}

func (s *ReservationService) reservationEvent(reservation Reservation, principal Principal, reason string) ReservationEvent {
	return ReservationEvent{
		ReservationID: reservation.ID,
		RoomID:        reservation.RoomID,
		OrganizerID:   reservation.OrganizerID,
		ActorID:       principal.UserID,
		Status:        string(reservation.Status),
		Start:         reservation.Start,
		End:           reservation.End,
		Reason:        reason,
		OccurredAt:    s.now(),
	}
}

// emit publishes a domain event after a successful commit. Sink failures are
// logged and never propagated: notification and audit delivery is best
// effort by contract.
func (s *ReservationService) emit(ctx context.Context, name string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, name, payload); err != nil {
		s.loggerWith(ctx, "emit").WarnContext(ctx, "failed to publish event", "event", name, "error", err)
	}
}

func validateReservationInput(input ReservationInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "title is required")
	}
	if input.AttendeesCount <= 0 {
		vErr.add("attendees_count", "attendees count must be positive")
	}
	if input.RoomID == "" {
		vErr.add("room_id", "room is required")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.End.After(input.Start) {
		vErr.add("time", "end must be after start")
	}

	return vErr
}

func validateReservationUpdate(updated Reservation) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(updated.Title) == "" {
		vErr.add("title", "title is required")
	}
	if updated.AttendeesCount <= 0 {
		vErr.add("attendees_count", "attendees count must be positive")
	}
	if !updated.End.After(updated.Start) {
		vErr.add("time", "end must be after start")
	}

	return vErr
}

// mapRepoError converts persistence sentinels into application errors.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("input", "stored constraints reject the requested values")
		return vErr
	}
	return err
}
