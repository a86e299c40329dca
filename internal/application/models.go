package application

import (
	"time"

	"github.com/example/room-reservation/internal/authz"
	"github.com/example/room-reservation/internal/interval"
	"github.com/example/room-reservation/internal/lifecycle"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   authz.Role
}

// CoffeeBreak enumerates the catering status derived for a reservation.
type CoffeeBreak string

const (
	CoffeeBreakNotApplicable CoffeeBreak = "not_applicable"
	CoffeeBreakRequested     CoffeeBreak = "requested"
	CoffeeBreakNotRequested  CoffeeBreak = "not_requested"
)

// Room represents a catalog entry for a physical meeting room.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	Equipment []string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation represents a reservation snapshot exposed by the service.
type Reservation struct {
	ID                    string
	RoomID                string
	OrganizerID           string
	Title                 string
	Description           string
	Start                 time.Time
	End                   time.Time
	AttendeesCount        int
	CoffeeBreak           CoffeeBreak
	Status                lifecycle.Status
	ApproverID            *string
	ApprovedAt            *time.Time
	RejectionReason       *string
	CheckedIn             bool
	CheckedInAt           *time.Time
	NoShow                bool
	CompletionConfirmed   bool
	CompletionConfirmedAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Range returns the reservation's half-open time range.
func (r Reservation) Range() interval.Range {
	return interval.New(r.Start, r.End)
}

// lifecycleState projects the reservation onto the state machine's view.
func (r Reservation) lifecycleState() lifecycle.State {
	return lifecycle.State{Status: r.Status, CheckedIn: r.CheckedIn, NoShow: r.NoShow}
}

// ReservationInput captures caller provided reservation fields for creation.
// CoffeeBreak is a tri-state: nil means the caller expressed no preference.
type ReservationInput struct {
	RoomID         string
	Title          string
	Description    string
	Start          time.Time
	End            time.Time
	AttendeesCount int
	CoffeeBreak    *bool
}

// ReservationPatch carries partial updates; nil fields are left untouched.
type ReservationPatch struct {
	Title          *string
	Description    *string
	Start          *time.Time
	End            *time.Time
	AttendeesCount *int
	CoffeeBreak    *bool
}

// CreateReservationParams wraps the data required to create a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationParams wraps the data required to update a reservation.
type UpdateReservationParams struct {
	Principal     Principal
	ReservationID string
	Patch         ReservationPatch
}

// UpdateReservationResult reports the updated snapshot. RequiresReapproval is
// set when changing the time range of an approved reservation demoted it back
// to pending; callers must surface this rather than treat it as a silent side
// effect.
type UpdateReservationResult struct {
	Reservation        Reservation
	RequiresReapproval bool
}

// RejectReservationParams wraps the data required to reject a reservation.
type RejectReservationParams struct {
	Principal     Principal
	ReservationID string
	Reason        string
}

// CancelReservationParams wraps the data required to cancel a reservation.
// Reason is optional.
type CancelReservationParams struct {
	Principal     Principal
	ReservationID string
	Reason        string
}

// ListReservationsParams narrows reservation listings. Organizers are always
// restricted to their own reservations regardless of the filter.
type ListReservationsParams struct {
	Principal   Principal
	RoomID      string
	OrganizerID string
	Status      lifecycle.Status
	StartsAfter *time.Time
	EndsBefore  *time.Time
	Limit       int
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name      string
	Capacity  int
	Location  string
	Equipment []string
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// User represents an account exposed by the identity store.
type User struct {
	ID          string
	Email       string
	DisplayName string
	Role        authz.Role
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication.
type AuthenticateResult struct {
	User    User
	Session Session
}
