package application

import (
	"context"
	"time"
)

// Lifecycle event names published for notification and audit collaborators.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationUpdated   = "reservation.updated"
	EventReservationApproved  = "reservation.approved"
	EventReservationRejected  = "reservation.rejected"
	EventReservationCancelled = "reservation.cancelled"
	EventReservationCheckedIn = "reservation.checked_in"
	EventReservationNoShow    = "reservation.no_show"
	EventReservationCompleted = "reservation.completed"
	EventRoomCreated          = "room.created"
	EventRoomUpdated          = "room.updated"
	EventRoomDeactivated      = "room.deactivated"
)

// EventSink receives domain events emitted after successful commits. Delivery
// is best effort: a sink failure is logged by the emitting service and never
// rolls back or fails the lifecycle operation.
type EventSink interface {
	Publish(ctx context.Context, name string, payload any) error
}

// ReservationEvent is the payload published for reservation lifecycle events.
type ReservationEvent struct {
	ReservationID      string    `json:"reservation_id"`
	RoomID             string    `json:"room_id"`
	OrganizerID        string    `json:"organizer_id"`
	ActorID            string    `json:"actor_id"`
	Status             string    `json:"status"`
	Start              time.Time `json:"start"`
	End                time.Time `json:"end"`
	RequiresReapproval bool      `json:"requires_reapproval,omitempty"`
	Reason             string    `json:"reason,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// RoomEvent is the payload published for room catalog events.
type RoomEvent struct {
	RoomID     string    `json:"room_id"`
	Name       string    `json:"name"`
	ActorID    string    `json:"actor_id"`
	Active     bool      `json:"active"`
	OccurredAt time.Time `json:"occurred_at"`
}
