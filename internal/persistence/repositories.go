package persistence

import (
	"context"
	"time"
)

// UserRepository exposes the identity store operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CountUsers(ctx context.Context) (int, error)
}

// RoomRepository exposes catalog operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	// ListActiveRooms returns active rooms ordered by name.
	ListActiveRooms(ctx context.Context) ([]Room, error)
}

// ReservationFilter narrows reservation queries. The time bounds are
// strict comparisons.
type ReservationFilter struct {
	RoomID       string
	OrganizerID  string
	Status       string
	StartsAfter  *time.Time
	StartsBefore *time.Time
	EndsBefore   *time.Time
	Limit        int
}

// ReservationRepository stores reservation snapshots.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	UpdateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (Reservation, error)
	// ListReservations returns reservations matching the filter ordered by
	// start time descending.
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	// ListActiveForRoom returns reservations in an active status (pending or
	// approved) for the room whose ranges intersect [from, to).
	ListActiveForRoom(ctx context.Context, roomID string, from, to time.Time) ([]Reservation, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, id string, revokedAt time.Time) error
	// DeleteExpiredSessions removes sessions whose expiry predates the
	// reference time and reports how many were removed.
	DeleteExpiredSessions(ctx context.Context, reference time.Time) (int, error)
}
