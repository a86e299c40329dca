package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/room-reservation/internal/interval"
)

// RoomRepository captures the persistence interactions needed for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id string) (Room, error)
	UpdateRoom(ctx context.Context, room Room) (Room, error)
	ListActiveRooms(ctx context.Context) ([]Room, error)
}

// ReservationRepository captures the persistence interactions needed for
// reservations.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	UpdateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationRepositoryFilter) ([]Reservation, error)
	// ListActiveForRoom returns pending and approved reservations for the
	// room whose ranges intersect the window.
	ListActiveForRoom(ctx context.Context, roomID string, window interval.Range) ([]Reservation, error)
}

// ReservationRepositoryFilter narrows queries issued to the reservation
// repository.
type ReservationRepositoryFilter struct {
	RoomID      string
	OrganizerID string
	Status      string
	// The time bounds are strict: StartsAfter and StartsBefore compare
	// against the reservation start, EndsBefore against its end.
	StartsAfter  *time.Time
	StartsBefore *time.Time
	EndsBefore   *time.Time
	Limit        int
}

// AvailabilityIndex answers room availability questions against the current
// set of active reservations. It deliberately carries no cache: every check
// re-reads persistence so the answer is never stale, trading latency for
// correctness at this system's write volume.
type AvailabilityIndex struct {
	rooms        RoomRepository
	reservations ReservationRepository
}

// NewAvailabilityIndex wires the index to its repositories.
func NewAvailabilityIndex(rooms RoomRepository, reservations ReservationRepository) *AvailabilityIndex {
	return &AvailabilityIndex{rooms: rooms, reservations: reservations}
}

// IsAvailable reports whether granting the candidate range on the room would
// keep the no-overlap invariant. excludeReservationID ignores one existing
// reservation, used when re-checking an update in place.
//
// The answer is advisory on its own: callers mutating occupancy must hold the
// room's lock across this check and the subsequent write.
func (ai *AvailabilityIndex) IsAvailable(ctx context.Context, roomID string, candidate interval.Range, excludeReservationID string) (bool, error) {
	if ai == nil || ai.reservations == nil {
		return false, fmt.Errorf("availability index not configured")
	}

	active, err := ai.reservations.ListActiveForRoom(ctx, roomID, candidate)
	if err != nil {
		return false, err
	}

	for _, reservation := range active {
		if reservation.ID == excludeReservationID {
			continue
		}
		if reservation.Range().Overlaps(candidate) {
			return false, nil
		}
	}
	return true, nil
}

// FindAvailableRooms returns every active room with capacity of at least
// minCapacity that is free for the whole range, ordered by name. A
// minCapacity of zero disables the capacity filter.
func (ai *AvailabilityIndex) FindAvailableRooms(ctx context.Context, candidate interval.Range, minCapacity int) ([]Room, error) {
	if ai == nil || ai.rooms == nil {
		return nil, fmt.Errorf("availability index not configured")
	}

	rooms, err := ai.rooms.ListActiveRooms(ctx)
	if err != nil {
		return nil, err
	}

	available := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if minCapacity > 0 && room.Capacity < minCapacity {
			continue
		}
		free, err := ai.IsAvailable(ctx, room.ID, candidate, "")
		if err != nil {
			return nil, err
		}
		if free {
			available = append(available, room)
		}
	}

	sort.Slice(available, func(i, j int) bool {
		if available[i].Name == available[j].Name {
			return available[i].ID < available[j].ID
		}
		return available[i].Name < available[j].Name
	})

	return available, nil
}
