package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/room-reservation/internal/interval"
	"github.com/example/room-reservation/internal/lifecycle"
	"github.com/example/room-reservation/internal/persistence"
)

// memoryStore is a functional in-memory implementation of both repository
// interfaces. It is safe for concurrent use so tests can exercise the
// per-room serialization of the reservation service.
type memoryStore struct {
	mu           sync.Mutex
	rooms        map[string]Room
	reservations map[string]Reservation
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		rooms:        make(map[string]Room),
		reservations: make(map[string]Reservation),
	}
}

func (m *memoryStore) putRoom(room Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
}

func (m *memoryStore) putReservation(reservation Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[reservation.ID] = reservation
}

func (m *memoryStore) CreateRoom(_ context.Context, room Room) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rooms {
		if existing.Active && existing.Name == room.Name {
			return Room{}, persistence.ErrDuplicate
		}
	}
	m.rooms[room.ID] = room
	return room, nil
}

func (m *memoryStore) GetRoom(_ context.Context, id string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (m *memoryStore) UpdateRoom(_ context.Context, room Room) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return Room{}, persistence.ErrNotFound
	}
	m.rooms[room.ID] = room
	return room, nil
}

func (m *memoryStore) ListActiveRooms(_ context.Context) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rooms := make([]Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		if room.Active {
			rooms = append(rooms, room)
		}
	}
	return rooms, nil
}

func (m *memoryStore) CreateReservation(_ context.Context, reservation Reservation) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[reservation.ID]; ok {
		return Reservation{}, persistence.ErrDuplicate
	}
	m.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (m *memoryStore) UpdateReservation(_ context.Context, reservation Reservation) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[reservation.ID]; !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	m.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (m *memoryStore) GetReservation(_ context.Context, id string) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reservation, ok := m.reservations[id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	return reservation, nil
}

func (m *memoryStore) ListReservations(_ context.Context, filter ReservationRepositoryFilter) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := make([]Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		if filter.OrganizerID != "" && r.OrganizerID != filter.OrganizerID {
			continue
		}
		if filter.Status != "" && string(r.Status) != filter.Status {
			continue
		}
		if filter.StartsAfter != nil && !r.Start.After(*filter.StartsAfter) {
			continue
		}
		if filter.StartsBefore != nil && !r.Start.Before(*filter.StartsBefore) {
			continue
		}
		if filter.EndsBefore != nil && !r.End.Before(*filter.EndsBefore) {
			continue
		}
		matched = append(matched, r)
		if filter.Limit > 0 && len(matched) == filter.Limit {
			break
		}
	}
	return matched, nil
}

func (m *memoryStore) ListActiveForRoom(_ context.Context, roomID string, window interval.Range) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	active := make([]Reservation, 0)
	for _, r := range m.reservations {
		if r.RoomID != roomID {
			continue
		}
		if r.Status != lifecycle.StatusPending && r.Status != lifecycle.StatusApproved {
			continue
		}
		if r.Range().Overlaps(window) {
			active = append(active, r)
		}
	}
	return active, nil
}

// recordingSink captures published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	names  []string
	events []any
	fail   error
}

func (r *recordingSink) Publish(_ context.Context, name string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.names = append(r.names, name)
	r.events = append(r.events, payload)
	return nil
}

func (r *recordingSink) published() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

// idSequence hands out deterministic identifiers and is safe for concurrent
// use.
type idSequence struct {
	mu     sync.Mutex
	prefix string
	n      int
}

func (s *idSequence) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}
