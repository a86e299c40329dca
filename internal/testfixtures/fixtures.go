// Package testfixtures provides deterministic clocks, id generators, and
// domain fixtures shared by test suites across packages.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/authz"
	"github.com/example/room-reservation/internal/lifecycle"
	"github.com/example/room-reservation/internal/persistence"
)

var (
	userCounter        uint64
	roomCounter        uint64
	reservationCounter uint64
)

// referenceTime is a Monday well inside business hours so fixtures satisfy
// the scheduling policy by default.
var referenceTime = time.Date(2026, time.March, 2, 6, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserFixture represents a deterministic account record.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	Role         authz.Role
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		Role:         authz.RoleOrganizer,
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) { f.ID = id }
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) { f.Email = email }
}

// WithUserRole sets the role on the generated fixture.
func WithUserRole(role authz.Role) UserOption {
	return func(f *UserFixture) { f.Role = role }
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) { f.PasswordHash = hash }
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:          f.ID,
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Record returns the fixture as an application.UserRecord.
func (f UserFixture) Record() application.UserRecord {
	return application.UserRecord{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		Role:         string(f.Role),
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// RoomFixture represents a deterministic room catalog entry.
type RoomFixture struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	Equipment []string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Capacity:  10,
		Active:    true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) { f.ID = id }
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) { f.Name = name }
}

// WithRoomCapacity sets the room capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(f *RoomFixture) { f.Capacity = capacity }
}

// WithRoomEquipment sets the room equipment list.
func WithRoomEquipment(equipment ...string) RoomOption {
	return func(f *RoomFixture) { f.Equipment = equipment }
}

// WithRoomActive sets the active flag.
func WithRoomActive(active bool) RoomOption {
	return func(f *RoomFixture) { f.Active = active }
}

// Application returns the fixture as an application.Room value.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:        f.ID,
		Name:      f.Name,
		Capacity:  f.Capacity,
		Location:  f.Location,
		Equipment: append([]string(nil), f.Equipment...),
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Room value.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Capacity:  f.Capacity,
		Location:  f.Location,
		Equipment: append([]string(nil), f.Equipment...),
		Active:    f.Active,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ReservationFixture represents a deterministic reservation snapshot. The
// default window is a two hour weekday slot inside business hours, four hours
// after ReferenceTime.
type ReservationFixture struct {
	ID             string
	RoomID         string
	OrganizerID    string
	Title          string
	Start          time.Time
	End            time.Time
	AttendeesCount int
	CoffeeBreak    application.CoffeeBreak
	Status         lifecycle.Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ReservationOption configures the generated reservation fixture.
type ReservationOption func(*ReservationFixture)

// NewReservationFixture returns a deterministic reservation fixture with
// optional overrides.
func NewReservationFixture(opts ...ReservationOption) ReservationFixture {
	idx := atomic.AddUint64(&reservationCounter, 1)
	start := referenceTime.Add(4 * time.Hour)
	fixture := ReservationFixture{
		ID:             fmt.Sprintf("res-%03d", idx),
		RoomID:         "room-001",
		OrganizerID:    "user-001",
		Title:          fmt.Sprintf("Meeting %03d", idx),
		Start:          start,
		End:            start.Add(2 * time.Hour),
		AttendeesCount: 4,
		CoffeeBreak:    application.CoffeeBreakNotApplicable,
		Status:         lifecycle.StatusPending,
		CreatedAt:      referenceTime,
		UpdatedAt:      referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithReservationID overrides the generated reservation ID.
func WithReservationID(id string) ReservationOption {
	return func(f *ReservationFixture) { f.ID = id }
}

// WithReservationRoom sets the referenced room ID.
func WithReservationRoom(roomID string) ReservationOption {
	return func(f *ReservationFixture) { f.RoomID = roomID }
}

// WithReservationOrganizer sets the organizer ID.
func WithReservationOrganizer(organizerID string) ReservationOption {
	return func(f *ReservationFixture) { f.OrganizerID = organizerID }
}

// WithReservationWindow sets the start and end of the reservation.
func WithReservationWindow(start, end time.Time) ReservationOption {
	return func(f *ReservationFixture) {
		f.Start = start
		f.End = end
	}
}

// WithReservationStatus sets the lifecycle status.
func WithReservationStatus(status lifecycle.Status) ReservationOption {
	return func(f *ReservationFixture) { f.Status = status }
}

// Application returns the fixture as an application.Reservation value.
func (f ReservationFixture) Application() application.Reservation {
	return application.Reservation{
		ID:             f.ID,
		RoomID:         f.RoomID,
		OrganizerID:    f.OrganizerID,
		Title:          f.Title,
		Start:          f.Start,
		End:            f.End,
		AttendeesCount: f.AttendeesCount,
		CoffeeBreak:    f.CoffeeBreak,
		Status:         f.Status,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Reservation value.
func (f ReservationFixture) Persistence() persistence.Reservation {
	return persistence.Reservation{
		ID:             f.ID,
		RoomID:         f.RoomID,
		OrganizerID:    f.OrganizerID,
		Title:          f.Title,
		Start:          f.Start,
		End:            f.End,
		AttendeesCount: f.AttendeesCount,
		CoffeeBreak:    string(f.CoffeeBreak),
		Status:         string(f.Status),
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}
