package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/authz"
)

// RoomService manages the meeting-room catalog. All mutations are gated on
// the administrator role; reads are open to every authenticated principal.
type RoomService struct {
	rooms       RoomRepository
	events      EventSink
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService wires dependencies for room catalog operations.
func NewRoomService(rooms RoomRepository, events EventSink, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, events, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, events EventSink, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{
		rooms:       rooms,
		events:      events,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom adds a room to the catalog. Active room names are unique.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil || s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID).InfoContext(ctx, "room created")
	}()

	if !authz.Authorize(params.Principal.Role, authz.ActionManageRooms, false) {
		err = ErrForbidden
		return
	}

	if vErr := validateRoomInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	createdAt := s.now()
	room = Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Capacity:  params.Input.Capacity,
		Location:  params.Input.Location,
		Equipment: params.Input.Equipment,
		Active:    true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	persisted, perr := s.rooms.CreateRoom(ctx, room)
	if perr != nil {
		err = mapRepoError(perr)
		room = Room{}
		return
	}
	room = persisted

	s.emit(ctx, EventRoomCreated, s.roomEvent(room, params.Principal))
	return
}

// UpdateRoom replaces the mutable fields of a room.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room Room, err error) {
	if s == nil || s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom",
		"principal_id", params.Principal.UserID,
		"room_id", params.RoomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room updated")
	}()

	if !authz.Authorize(params.Principal.Role, authz.ActionManageRooms, false) {
		err = ErrForbidden
		return
	}

	if vErr := validateRoomInput(params.Input); vErr.HasErrors() {
		err = vErr
		return
	}

	existing, gerr := s.rooms.GetRoom(ctx, params.RoomID)
	if gerr != nil {
		err = mapRepoError(gerr)
		return
	}

	existing.Name = strings.TrimSpace(params.Input.Name)
	existing.Capacity = params.Input.Capacity
	existing.Location = params.Input.Location
	existing.Equipment = params.Input.Equipment
	existing.UpdatedAt = s.now()

	persisted, perr := s.rooms.UpdateRoom(ctx, existing)
	if perr != nil {
		err = mapRepoError(perr)
		return
	}
	room = persisted

	s.emit(ctx, EventRoomUpdated, s.roomEvent(room, params.Principal))
	return
}

// DeactivateRoom retires a room from the catalog. The room record and its
// reservation history are kept; the room stops matching availability
// searches and new reservations.
func (s *RoomService) DeactivateRoom(ctx context.Context, principal Principal, roomID string) (room Room, err error) {
	if s == nil || s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "DeactivateRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to deactivate room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "room deactivated")
	}()

	if !authz.Authorize(principal.Role, authz.ActionManageRooms, false) {
		err = ErrForbidden
		return
	}

	existing, gerr := s.rooms.GetRoom(ctx, roomID)
	if gerr != nil {
		err = mapRepoError(gerr)
		return
	}

	existing.Active = false
	existing.UpdatedAt = s.now()

	persisted, perr := s.rooms.UpdateRoom(ctx, existing)
	if perr != nil {
		err = mapRepoError(perr)
		return
	}
	room = persisted

	s.emit(ctx, EventRoomDeactivated, s.roomEvent(room, principal))
	return
}

// GetRoom returns a single room, active or not.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (Room, error) {
	if s == nil || s.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Room{}, mapRepoError(err)
	}
	return room, nil
}

// ListRooms returns every active room.
func (s *RoomService) ListRooms(ctx context.Context) ([]Room, error) {
	if s == nil || s.rooms == nil {
		return nil, fmt.Errorf("room repository not configured")
	}
	rooms, err := s.rooms.ListActiveRooms(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return rooms, nil
}

func (s *RoomService) roomEvent(room Room, principal Principal) RoomEvent {
	return RoomEvent{
		RoomID:     room.ID,
		Name:       room.Name,
		ActorID:    principal.UserID,
		Active:     room.Active,
		OccurredAt: s.now(),
	}
}

func (s *RoomService) emit(ctx context.Context, name string, payload any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, name, payload); err != nil {
		s.loggerWith(ctx, "emit").WarnContext(ctx, "failed to publish event", "event", name, "error", err)
	}
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}
	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}
	return vErr
}
