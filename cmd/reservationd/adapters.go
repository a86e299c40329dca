package main

import (
	"context"
	"time"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/authz"
	"github.com/example/room-reservation/internal/interval"
	"github.com/example/room-reservation/internal/lifecycle"
	"github.com/example/room-reservation/internal/persistence"
)

// The application services speak domain types while the repositories persist
// storage models. The adapters below translate between the two so neither
// package imports the other's vocabulary.

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:        room.ID,
		Name:      room.Name,
		Capacity:  room.Capacity,
		Location:  room.Location,
		Equipment: append([]string(nil), room.Equipment...),
		Active:    room.Active,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toApplicationRoom(room persistence.Room) application.Room {
	return application.Room{
		ID:        room.ID,
		Name:      room.Name,
		Capacity:  room.Capacity,
		Location:  room.Location,
		Equipment: append([]string(nil), room.Equipment...),
		Active:    room.Active,
		CreatedAt: room.CreatedAt,
		UpdatedAt: room.UpdatedAt,
	}
}

func toPersistenceReservation(reservation application.Reservation) persistence.Reservation {
	return persistence.Reservation{
		ID:                    reservation.ID,
		RoomID:                reservation.RoomID,
		OrganizerID:           reservation.OrganizerID,
		Title:                 reservation.Title,
		Description:           reservation.Description,
		Start:                 reservation.Start,
		End:                   reservation.End,
		AttendeesCount:        reservation.AttendeesCount,
		CoffeeBreak:           string(reservation.CoffeeBreak),
		Status:                string(reservation.Status),
		ApproverID:            reservation.ApproverID,
		ApprovedAt:            reservation.ApprovedAt,
		RejectionReason:       reservation.RejectionReason,
		CheckedIn:             reservation.CheckedIn,
		CheckedInAt:           reservation.CheckedInAt,
		NoShow:                reservation.NoShow,
		CompletionConfirmed:   reservation.CompletionConfirmed,
		CompletionConfirmedAt: reservation.CompletionConfirmedAt,
		CreatedAt:             reservation.CreatedAt,
		UpdatedAt:             reservation.UpdatedAt,
	}
}

func toApplicationReservation(reservation persistence.Reservation) application.Reservation {
	return application.Reservation{
		ID:                    reservation.ID,
		RoomID:                reservation.RoomID,
		OrganizerID:           reservation.OrganizerID,
		Title:                 reservation.Title,
		Description:           reservation.Description,
		Start:                 reservation.Start,
		End:                   reservation.End,
		AttendeesCount:        reservation.AttendeesCount,
		CoffeeBreak:           application.CoffeeBreak(reservation.CoffeeBreak),
		Status:                lifecycle.Status(reservation.Status),
		ApproverID:            reservation.ApproverID,
		ApprovedAt:            reservation.ApprovedAt,
		RejectionReason:       reservation.RejectionReason,
		CheckedIn:             reservation.CheckedIn,
		CheckedInAt:           reservation.CheckedInAt,
		NoShow:                reservation.NoShow,
		CompletionConfirmed:   reservation.CompletionConfirmed,
		CompletionConfirmedAt: reservation.CompletionConfirmedAt,
		CreatedAt:             reservation.CreatedAt,
		UpdatedAt:             reservation.UpdatedAt,
	}
}

func toApplicationUser(user persistence.User) application.User {
	return application.User{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        authz.Role(user.Role),
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: session.RevokedAt,
	}
}

func toApplicationSession(session persistence.Session) application.Session {
	return application.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		RevokedAt: session.RevokedAt,
	}
}

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func newRoomRepositoryAdapter(repo persistence.RoomRepository) *roomRepositoryAdapter {
	return &roomRepositoryAdapter{repo: repo}
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) ListActiveRooms(ctx context.Context) ([]application.Room, error) {
	models, err := a.repo.ListActiveRooms(ctx)
	if err != nil {
		return nil, err
	}
	rooms := make([]application.Room, 0, len(models))
	for _, model := range models {
		rooms = append(rooms, toApplicationRoom(model))
	}
	return rooms, nil
}

type reservationRepositoryAdapter struct {
	repo persistence.ReservationRepository
}

func newReservationRepositoryAdapter(repo persistence.ReservationRepository) *reservationRepositoryAdapter {
	return &reservationRepositoryAdapter{repo: repo}
}

func (a *reservationRepositoryAdapter) CreateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.CreateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	stored, err := a.repo.GetReservation(ctx, reservation.ID)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) UpdateReservation(ctx context.Context, reservation application.Reservation) (application.Reservation, error) {
	if err := a.repo.UpdateReservation(ctx, toPersistenceReservation(reservation)); err != nil {
		return application.Reservation{}, err
	}
	stored, err := a.repo.GetReservation(ctx, reservation.ID)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) GetReservation(ctx context.Context, id string) (application.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return application.Reservation{}, err
	}
	return toApplicationReservation(stored), nil
}

func (a *reservationRepositoryAdapter) ListReservations(ctx context.Context, filter application.ReservationRepositoryFilter) ([]application.Reservation, error) {
	models, err := a.repo.ListReservations(ctx, persistence.ReservationFilter{
		RoomID:       filter.RoomID,
		OrganizerID:  filter.OrganizerID,
		Status:       filter.Status,
		StartsAfter:  filter.StartsAfter,
		StartsBefore: filter.StartsBefore,
		EndsBefore:   filter.EndsBefore,
		Limit:        filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	return toApplicationReservations(models), nil
}

func (a *reservationRepositoryAdapter) ListActiveForRoom(ctx context.Context, roomID string, window interval.Range) ([]application.Reservation, error) {
	models, err := a.repo.ListActiveForRoom(ctx, roomID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	return toApplicationReservations(models), nil
}

func toApplicationReservations(models []persistence.Reservation) []application.Reservation {
	reservations := make([]application.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, toApplicationReservation(model))
	}
	return reservations
}

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func newUserRepositoryAdapter(repo persistence.UserRepository) *userRepositoryAdapter {
	return &userRepositoryAdapter{repo: repo}
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, record application.UserRecord) (application.User, error) {
	model := persistence.User{
		ID:           record.ID,
		Email:        record.Email,
		DisplayName:  record.DisplayName,
		Role:         string(record.Role),
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
	if err := a.repo.CreateUser(ctx, model); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, record.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.UserRecord, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.UserRecord{}, err
	}
	return application.UserRecord{
		User:         toApplicationUser(stored),
		PasswordHash: stored.PasswordHash,
	}, nil
}

func (a *userRepositoryAdapter) CountUsers(ctx context.Context) (int, error) {
	return a.repo.CountUsers(ctx)
}

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
	now  func() time.Time
}

func newSessionRepositoryAdapter(repo persistence.SessionRepository, now func() time.Time) *sessionRepositoryAdapter {
	if now == nil {
		now = time.Now
	}
	return &sessionRepositoryAdapter{repo: repo, now: now}
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.CreateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, err
	}
	stored, err := a.repo.GetSession(ctx, session.Token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSessionByToken(ctx context.Context, token string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, token)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) RevokeSession(ctx context.Context, id string) error {
	return a.repo.RevokeSession(ctx, id, a.now())
}

func (a *sessionRepositoryAdapter) DeleteExpiredSessions(ctx context.Context, before time.Time) (int, error) {
	return a.repo.DeleteExpiredSessions(ctx, before)
}
