package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-reservation/internal/persistence"
)

// ReservationRepository implements persistence.ReservationRepository using
// SQLite.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const reservationColumns = `id, room_id, organizer_id, title, description, start_at, end_at,
	attendees_count, coffee_break, status, approver_id, approved_at, rejection_reason,
	checked_in, checked_in_at, no_show, completion_confirmed, completion_confirmed_at,
	created_at, updated_at`

// CreateReservation inserts a new reservation snapshot.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		reservation.ID,
		reservation.RoomID,
		reservation.OrganizerID,
		reservation.Title,
		reservation.Description,
		formatTime(reservation.Start),
		formatTime(reservation.End),
		reservation.AttendeesCount,
		reservation.CoffeeBreak,
		reservation.Status,
		nullableString(reservation.ApproverID),
		formatNullableTime(reservation.ApprovedAt),
		nullableString(reservation.RejectionReason),
		reservation.CheckedIn,
		formatNullableTime(reservation.CheckedInAt),
		reservation.NoShow,
		reservation.CompletionConfirmed,
		formatNullableTime(reservation.CompletionConfirmedAt),
		formatTime(reservation.CreatedAt),
		formatTime(reservation.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateReservation replaces an existing reservation snapshot.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrNotFound
	}

	query := `
		UPDATE reservations
		SET room_id = ?, organizer_id = ?, title = ?, description = ?, start_at = ?, end_at = ?,
			attendees_count = ?, coffee_break = ?, status = ?, approver_id = ?, approved_at = ?,
			rejection_reason = ?, checked_in = ?, checked_in_at = ?, no_show = ?,
			completion_confirmed = ?, completion_confirmed_at = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		reservation.RoomID,
		reservation.OrganizerID,
		reservation.Title,
		reservation.Description,
		formatTime(reservation.Start),
		formatTime(reservation.End),
		reservation.AttendeesCount,
		reservation.CoffeeBreak,
		reservation.Status,
		nullableString(reservation.ApproverID),
		formatNullableTime(reservation.ApprovedAt),
		nullableString(reservation.RejectionReason),
		reservation.CheckedIn,
		formatNullableTime(reservation.CheckedInAt),
		reservation.NoShow,
		reservation.CompletionConfirmed,
		formatNullableTime(reservation.CompletionConfirmedAt),
		formatTime(reservation.UpdatedAt),
		reservation.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	row := r.helper.QueryRow(ctx, query, id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	return reservation, nil
}

// ListReservations returns reservations matching the filter ordered by start
// time descending.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var conditions []string
	var args []any

	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.OrganizerID != "" {
		conditions = append(conditions, "organizer_id = ?")
		args = append(args, filter.OrganizerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, "start_at > ?")
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_at < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, "end_at < ?")
		args = append(args, formatTime(*filter.EndsBefore))
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	return r.queryReservations(ctx, query, args...)
}

// ListActiveForRoom returns pending and approved reservations for the room
// whose ranges intersect [from, to).
func (r *ReservationRepository) ListActiveForRoom(ctx context.Context, roomID string, from, to time.Time) ([]persistence.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE room_id = ?
		  AND status IN ('pending', 'approved')
		  AND start_at < ?
		  AND end_at > ?
		ORDER BY start_at, id
	`
	return r.queryReservations(ctx, query, roomID, formatTime(to), formatTime(from))
}

func (r *ReservationRepository) queryReservations(ctx context.Context, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return reservations, nil
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var startAt, endAt, createdAt, updatedAt string
	var approverID, approvedAt, rejectionReason, checkedInAt, completionConfirmedAt sql.NullString

	err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.OrganizerID,
		&reservation.Title,
		&reservation.Description,
		&startAt,
		&endAt,
		&reservation.AttendeesCount,
		&reservation.CoffeeBreak,
		&reservation.Status,
		&approverID,
		&approvedAt,
		&rejectionReason,
		&reservation.CheckedIn,
		&checkedInAt,
		&reservation.NoShow,
		&reservation.CompletionConfirmed,
		&completionConfirmedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Reservation{}, err
	}

	if reservation.Start, err = parseTime(startAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.End, err = parseTime(endAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Reservation{}, err
	}

	reservation.ApproverID = fromNullString(approverID)
	reservation.RejectionReason = fromNullString(rejectionReason)
	if reservation.ApprovedAt, err = parseNullableTime(approvedAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CheckedInAt, err = parseNullableTime(checkedInAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.CompletionConfirmedAt, err = parseNullableTime(completionConfirmedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
