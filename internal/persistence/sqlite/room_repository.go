package sqlite

import (
	"context"
	"fmt"

	"github.com/example/room-reservation/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite.
type RoomRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository.
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const roomColumns = "id, name, capacity, location, equipment, active, created_at, updated_at"

// CreateRoom inserts a new room.
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	equipment, err := encodeEquipment(room.Equipment)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO rooms (` + roomColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.helper.Exec(ctx, query,
		room.ID,
		room.Name,
		room.Capacity,
		room.Location,
		equipment,
		room.Active,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// UpdateRoom updates an existing room.
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	equipment, err := encodeEquipment(room.Equipment)
	if err != nil {
		return err
	}

	query := `
		UPDATE rooms
		SET name = ?, capacity = ?, location = ?, equipment = ?, active = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		room.Name,
		room.Capacity,
		room.Location,
		equipment,
		room.Active,
		formatTime(room.UpdatedAt),
		room.ID,
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

// GetRoom retrieves a room by ID, active or not.
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	row := r.helper.QueryRow(ctx, query, id)
	room, err := scanRoom(row)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// ListActiveRooms returns active rooms ordered by name.
func (r *RoomRepository) ListActiveRooms(ctx context.Context) ([]persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE active = 1 ORDER BY name, id`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var room persistence.Room
	var equipment, createdAt, updatedAt string

	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Capacity,
		&room.Location,
		&equipment,
		&room.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Room{}, err
	}

	if room.Equipment, err = decodeEquipment(equipment); err != nil {
		return persistence.Room{}, err
	}
	if room.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
