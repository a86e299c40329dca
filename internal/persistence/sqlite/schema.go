package sqlite

import (
	"context"
	"fmt"
)

// schema is the full DDL, applied idempotently at startup. Timestamps are
// stored as RFC3339 UTC text; the unique index on active room names lets a
// retired room's name be reused.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL,
	role          TEXT NOT NULL CHECK (role IN ('organizer', 'approver', 'administrator', 'reception')),
	password_hash TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS rooms (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	capacity   INTEGER NOT NULL CHECK (capacity > 0),
	location   TEXT NOT NULL DEFAULT '',
	equipment  TEXT NOT NULL DEFAULT '[]',
	active     INTEGER NOT NULL DEFAULT 1,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_rooms_active_name ON rooms (name) WHERE active = 1;

CREATE TABLE IF NOT EXISTS reservations (
	id                      TEXT PRIMARY KEY,
	room_id                 TEXT NOT NULL REFERENCES rooms (id),
	organizer_id            TEXT NOT NULL REFERENCES users (id),
	title                   TEXT NOT NULL,
	description             TEXT NOT NULL DEFAULT '',
	start_at                TEXT NOT NULL,
	end_at                  TEXT NOT NULL,
	attendees_count         INTEGER NOT NULL CHECK (attendees_count > 0),
	coffee_break            TEXT NOT NULL CHECK (coffee_break IN ('not_applicable', 'requested', 'not_requested')),
	status                  TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'cancelled', 'completed')),
	approver_id             TEXT REFERENCES users (id),
	approved_at             TEXT,
	rejection_reason        TEXT,
	checked_in              INTEGER NOT NULL DEFAULT 0,
	checked_in_at           TEXT,
	no_show                 INTEGER NOT NULL DEFAULT 0,
	completion_confirmed    INTEGER NOT NULL DEFAULT 0,
	completion_confirmed_at TEXT,
	created_at              TEXT NOT NULL,
	updated_at              TEXT NOT NULL,
	CHECK (end_at > start_at)
);

CREATE INDEX IF NOT EXISTS idx_reservations_room_window ON reservations (room_id, start_at);
CREATE INDEX IF NOT EXISTS idx_reservations_organizer ON reservations (organizer_id);
CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations (status);

CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users (id),
	token      TEXT NOT NULL UNIQUE,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	revoked_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at);
`

// Migrate applies the schema.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
