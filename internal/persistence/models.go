package persistence

import "time"

// User represents an account in the identity store. Role is one of the closed
// set enforced by the authorization gate; the persistence layer stores it as
// text.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a meeting room catalog entry. Rooms are soft-deleted:
// deactivated rooms disappear from availability and listings while historical
// reservations keep referencing them.
type Room struct {
	ID        string
	Name      string
	Capacity  int
	Location  string
	Equipment []string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation represents a stored reservation snapshot. Reservations are
// never physically deleted; terminal states are retained for audit and
// reporting.
type Reservation struct {
	ID                    string
	RoomID                string
	OrganizerID           string
	Title                 string
	Description           string
	Start                 time.Time
	End                   time.Time
	AttendeesCount        int
	CoffeeBreak           string
	Status                string
	ApproverID            *string
	ApprovedAt            *time.Time
	RejectionReason       *string
	CheckedIn             bool
	CheckedInAt           *time.Time
	NoShow                bool
	CompletionConfirmed   bool
	CompletionConfirmedAt *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
