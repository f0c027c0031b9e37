package persistence

import "time"

// User represents an account able to request reservations.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a bookable meeting room and its equipment.
type Room struct {
	ID             string
	Name           string
	MaxCapacity    int
	HasProjector   bool
	HasWhiteboard  bool
	HasAudio       bool
	HasVentilation bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Reservation represents a request to use a room for one slot.
type Reservation struct {
	ID        string
	RoomID    string
	UserID    string
	Time      time.Time
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReservationDetail is a reservation joined with its room and user labels.
type ReservationDetail struct {
	Reservation
	RoomName      string
	UserFirstName string
	UserLastName  string
	UserEmail     string
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
