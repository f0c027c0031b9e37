package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// ReservationFilter narrows reservation queries. Zero values are not applied.
type ReservationFilter struct {
	RoomID   string
	UserID   string
	Status   string
	TimeFrom *time.Time
	TimeTo   *time.Time
}

// ReservationRepository stores reservations and guards slot ownership.
//
// CreateReservation and UpdateReservationStatus fail with ErrSlotTaken when
// another accepted reservation already holds the same room and time. Both
// operations leave stored state unchanged on failure.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, id string) (ReservationDetail, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]ReservationDetail, error)
	UpdateReservationStatus(ctx context.Context, id, status string, updatedAt time.Time) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
