// Package wiring assembles the application services over a persistence store.
// The adapters here convert between persistence rows and application types.
package wiring

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

// Store is the persistence surface the services need. *sqlite.Storage satisfies it.
type Store interface {
	persistence.UserRepository
	persistence.RoomRepository
	persistence.ReservationRepository
	persistence.SessionRepository
	Ping(ctx context.Context) error
}

// Options configures NewServices. Zero values fall back to service defaults,
// except IDGenerator which defaults to uuid.NewString.
type Options struct {
	Signer              application.TokenSigner
	Observer            application.ReservationObserver
	Hasher              application.PasswordHasher
	IDGenerator         func() string
	Now                 func() time.Time
	Location            *time.Location
	StrictSlotAlignment bool
	SessionTTL          time.Duration
	Logger              *slog.Logger
}

type Services struct {
	Auth         *application.AuthService
	Users        *application.UserService
	Rooms        *application.RoomService
	Reservations *application.ReservationService
}

func NewServices(store Store, opts Options) Services {
	idGenerator := opts.IDGenerator
	if idGenerator == nil {
		idGenerator = uuid.NewString
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	users := newUserRepositoryAdapter(store)
	rooms := newRoomRepositoryAdapter(store)

	reservationOpts := []application.ReservationOption{
		application.WithReservationLogger(opts.Logger),
		application.WithGrid(booking.NewGrid(opts.Location)),
		application.WithStrictSlotAlignment(opts.StrictSlotAlignment),
	}
	if opts.Observer != nil {
		reservationOpts = append(reservationOpts, application.WithReservationObserver(opts.Observer))
	}

	return Services{
		Auth: application.NewAuthServiceWithLogger(
			newCredentialStoreAdapter(store),
			newSessionRepositoryAdapter(store),
			opts.Signer,
			nil,
			idGenerator,
			now,
			opts.SessionTTL,
			opts.Logger,
		),
		Users: application.NewUserServiceWithLogger(users, opts.Hasher, idGenerator, now, opts.Logger),
		Rooms: application.NewRoomServiceWithLogger(rooms, idGenerator, now, opts.Logger),
		Reservations: application.NewReservationService(
			newReservationRepositoryAdapter(store),
			rooms,
			users,
			idGenerator,
			now,
			reservationOpts...,
		),
	}
}
