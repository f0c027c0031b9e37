package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/wiring"
)

// seedPrincipal is the identity the loader acts as. It never exists as a user.
var seedPrincipal = application.Principal{UserID: "seed-loader", Role: application.RoleAdmin}

type seedData struct {
	Rooms        []seedRoom        `json:"rooms"`
	Users        []seedUser        `json:"users"`
	Reservations []seedReservation `json:"reservations"`
}

type seedRoom struct {
	ID       json.Number  `json:"id"`
	Name     string       `json:"room_name"`
	Features seedFeatures `json:"features"`
}

type seedFeatures struct {
	MaxCapacity    int  `json:"maxCapacity"`
	HasProjector   bool `json:"hasProjector"`
	HasWhiteboard  bool `json:"hasWhiteboard"`
	HasAudio       bool `json:"hasAudio"`
	HasVentilation bool `json:"hasVentilation"`
}

type seedUser struct {
	ID        json.Number `json:"id"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	Role      string      `json:"role"`
}

type seedReservation struct {
	ID     string      `json:"id"`
	RoomID json.Number `json:"roomID"`
	UserID json.Number `json:"userID"`
	Time   string      `json:"time"`
	Status string      `json:"status"`
}

// statusAliases maps the Spanish labels found in older data files.
var statusAliases = map[string]string{
	"aceptada":  "accepted",
	"pendiente": "pending",
	"rechazada": "rejected",
}

type summary struct {
	Rooms        int
	Users        int
	Reservations int
	Skipped      int
}

func readSeedFile(path string) (seedData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return seedData{}, err
	}
	return parseSeed(raw)
}

func parseSeed(raw []byte) (seedData, error) {
	var data seedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return seedData{}, fmt.Errorf("decode seed data: %w", err)
	}
	return data, nil
}

type loader struct {
	services wiring.Services
	logger   *slog.Logger
}

func newLoader(services wiring.Services, logger *slog.Logger) *loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &loader{services: services, logger: logger}
}

// Load inserts rooms, then users, then reservations. Records that already
// exist, and reservations whose slot is already held, are skipped so the
// loader can be re-run against the same database.
func (l *loader) Load(ctx context.Context, data seedData) (summary, error) {
	var result summary

	for _, room := range data.Rooms {
		_, err := l.services.Rooms.CreateRoom(ctx, application.CreateRoomParams{
			Principal: seedPrincipal,
			Input: application.RoomInput{
				ID:   room.ID.String(),
				Name: room.Name,
				Features: booking.Features{
					MaxCapacity:    room.Features.MaxCapacity,
					HasProjector:   room.Features.HasProjector,
					HasWhiteboard:  room.Features.HasWhiteboard,
					HasAudio:       room.Features.HasAudio,
					HasVentilation: room.Features.HasVentilation,
				},
			},
		})
		if skip, err := l.outcome(ctx, "room", room.ID.String(), err); err != nil {
			return result, err
		} else if skip {
			result.Skipped++
			continue
		}
		result.Rooms++
	}

	for _, user := range data.Users {
		_, err := l.services.Users.CreateUser(ctx, application.CreateUserParams{
			Principal: seedPrincipal,
			Input: application.RegisterParams{
				ID:        user.ID.String(),
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Email:     user.Email,
				Password:  user.Password,
			},
			Role: application.Role(user.Role),
		})
		if skip, err := l.outcome(ctx, "user", user.ID.String(), err); err != nil {
			return result, err
		} else if skip {
			result.Skipped++
			continue
		}
		result.Users++
	}

	for i, reservation := range data.Reservations {
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(reservation.Time))
		if err != nil {
			return result, fmt.Errorf("reservation %d: time %q is not RFC 3339", i, reservation.Time)
		}
		id := reservation.ID
		if id == "" {
			id = seedReservationID(reservation, at)
		}

		_, err = l.services.Reservations.CreateReservation(ctx, application.CreateReservationParams{
			Principal: seedPrincipal,
			Input: application.ReservationInput{
				ID:     id,
				RoomID: reservation.RoomID.String(),
				UserID: reservation.UserID.String(),
				Time:   at,
				Status: normalizeSeedStatus(reservation.Status),
			},
		})
		if skip, err := l.outcome(ctx, "reservation", id, err); err != nil {
			return result, err
		} else if skip {
			result.Skipped++
			continue
		}
		result.Reservations++
	}

	return result, nil
}

func (l *loader) outcome(ctx context.Context, kind, id string, err error) (bool, error) {
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, application.ErrAlreadyExists), errors.Is(err, application.ErrSlotUnavailable):
		l.logger.WarnContext(ctx, "seed record skipped", "kind", kind, "id", id, "error_kind", application.ErrorKind(err))
		return true, nil
	default:
		return false, fmt.Errorf("%s %s: %w", kind, id, err)
	}
}

func normalizeSeedStatus(status string) string {
	normalized := strings.ToLower(strings.TrimSpace(status))
	if alias, ok := statusAliases[normalized]; ok {
		return alias
	}
	return normalized
}

// seedReservationID derives a stable id so re-runs hit the duplicate check.
func seedReservationID(reservation seedReservation, at time.Time) string {
	return "seed-" + reservation.RoomID.String() + "-" + reservation.UserID.String() + "-" + strconv.FormatInt(at.UTC().Unix(), 10)
}
