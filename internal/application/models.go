package application

import (
	"strings"
	"time"

	"github.com/example/room-reservations/internal/booking"
)

// Role is the authorization level attached to an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole normalizes a textual role and reports whether it is known.
func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleUser, RoleAdmin:
		return role, true
	case "":
		return RoleUser, true
	default:
		return "", false
	}
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// Authenticated reports whether the principal identifies a user.
func (p Principal) Authenticated() bool {
	return strings.TrimSpace(p.UserID) != ""
}

// CanActFor reports whether the principal may act on records owned by userID.
func (p Principal) CanActFor(userID string) bool {
	return p.IsAdmin() || (p.Authenticated() && p.UserID == userID)
}

// User represents an account exposed by the application services.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName joins the first and last names.
func (u User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// RegisterParams captures the data supplied by a self-service sign up.
type RegisterParams struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// CreateUserParams wraps the data an administrator or seed loader supplies
// to create an account with an explicit role.
type CreateUserParams struct {
	Principal Principal
	Input     RegisterParams
	Role      Role
}

// SetUserRoleParams wraps the data required to change a user's role.
type SetUserRoleParams struct {
	Principal Principal
	UserID    string
	Role      string
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	ID       string
	Name     string
	Features booking.Features
}

// Room represents a bookable meeting room.
type Room struct {
	ID        string
	Name      string
	Features  booking.Features
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// ListRoomsParams wraps the data required to list rooms.
type ListRoomsParams struct {
	Principal Principal
	Filter    booking.RoomFilter
}

// Reservation represents a room booking together with display labels for
// its room and user when they were loaded.
type Reservation struct {
	ID        string
	RoomID    string
	UserID    string
	Time      time.Time
	Status    booking.Status
	CreatedAt time.Time
	UpdatedAt time.Time

	RoomName  string
	UserName  string
	UserEmail string
}

// ReservationInput captures caller provided reservation fields. Status is
// free text so that unknown values can be reported as validation errors.
type ReservationInput struct {
	ID     string
	RoomID string
	UserID string
	Time   time.Time
	Status string
}

// CreateReservationParams wraps the data required to request a reservation.
type CreateReservationParams struct {
	Principal Principal
	Input     ReservationInput
}

// UpdateReservationStatusParams wraps the data required to review a reservation.
type UpdateReservationStatusParams struct {
	Principal     Principal
	ReservationID string
	Status        string
}

// ListReservationsParams wraps the data required to list reservations.
// Week, when set, selects the Monday-start week containing that instant.
type ListReservationsParams struct {
	Principal Principal
	RoomID    string
	UserID    string
	Status    string
	Week      *time.Time
}

// ReservationFilter narrows repository reservation queries.
type ReservationFilter struct {
	RoomID string
	UserID string
	Status booking.Status
	From   *time.Time
	To     *time.Time
}

// WeekAvailabilityParams wraps the data required to render a room's week.
// A zero Reference selects the current week.
type WeekAvailabilityParams struct {
	Principal Principal
	RoomID    string
	Reference time.Time
}

// WeekAvailability is the evaluated slot grid of one room for one week.
type WeekAvailability struct {
	Room         Room
	WeekStart    time.Time
	PreviousWeek time.Time
	NextWeek     time.Time
	Slots        []booking.SlotAvailability
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication
// attempt. SignedToken is the value handed to the client.
type AuthenticateResult struct {
	User        User
	Session     Session
	SignedToken string
}
