package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/security"
)

var (
	adminPrincipal = Principal{UserID: "admin-1", Role: RoleAdmin}
	userPrincipal  = Principal{UserID: "7", Role: RoleUser}
	otherPrincipal = Principal{UserID: "8", Role: RoleUser}
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func sequenceIDs(ids ...string) func() string {
	var mu sync.Mutex
	next := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		if next >= len(ids) {
			return "generated"
		}
		id := ids[next]
		next++
		return id
	}
}

type memoryRooms struct {
	mu        sync.Mutex
	rooms     map[string]Room
	createErr error
	listErr   error
}

func newMemoryRooms(rooms ...Room) *memoryRooms {
	m := &memoryRooms{rooms: make(map[string]Room)}
	for _, r := range rooms {
		m.rooms[r.ID] = r
	}
	return m
}

func (m *memoryRooms) CreateRoom(_ context.Context, room Room) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return Room{}, m.createErr
	}
	if _, ok := m.rooms[room.ID]; ok {
		return Room{}, persistence.ErrDuplicate
	}
	m.rooms[room.ID] = room
	return room, nil
}

func (m *memoryRooms) GetRoom(_ context.Context, id string) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return Room{}, persistence.ErrNotFound
	}
	return room, nil
}

func (m *memoryRooms) UpdateRoom(_ context.Context, room Room) (Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[room.ID]; !ok {
		return Room{}, persistence.ErrNotFound
	}
	m.rooms[room.ID] = room
	return room, nil
}

func (m *memoryRooms) DeleteRoom(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.rooms, id)
	return nil
}

func (m *memoryRooms) ListRooms(_ context.Context) ([]Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	rooms := make([]Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[string]UserCredentials
}

func newMemoryUsers(users ...UserCredentials) *memoryUsers {
	m := &memoryUsers{users: make(map[string]UserCredentials)}
	for _, u := range users {
		m.users[u.User.ID] = u
	}
	return m
}

func (m *memoryUsers) CreateUser(_ context.Context, creds UserCredentials) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[creds.User.ID]; ok {
		return User{}, persistence.ErrDuplicate
	}
	for _, existing := range m.users {
		if strings.EqualFold(existing.User.Email, creds.User.Email) {
			return User{}, persistence.ErrDuplicate
		}
	}
	m.users[creds.User.ID] = creds
	return creds.User, nil
}

func (m *memoryUsers) GetUser(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return creds.User, nil
}

func (m *memoryUsers) GetUserCredentialsByEmail(_ context.Context, email string) (UserCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, creds := range m.users {
		if strings.EqualFold(creds.User.Email, email) {
			return creds, nil
		}
	}
	return UserCredentials{}, ErrNotFound
}

func (m *memoryUsers) SetUserRole(_ context.Context, id string, role Role, updatedAt time.Time) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	creds, ok := m.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	creds.User.Role = role
	creds.User.UpdatedAt = updatedAt
	m.users[id] = creds
	return creds.User, nil
}

func (m *memoryUsers) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *memoryUsers) ListUsers(_ context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.users))
	for _, creds := range m.users {
		users = append(users, creds.User)
	}
	return users, nil
}

// memoryReservations mirrors the store contract: one accepted reservation per
// room and time.
type memoryReservations struct {
	mu           sync.Mutex
	reservations map[string]Reservation
	filters      []ReservationFilter
	listErr      error
}

func newMemoryReservations(reservations ...Reservation) *memoryReservations {
	m := &memoryReservations{reservations: make(map[string]Reservation)}
	for _, r := range reservations {
		m.reservations[r.ID] = r
	}
	return m
}

func (m *memoryReservations) holder(roomID string, at time.Time, exceptID string) bool {
	for _, r := range m.reservations {
		if r.ID != exceptID && r.RoomID == roomID && r.Time.Equal(at) && r.Status == booking.StatusAccepted {
			return true
		}
	}
	return false
}

func (m *memoryReservations) CreateReservation(_ context.Context, reservation Reservation) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[reservation.ID]; ok {
		return Reservation{}, persistence.ErrDuplicate
	}
	if m.holder(reservation.RoomID, reservation.Time, "") {
		return Reservation{}, persistence.ErrSlotTaken
	}
	m.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (m *memoryReservations) GetReservation(_ context.Context, id string) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	return r, nil
}

func (m *memoryReservations) ListReservations(_ context.Context, filter ReservationFilter) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var result []Reservation
	for _, r := range m.reservations {
		if filter.RoomID != "" && r.RoomID != filter.RoomID {
			continue
		}
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.From != nil && r.Time.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !r.Time.Before(*filter.To) {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Time.Equal(result[j].Time) {
			return result[i].Time.Before(result[j].Time)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *memoryReservations) UpdateReservationStatus(_ context.Context, id string, status booking.Status, updatedAt time.Time) (Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return Reservation{}, persistence.ErrNotFound
	}
	if status == booking.StatusAccepted && m.holder(r.RoomID, r.Time, id) {
		return Reservation{}, persistence.ErrSlotTaken
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	m.reservations[id] = r
	return r, nil
}

func (m *memoryReservations) DeleteReservation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(m.reservations, id)
	return nil
}

type memorySessions struct {
	mu          sync.Mutex
	sessions    map[string]Session
	deleteCalls []time.Time
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: make(map[string]Session)}
}

func (m *memorySessions) CreateSession(_ context.Context, session Session) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.Token] = session
	return session, nil
}

func (m *memorySessions) GetSession(_ context.Context, token string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return session, nil
}

func (m *memorySessions) RevokeSession(_ context.Context, token string, revokedAt time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	if session.RevokedAt == nil {
		stamp := revokedAt
		session.RevokedAt = &stamp
		m.sessions[token] = session
	}
	return session, nil
}

func (m *memorySessions) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls = append(m.deleteCalls, reference)
	for token, session := range m.sessions {
		if !session.ExpiresAt.After(reference) {
			delete(m.sessions, token)
		}
	}
	return nil
}

type recordingObserver struct {
	mu          sync.Mutex
	created     []booking.Status
	deleted     []booking.Status
	transitions []booking.Transition
	conflicts   []string
	misaligned  int
}

func (o *recordingObserver) ReservationCreated(status booking.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created = append(o.created, status)
}

func (o *recordingObserver) ReservationDeleted(status booking.Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = append(o.deleted, status)
}

func (o *recordingObserver) StatusTransitioned(transition booking.Transition) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transitions = append(o.transitions, transition)
}

func (o *recordingObserver) SlotConflict(operation string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conflicts = append(o.conflicts, operation)
}

func (o *recordingObserver) MisalignedSlot(bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.misaligned++
}

func newTestTokenManager(now func() time.Time) *security.TokenManager {
	tm, err := security.NewTokenManager("test-secret", "", now)
	if err != nil {
		panic(err)
	}
	return tm
}
