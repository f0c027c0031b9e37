package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/persistence"
)

var baseTime = time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	storage, err := OpenWithConfig(TestConfig(filepath.Join(t.TempDir(), "reservations.db")))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = storage.Close()
	})

	require.NoError(t, storage.Migrate(context.Background()))
	return storage
}

func seedUser(t *testing.T, storage *Storage, id, email string) persistence.User {
	t.Helper()
	user := persistence.User{
		ID:           id,
		FirstName:    "Test",
		LastName:     id,
		Email:        email,
		PasswordHash: "hash",
		Role:         "user",
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	require.NoError(t, storage.CreateUser(context.Background(), user))
	return user
}

func seedRoom(t *testing.T, storage *Storage, id string) persistence.Room {
	t.Helper()
	room := persistence.Room{
		ID:           id,
		Name:         "Room " + id,
		MaxCapacity:  10,
		HasProjector: true,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	}
	require.NoError(t, storage.CreateRoom(context.Background(), room))
	return room
}

func TestStorage_Migrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	// Running again is a no-op.
	ran, err := NewMigrator(storage.pool).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ran)

	versions, err := NewMigrator(storage.pool).AppliedVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001"}, versions)

	require.NoError(t, storage.Ping(ctx))
}

func TestUserRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	user := seedUser(t, storage, "user-1", "Alice@Example.com")

	fetched, err := storage.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", fetched.Email)
	assert.Equal(t, "user", fetched.Role)
	assert.True(t, fetched.CreatedAt.Equal(baseTime))

	byEmail, err := storage.GetUserByEmail(ctx, "ALICE@example.COM")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	err = storage.CreateUser(ctx, persistence.User{ID: "user-2", Email: "alice@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	err = storage.CreateUser(ctx, persistence.User{ID: "user-1", Email: "other@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	err = storage.CreateUser(ctx, persistence.User{ID: "user-3", Email: "bad@example.com", PasswordHash: "x", Role: "owner"})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)

	fetched.Role = "admin"
	fetched.UpdatedAt = baseTime.Add(time.Hour)
	require.NoError(t, storage.UpdateUser(ctx, fetched))
	fetched, err = storage.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin", fetched.Role)

	err = storage.UpdateUser(ctx, persistence.User{ID: "missing", PasswordHash: "x"})
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	users, err := storage.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, storage.DeleteUser(ctx, user.ID))
	_, err = storage.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	assert.ErrorIs(t, storage.DeleteUser(ctx, user.ID), persistence.ErrNotFound)
}

func TestRoomRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)

	room := seedRoom(t, storage, "room-1")
	seedRoom(t, storage, "room-0")

	fetched, err := storage.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, room.Name, fetched.Name)
	assert.True(t, fetched.HasProjector)
	assert.False(t, fetched.HasAudio)

	assert.ErrorIs(t, storage.CreateRoom(ctx, room), persistence.ErrDuplicate)
	assert.ErrorIs(t, storage.CreateRoom(ctx, persistence.Room{ID: "neg", MaxCapacity: -1}), persistence.ErrConstraintViolation)

	fetched.MaxCapacity = 0
	fetched.HasAudio = true
	require.NoError(t, storage.UpdateRoom(ctx, fetched))
	fetched, err = storage.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Zero(t, fetched.MaxCapacity)
	assert.True(t, fetched.HasAudio)

	rooms, err := storage.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "room-0", rooms[0].ID)

	assert.ErrorIs(t, storage.UpdateRoom(ctx, persistence.Room{ID: "missing"}), persistence.ErrNotFound)
	assert.ErrorIs(t, storage.DeleteRoom(ctx, "missing"), persistence.ErrNotFound)
}

func TestReservationRepository(t *testing.T) {
	t.Parallel()

	slot := time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

	newReservation := func(id, status string) persistence.Reservation {
		return persistence.Reservation{
			ID:        id,
			RoomID:    "room-1",
			UserID:    "user-1",
			Time:      slot,
			Status:    status,
			CreatedAt: baseTime,
			UpdatedAt: baseTime,
		}
	}

	setup := func(t *testing.T) *Storage {
		storage := newTestStorage(t)
		seedUser(t, storage, "user-1", "alice@example.com")
		seedRoom(t, storage, "room-1")
		return storage
	}

	t.Run("stores and denormalizes reservations", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		storage := setup(t)

		require.NoError(t, storage.CreateReservation(ctx, newReservation("res-1", "pending")))

		detail, err := storage.GetReservation(ctx, "res-1")
		require.NoError(t, err)
		assert.True(t, detail.Time.Equal(slot))
		assert.Equal(t, "pending", detail.Status)
		assert.Equal(t, "Room room-1", detail.RoomName)
		assert.Equal(t, "Test", detail.UserFirstName)
		assert.Equal(t, "alice@example.com", detail.UserEmail)

		assert.ErrorIs(t, storage.CreateReservation(ctx, newReservation("res-1", "pending")), persistence.ErrDuplicate)
	})

	t.Run("rejects unknown room or user", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		storage := setup(t)

		r := newReservation("res-1", "pending")
		r.RoomID = "missing"
		assert.Error(t, storage.CreateReservation(ctx, r))
	})

	t.Run("multiple pending requests share a slot but only one is accepted", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		storage := setup(t)

		require.NoError(t, storage.CreateReservation(ctx, newReservation("res-1", "pending")))
		require.NoError(t, storage.CreateReservation(ctx, newReservation("res-2", "pending")))

		accepted, err := storage.UpdateReservationStatus(ctx, "res-1", "accepted", baseTime.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, "accepted", accepted.Status)

		_, err = storage.UpdateReservationStatus(ctx, "res-2", "accepted", baseTime.Add(time.Hour))
		assert.ErrorIs(t, err, persistence.ErrSlotTaken)

		second, err := storage.GetReservation(ctx, "res-2")
		require.NoError(t, err)
		assert.Equal(t, "pending", second.Status)

		// Re-accepting the holder is allowed.
		_, err = storage.UpdateReservationStatus(ctx, "res-1", "accepted", baseTime.Add(2*time.Hour))
		require.NoError(t, err)

		assert.ErrorIs(t, storage.CreateReservation(ctx, newReservation("res-3", "pending")), persistence.ErrSlotTaken)

		_, err = storage.UpdateReservationStatus(ctx, "res-1", "rejected", baseTime.Add(3*time.Hour))
		require.NoError(t, err)
		_, err = storage.UpdateReservationStatus(ctx, "res-2", "accepted", baseTime.Add(3*time.Hour))
		require.NoError(t, err)
	})

	t.Run("partial unique index backs the check", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		storage := setup(t)

		require.NoError(t, storage.CreateReservation(ctx, newReservation("res-1", "accepted")))
		_, err := storage.pool.DB().ExecContext(ctx, `
			INSERT INTO reservations (id, room_id, user_id, slot_time, status, created_at, updated_at)
			VALUES ('res-raw', 'room-1', 'user-1', ?, 'accepted', ?, ?)`,
			formatTime(slot), formatTime(baseTime), formatTime(baseTime),
		)
		require.Error(t, err)
		assert.ErrorIs(t, NewErrorMapper().MapError(err), persistence.ErrSlotTaken)
	})

	t.Run("lists with filters", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		storage := setup(t)
		seedRoom(t, storage, "room-2")

		first := newReservation("res-1", "pending")
		second := newReservation("res-2", "accepted")
		second.RoomID = "room-2"
		later := newReservation("res-3", "pending")
		later.Time = slot.AddDate(0, 0, 7)
		for _, r := range []persistence.Reservation{first, second, later} {
			require.NoError(t, storage.CreateReservation(ctx, r))
		}

		all, err := storage.ListReservations(ctx, persistence.ReservationFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"res-1", "res-2", "res-3"}, []string{all[0].ID, all[1].ID, all[2].ID})

		byRoom, err := storage.ListReservations(ctx, persistence.ReservationFilter{RoomID: "room-2"})
		require.NoError(t, err)
		require.Len(t, byRoom, 1)
		assert.Equal(t, "res-2", byRoom[0].ID)

		byStatus, err := storage.ListReservations(ctx, persistence.ReservationFilter{Status: "pending"})
		require.NoError(t, err)
		assert.Len(t, byStatus, 2)

		from := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 0, 7)
		inWeek, err := storage.ListReservations(ctx, persistence.ReservationFilter{TimeFrom: &from, TimeTo: &to})
		require.NoError(t, err)
		assert.Len(t, inWeek, 2)
	})

	t.Run("deleting a room removes its reservations", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		storage := setup(t)

		require.NoError(t, storage.CreateReservation(ctx, newReservation("res-1", "pending")))
		require.NoError(t, storage.DeleteRoom(ctx, "room-1"))

		_, err := storage.GetReservation(ctx, "res-1")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("delete restores the slot", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		storage := setup(t)

		require.NoError(t, storage.CreateReservation(ctx, newReservation("res-1", "accepted")))
		require.NoError(t, storage.DeleteReservation(ctx, "res-1"))
		assert.ErrorIs(t, storage.DeleteReservation(ctx, "res-1"), persistence.ErrNotFound)
		require.NoError(t, storage.CreateReservation(ctx, newReservation("res-2", "accepted")))
	})
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := newTestStorage(t)
	seedUser(t, storage, "user-1", "alice@example.com")

	session, err := storage.CreateSession(ctx, persistence.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		Token:     "token-1",
		ExpiresAt: baseTime.Add(time.Hour),
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	})
	require.NoError(t, err)
	assert.Nil(t, session.RevokedAt)

	revokedAt := baseTime.Add(10 * time.Minute)
	revoked, err := storage.RevokeSession(ctx, "token-1", revokedAt)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
	assert.True(t, revoked.RevokedAt.Equal(revokedAt))

	again, err := storage.RevokeSession(ctx, "token-1", revokedAt.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, again.RevokedAt.Equal(revokedAt))

	_, err = storage.RevokeSession(ctx, "missing", revokedAt)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, storage.DeleteExpiredSessions(ctx, baseTime.Add(2*time.Hour)))
	_, err = storage.GetSession(ctx, "token-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}
