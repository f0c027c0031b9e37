package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

func boolPtr(v bool) *bool { return &v }

func TestRoomService_CreateRoom(t *testing.T) {
	t.Parallel()

	t.Run("requires admin", func(t *testing.T) {
		t.Parallel()
		svc := NewRoomService(newMemoryRooms(), sequenceIDs("room-1"), fixedClock(testNow))

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: userPrincipal,
			Input:     RoomInput{Name: "Sala"},
		})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("validates input", func(t *testing.T) {
		t.Parallel()
		svc := NewRoomService(newMemoryRooms(), sequenceIDs("room-1"), fixedClock(testNow))

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "  ", Features: booking.Features{MaxCapacity: -1}},
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "name")
		assert.Contains(t, vErr.FieldErrors, "max_capacity")
	})

	t.Run("persists trimmed room with generated id", func(t *testing.T) {
		t.Parallel()
		repo := newMemoryRooms()
		svc := NewRoomService(repo, sequenceIDs("room-1"), fixedClock(testNow))

		room, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: " Sala Norte ", Features: booking.Features{MaxCapacity: 12, HasProjector: true}},
		})
		require.NoError(t, err)
		assert.Equal(t, "room-1", room.ID)
		assert.Equal(t, "Sala Norte", room.Name)
		assert.True(t, room.Features.HasProjector)
		assert.Equal(t, testNow, room.CreatedAt)
		assert.Equal(t, room.CreatedAt, room.UpdatedAt)
		assert.Contains(t, repo.rooms, "room-1")
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		t.Parallel()
		svc := NewRoomService(newMemoryRooms(Room{ID: "1", Name: "A"}), nil, fixedClock(testNow))

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{ID: "1", Name: "B"},
		})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})

	t.Run("constraint violations become validation errors", func(t *testing.T) {
		t.Parallel()
		repo := newMemoryRooms()
		repo.createErr = persistence.ErrConstraintViolation
		svc := NewRoomService(repo, sequenceIDs("x"), fixedClock(testNow))

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: adminPrincipal,
			Input:     RoomInput{Name: "B"},
		})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestRoomService_UpdateAndDelete(t *testing.T) {
	t.Parallel()

	repo := newMemoryRooms(Room{ID: "1", Name: "Sala", CreatedAt: testNow.AddDate(0, -1, 0)})
	later := testNow.Add(48 * time.Hour)
	svc := NewRoomService(repo, nil, fixedClock(later))

	_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{Principal: userPrincipal, RoomID: "1", Input: RoomInput{Name: "X"}})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.UpdateRoom(context.Background(), UpdateRoomParams{Principal: adminPrincipal, RoomID: "9", Input: RoomInput{Name: "X"}})
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
		Principal: adminPrincipal,
		RoomID:    "1",
		Input:     RoomInput{Name: "Sala Grande", Features: booking.Features{MaxCapacity: 40, HasAudio: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Sala Grande", updated.Name)
	assert.Equal(t, 40, updated.Features.MaxCapacity)
	assert.Equal(t, testNow.AddDate(0, -1, 0), updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	assert.ErrorIs(t, svc.DeleteRoom(context.Background(), userPrincipal, "1"), ErrUnauthorized)
	require.NoError(t, svc.DeleteRoom(context.Background(), adminPrincipal, "1"))
	assert.ErrorIs(t, svc.DeleteRoom(context.Background(), adminPrincipal, "1"), ErrNotFound)
}

func TestRoomService_ListRooms(t *testing.T) {
	t.Parallel()

	repo := newMemoryRooms(
		Room{ID: "small", Name: "beta", Features: booking.Features{MaxCapacity: 5, HasProjector: true}},
		Room{ID: "medium", Name: "Alpha", Features: booking.Features{MaxCapacity: 20, HasProjector: true}},
		Room{ID: "large", Name: "gamma", Features: booking.Features{MaxCapacity: 30}},
	)
	svc := NewRoomService(repo, nil, fixedClock(testNow))

	t.Run("sorts by name without filter", func(t *testing.T) {
		t.Parallel()
		rooms, err := svc.ListRooms(context.Background(), ListRoomsParams{Principal: userPrincipal})
		require.NoError(t, err)
		require.Len(t, rooms, 3)
		assert.Equal(t, []string{"medium", "small", "large"}, []string{rooms[0].ID, rooms[1].ID, rooms[2].ID})
	})

	t.Run("applies feature filter", func(t *testing.T) {
		t.Parallel()
		rooms, err := svc.ListRooms(context.Background(), ListRoomsParams{
			Principal: userPrincipal,
			Filter: booking.RoomFilter{
				Capacity:     &booking.CapacityRange{Min: 10, Max: 50},
				HasProjector: boolPtr(true),
			},
		})
		require.NoError(t, err)
		require.Len(t, rooms, 1)
		assert.Equal(t, "medium", rooms[0].ID)
	})

	t.Run("rejects inverted capacity range", func(t *testing.T) {
		t.Parallel()
		_, err := svc.ListRooms(context.Background(), ListRoomsParams{
			Principal: userPrincipal,
			Filter:    booking.RoomFilter{Capacity: &booking.CapacityRange{Min: 50, Max: 10}},
		})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("requires an authenticated caller", func(t *testing.T) {
		t.Parallel()
		_, err := svc.ListRooms(context.Background(), ListRoomsParams{})
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = svc.GetRoom(context.Background(), Principal{}, "small")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("get room", func(t *testing.T) {
		t.Parallel()
		room, err := svc.GetRoom(context.Background(), userPrincipal, "large")
		require.NoError(t, err)
		assert.Equal(t, "gamma", room.Name)

		_, err = svc.GetRoom(context.Background(), userPrincipal, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRoomService_ListRoomsStoreFailure(t *testing.T) {
	t.Parallel()

	repo := newMemoryRooms()
	repo.listErr = errors.New("boom")
	svc := NewRoomService(repo, nil, nil)

	_, err := svc.ListRooms(context.Background(), ListRoomsParams{Principal: userPrincipal})
	assert.EqualError(t, err, "room store: boom")
}
