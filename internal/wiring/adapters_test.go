package wiring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/testfixtures"
)

func TestUserAdapterSetRoleKeepsPasswordHash(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	stored := h.SeedUser(t, testfixtures.WithUserPasswordHash("argon-hash"))

	adapter := newUserRepositoryAdapter(h.Storage)
	updated, err := adapter.SetUserRole(ctx, stored.ID, application.RoleAdmin, testfixtures.ReferenceTime().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, application.RoleAdmin, updated.Role)

	creds, err := newCredentialStoreAdapter(h.Storage).GetUserCredentialsByEmail(ctx, stored.Email)
	require.NoError(t, err)
	assert.Equal(t, "argon-hash", creds.PasswordHash)
	assert.Equal(t, application.RoleAdmin, creds.User.Role)

	_, err = adapter.SetUserRole(ctx, "missing", application.RoleAdmin, time.Now())
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestReservationAdapterCarriesLabels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	user := h.SeedUser(t, testfixtures.WithUserName("Ana", "Diaz"), testfixtures.WithUserEmail("ana@example.com"))
	room := h.SeedRoom(t, testfixtures.WithRoomName("Sala Norte"))

	adapter := newReservationRepositoryAdapter(h.Storage)
	fixture := testfixtures.NewReservationFixture(testfixtures.WithReservationFor(room.ID, user.ID))
	created, err := adapter.CreateReservation(ctx, fixture.Application())
	require.NoError(t, err)
	assert.Equal(t, "Sala Norte", created.RoomName)
	assert.Equal(t, "Ana Diaz", created.UserName)
	assert.Equal(t, "ana@example.com", created.UserEmail)
	assert.Equal(t, booking.StatusPending, created.Status)

	accepted, err := adapter.UpdateReservationStatus(ctx, fixture.ID, booking.StatusAccepted, testfixtures.ReferenceTime())
	require.NoError(t, err)
	assert.Equal(t, booking.StatusAccepted, accepted.Status)
	assert.Equal(t, "Sala Norte", accepted.RoomName)

	listed, err := adapter.ListReservations(ctx, application.ReservationFilter{Status: booking.StatusRejected})
	require.NoError(t, err)
	assert.Nil(t, listed)
}

func TestNewServicesRunsOverStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := testfixtures.NewSQLiteHarness(t)
	admin := h.SeedUser(t, testfixtures.WithUserAdmin())
	ids := testfixtures.NewIDGenerator("seed")

	services := NewServices(h.Storage, Options{
		IDGenerator: ids.NextFunc(),
		Now:         testfixtures.NewClock(time.Time{}).NowFunc(),
		Hasher:      func(password string) (string, error) { return "hashed:" + password, nil },
	})

	room, err := services.Rooms.CreateRoom(ctx, application.CreateRoomParams{
		Principal: admin.Principal(),
		Input:     application.RoomInput{Name: "Sala Sur", Features: booking.Features{MaxCapacity: 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, "seed-1", room.ID)

	reservation, err := services.Reservations.CreateReservation(ctx, application.CreateReservationParams{
		Principal: admin.Principal(),
		Input:     application.ReservationInput{RoomID: room.ID, Time: testfixtures.MondaySlot(9), Status: "accepted"},
	})
	require.NoError(t, err)
	assert.Equal(t, booking.StatusAccepted, reservation.Status)

	week, err := services.Reservations.WeekAvailability(ctx, application.WeekAvailabilityParams{
		Principal: admin.Principal(),
		RoomID:    room.ID,
		Reference: testfixtures.MondaySlot(9),
	})
	require.NoError(t, err)
	assert.Equal(t, booking.SlotsPerWeek-1, booking.FreeCount(week.Slots))
}
