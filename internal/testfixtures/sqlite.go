package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/room-reservations/internal/persistence"
	"github.com/example/room-reservations/internal/persistence/sqlite"
)

// SQLiteHarness exposes repositories backed by a migrated SQLite file in a
// temporary directory.
type SQLiteHarness struct {
	Storage      *sqlite.Storage
	Users        persistence.UserRepository
	Rooms        persistence.RoomRepository
	Reservations persistence.ReservationRepository
	Sessions     persistence.SessionRepository
}

// NewSQLiteHarness opens and migrates a fresh database. It is closed when the
// test finishes.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "reservations.db")
	storage, err := sqlite.OpenWithConfig(sqlite.TestConfig(path))
	require.NoError(tb, err, "open storage")
	tb.Cleanup(func() {
		_ = storage.Close()
	})

	require.NoError(tb, storage.Migrate(context.Background()), "migrate storage")

	return &SQLiteHarness{
		Storage:      storage,
		Users:        storage,
		Rooms:        storage,
		Reservations: storage,
		Sessions:     storage,
	}
}

// SeedUser stores the fixture and returns it.
func (h *SQLiteHarness) SeedUser(tb testing.TB, opts ...UserOption) UserFixture {
	tb.Helper()
	fixture := NewUserFixture(opts...)
	require.NoError(tb, h.Users.CreateUser(context.Background(), fixture.Persistence()))
	return fixture
}

// SeedRoom stores the fixture and returns it.
func (h *SQLiteHarness) SeedRoom(tb testing.TB, opts ...RoomOption) RoomFixture {
	tb.Helper()
	fixture := NewRoomFixture(opts...)
	require.NoError(tb, h.Rooms.CreateRoom(context.Background(), fixture.Persistence()))
	return fixture
}
