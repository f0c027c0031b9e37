package sqlite

import (
	"context"
	"fmt"
)

// Storage bundles the SQLite repositories over a single connection pool. It
// satisfies every repository interface in the persistence package.
type Storage struct {
	*UserRepository
	*RoomRepository
	*ReservationRepository
	*SessionRepository

	pool *ConnectionPool
}

// Open connects to the database at dsn using DefaultConfig.
func Open(dsn string) (*Storage, error) {
	return OpenWithConfig(DefaultConfig(dsn))
}

// OpenWithConfig connects to SQLite using an explicit configuration.
func OpenWithConfig(config Config) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		UserRepository:        NewUserRepository(pool),
		RoomRepository:        NewRoomRepository(pool),
		ReservationRepository: NewReservationRepository(pool),
		SessionRepository:     NewSessionRepository(pool),
		pool:                  pool,
	}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies any pending schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := NewMigrator(s.pool).Run(ctx); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}
