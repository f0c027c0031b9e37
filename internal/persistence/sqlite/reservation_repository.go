package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/persistence"
)

const statusAccepted = "accepted"

// ReservationRepository implements persistence.ReservationRepository using SQLite.
//
// Slot ownership is enforced twice: the write transaction checks for another
// accepted reservation before writing, and the partial unique index
// idx_reservations_accepted_slot rejects anything that slips past the check.
type ReservationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const reservationDetailQuery = `
	SELECT r.id, r.room_id, r.user_id, r.slot_time, r.status, r.created_at, r.updated_at,
	       rm.room_name, u.first_name, u.last_name, u.email
	FROM reservations r
	JOIN rooms rm ON rm.id = r.room_id
	JOIN users u ON u.id = r.user_id
`

// CreateReservation inserts a reservation. It fails with ErrSlotTaken when an
// accepted reservation already holds the same room and time, whatever the
// status of the new reservation.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" || reservation.RoomID == "" || reservation.UserID == "" || reservation.Time.IsZero() {
		return persistence.ErrConstraintViolation
	}

	created, updated := timestampsOrNow(reservation.CreatedAt, reservation.UpdatedAt)
	status := reservation.Status
	if status == "" {
		status = "pending"
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		holder, err := acceptedHolder(ctx, tx, reservation.RoomID, reservation.Time, "")
		if err != nil {
			return r.mapper.MapError(err)
		}
		if holder != "" {
			return fmt.Errorf("%w: held by reservation %s", persistence.ErrSlotTaken, holder)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO reservations (id, room_id, user_id, slot_time, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			reservation.ID,
			reservation.RoomID,
			reservation.UserID,
			formatTime(reservation.Time),
			status,
			formatTime(created),
			formatTime(updated),
		)
		return r.mapper.MapError(err)
	})
}

// GetReservation retrieves a reservation with its room and user labels.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.ReservationDetail, error) {
	if id == "" {
		return persistence.ReservationDetail{}, persistence.ErrNotFound
	}
	detail, err := scanReservationDetail(r.helper.QueryRow(ctx, reservationDetailQuery+` WHERE r.id = ?`, id))
	if err != nil {
		return persistence.ReservationDetail{}, r.mapper.MapError(err)
	}
	return detail, nil
}

// ListReservations returns reservations matching filter ordered by time, room and ID.
// TimeFrom is inclusive and TimeTo exclusive.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.ReservationDetail, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != "" {
		clauses = append(clauses, "r.room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "r.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		clauses = append(clauses, "r.status = ?")
		args = append(args, filter.Status)
	}
	if filter.TimeFrom != nil {
		clauses = append(clauses, "r.slot_time >= ?")
		args = append(args, formatTime(*filter.TimeFrom))
	}
	if filter.TimeTo != nil {
		clauses = append(clauses, "r.slot_time < ?")
		args = append(args, formatTime(*filter.TimeTo))
	}

	query := reservationDetailQuery
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY r.slot_time ASC, r.room_id ASC, r.id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var details []persistence.ReservationDetail
	for rows.Next() {
		detail, err := scanReservationDetail(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return details, nil
}

// UpdateReservationStatus changes the status of a reservation. Moving to
// accepted is a check-and-set: it fails with ErrSlotTaken, leaving the row
// untouched, when a different reservation already holds the slot.
func (r *ReservationRepository) UpdateReservationStatus(ctx context.Context, id, status string, updatedAt time.Time) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	if status == "" {
		return persistence.Reservation{}, persistence.ErrConstraintViolation
	}
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	var updated persistence.Reservation
	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		current, err := scanReservation(tx.QueryRowContext(ctx, `
			SELECT id, room_id, user_id, slot_time, status, created_at, updated_at
			FROM reservations WHERE id = ?`, id))
		if err != nil {
			return r.mapper.MapError(err)
		}

		if status == statusAccepted {
			holder, err := acceptedHolder(ctx, tx, current.RoomID, current.Time, current.ID)
			if err != nil {
				return r.mapper.MapError(err)
			}
			if holder != "" {
				return fmt.Errorf("%w: held by reservation %s", persistence.ErrSlotTaken, holder)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`,
			status, formatTime(updatedAt), id,
		); err != nil {
			return r.mapper.MapError(err)
		}

		current.Status = status
		current.UpdatedAt = updatedAt.UTC().Truncate(time.Second)
		updated = current
		return nil
	})
	if err != nil {
		return persistence.Reservation{}, err
	}
	return updated, nil
}

// DeleteReservation removes a reservation by ID.
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// acceptedHolder returns the ID of the accepted reservation occupying the
// room at slot, ignoring exceptID, or "" when the slot is free.
func acceptedHolder(ctx context.Context, tx *sql.Tx, roomID string, slot time.Time, exceptID string) (string, error) {
	var holder string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM reservations
		WHERE room_id = ? AND slot_time = ? AND status = ? AND id <> ?
		LIMIT 1`,
		roomID, formatTime(slot), statusAccepted, exceptID,
	).Scan(&holder)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return holder, err
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var slot, createdAt, updatedAt string
	if err := row.Scan(
		&reservation.ID,
		&reservation.RoomID,
		&reservation.UserID,
		&slot,
		&reservation.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Reservation{}, err
	}
	if err := parseReservationTimes(&reservation, slot, createdAt, updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}

func scanReservationDetail(row rowScanner) (persistence.ReservationDetail, error) {
	var detail persistence.ReservationDetail
	var slot, createdAt, updatedAt string
	if err := row.Scan(
		&detail.ID,
		&detail.RoomID,
		&detail.UserID,
		&slot,
		&detail.Status,
		&createdAt,
		&updatedAt,
		&detail.RoomName,
		&detail.UserFirstName,
		&detail.UserLastName,
		&detail.UserEmail,
	); err != nil {
		return persistence.ReservationDetail{}, err
	}
	if err := parseReservationTimes(&detail.Reservation, slot, createdAt, updatedAt); err != nil {
		return persistence.ReservationDetail{}, err
	}
	return detail, nil
}

func parseReservationTimes(reservation *persistence.Reservation, slot, createdAt, updatedAt string) error {
	var err error
	if reservation.Time, err = parseTime("slot_time", slot); err != nil {
		return err
	}
	if reservation.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return err
	}
	if reservation.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return err
	}
	return nil
}
