package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-reservations/internal/booking"
	"github.com/example/room-reservations/internal/persistence"
)

// ReservationRepository captures the persistence operations needed by the
// reservation service. CreateReservation and UpdateReservationStatus must
// refuse to give a slot to a second accepted reservation.
type ReservationRepository interface {
	CreateReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	UpdateReservationStatus(ctx context.Context, id string, status booking.Status, updatedAt time.Time) (Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
}

// RoomCatalog resolves rooms referenced by reservations.
type RoomCatalog interface {
	GetRoom(ctx context.Context, id string) (Room, error)
}

// UserDirectory resolves users referenced by reservations.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// ReservationObserver receives reservation lifecycle events, typically to
// record metrics. Implementations must be safe for concurrent use.
type ReservationObserver interface {
	ReservationCreated(status booking.Status)
	ReservationDeleted(status booking.Status)
	StatusTransitioned(transition booking.Transition)
	SlotConflict(operation string)
	MisalignedSlot(strict bool)
}

type noopObserver struct{}

func (noopObserver) ReservationCreated(booking.Status)     {}
func (noopObserver) ReservationDeleted(booking.Status)     {}
func (noopObserver) StatusTransitioned(booking.Transition) {}
func (noopObserver) SlotConflict(string)                   {}
func (noopObserver) MisalignedSlot(bool)                   {}

// ReservationOption customizes a ReservationService.
type ReservationOption func(*ReservationService)

// WithReservationLogger sets the base logger.
func WithReservationLogger(logger *slog.Logger) ReservationOption {
	return func(s *ReservationService) { s.logger = defaultLogger(logger) }
}

// WithGrid sets the slot grid, and so the week location.
func WithGrid(grid *booking.Grid) ReservationOption {
	return func(s *ReservationService) {
		if grid != nil {
			s.grid = grid
		}
	}
}

// WithStrictSlotAlignment rejects reservation times that are not slot starts.
func WithStrictSlotAlignment(strict bool) ReservationOption {
	return func(s *ReservationService) { s.strictAlignment = strict }
}

// WithReservationObserver registers an observer for lifecycle events.
func WithReservationObserver(observer ReservationObserver) ReservationOption {
	return func(s *ReservationService) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// ReservationService validates, authorizes and persists reservation requests
// and reviews.
type ReservationService struct {
	reservations    ReservationRepository
	rooms           RoomCatalog
	users           UserDirectory
	idGenerator     func() string
	now             func() time.Time
	grid            *booking.Grid
	strictAlignment bool
	observer        ReservationObserver
	logger          *slog.Logger
}

// NewReservationService wires dependencies for the reservation service.
func NewReservationService(reservations ReservationRepository, rooms RoomCatalog, users UserDirectory, idGenerator func() string, now func() time.Time, opts ...ReservationOption) *ReservationService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	s := &ReservationService{
		reservations: reservations,
		rooms:        rooms,
		users:        users,
		idGenerator:  idGenerator,
		now:          now,
		grid:         booking.NewGrid(time.UTC),
		observer:     noopObserver{},
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// CreateReservation validates a booking request and persists it. Requests
// are pending unless an administrator asks for another status. A slot already
// held by an accepted reservation cannot be requested again.
func (s *ReservationService) CreateReservation(ctx context.Context, params CreateReservationParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil || s.users == nil {
		err = fmt.Errorf("reservation dependencies not configured")
		return
	}

	principal := params.Principal
	input := normalizeReservationInput(params.Input, principal)

	logger := s.loggerWith(ctx, "CreateReservation",
		"principal_id", principal.UserID,
		"room_id", input.RoomID,
		"user_id", input.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		s.observer.ReservationCreated(reservation.Status)
		logger.With(
			"reservation_id", reservation.ID,
			"status", reservation.Status,
			"slot", booking.SlotID(reservation.Time),
		).InfoContext(ctx, "reservation created")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	var status booking.Status
	status, err = s.validateReservationInput(ctx, logger, input)
	if err != nil {
		return
	}

	if !principal.CanActFor(input.UserID) {
		err = ErrUnauthorized
		return
	}
	if status != booking.StatusPending && !principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	var user User
	user, err = s.users.GetUser(ctx, input.UserID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	id := input.ID
	if id == "" {
		id = s.idGenerator()
	}
	now := s.now()
	candidate := Reservation{
		ID:        id,
		RoomID:    room.ID,
		UserID:    user.ID,
		Time:      input.Time,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var persisted Reservation
	persisted, err = s.reservations.CreateReservation(ctx, candidate)
	if err != nil {
		err = mapReservationRepoError(err)
		if errors.Is(err, ErrSlotUnavailable) {
			s.observer.SlotConflict("create")
		}
		return
	}

	reservation = withLabels(persisted, room, user)
	return
}

// validateReservationInput checks required fields, the status value and slot
// alignment. Misaligned times are only logged unless strict alignment is on.
func (s *ReservationService) validateReservationInput(ctx context.Context, logger *slog.Logger, input ReservationInput) (booking.Status, error) {
	vErr := &ValidationError{}
	if input.RoomID == "" {
		vErr.add("room_id", "room_id is required")
	}
	if input.UserID == "" {
		vErr.add("user_id", "user_id is required")
	}
	storable := false
	if input.Time.IsZero() {
		vErr.add("time", "time is required")
	} else if year := input.Time.UTC().Year(); year < 1 || year > 9999 {
		// The store keeps RFC 3339 text, which has exactly four year digits.
		vErr.add("time", "time must fall between the years 0001 and 9999")
	} else {
		storable = true
	}

	status := booking.StatusPending
	if input.Status != "" {
		parsed, err := booking.ParseStatus(input.Status)
		if err != nil {
			vErr.add("status", "status must be one of pending, accepted, rejected")
		} else {
			status = parsed
		}
	}

	if storable && !s.grid.IsCanonical(input.Time) {
		s.observer.MisalignedSlot(s.strictAlignment)
		if s.strictAlignment {
			vErr.add("time", "time must be the start of an hourly slot between 08:00 and 20:00")
		} else {
			logger.WarnContext(ctx, "reservation time is not aligned to a slot", "time", input.Time.Format(time.RFC3339))
		}
	}

	if vErr.HasErrors() {
		return "", vErr
	}
	return status, nil
}

// GetReservation returns a reservation to its owner or an administrator.
func (s *ReservationService) GetReservation(ctx context.Context, principal Principal, id string) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "GetReservation",
		"principal_id", principal.UserID,
		"reservation_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to get reservation", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	reservation, err = s.reservations.GetReservation(ctx, strings.TrimSpace(id))
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	if !principal.CanActFor(reservation.UserID) {
		reservation = Reservation{}
		err = ErrUnauthorized
	}
	return
}

// ListReservations returns reservations ordered by time. Administrators see
// every reservation; other users only see their own.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	principal := params.Principal
	logger := s.loggerWith(ctx, "ListReservations",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list reservations", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(reservations)).InfoContext(ctx, "reservations listed")
	}()

	if !principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	filter := ReservationFilter{
		RoomID: strings.TrimSpace(params.RoomID),
		UserID: strings.TrimSpace(params.UserID),
	}
	if !principal.IsAdmin() {
		if filter.UserID != "" && filter.UserID != principal.UserID {
			err = ErrUnauthorized
			return
		}
		filter.UserID = principal.UserID
	}
	if params.Status != "" {
		var status booking.Status
		status, err = booking.ParseStatus(params.Status)
		if err != nil {
			err = newValidationError("status", "status must be one of pending, accepted, rejected")
			return
		}
		filter.Status = status
	}
	if params.Week != nil {
		from := s.grid.WeekStart(*params.Week)
		to := s.grid.WeekEnd(*params.Week)
		filter.From = &from
		filter.To = &to
	}

	reservations, err = s.reservations.ListReservations(ctx, filter)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	return
}

// DeleteReservation removes a reservation for its owner or an administrator.
// Deleting an accepted reservation frees its slot.
func (s *ReservationService) DeleteReservation(ctx context.Context, principal Principal, id string) (err error) {
	if s == nil {
		return fmt.Errorf("ReservationService is nil")
	}
	if s.reservations == nil {
		return fmt.Errorf("reservation repository not configured")
	}

	id = strings.TrimSpace(id)
	logger := s.loggerWith(ctx, "DeleteReservation",
		"principal_id", principal.UserID,
		"reservation_id", id,
	)

	var existing Reservation
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to delete reservation", "error", err, "error_kind", ErrorKind(err))
			return
		}
		s.observer.ReservationDeleted(existing.Status)
		logger.With(
			"status", existing.Status,
			"slot_released", existing.Status.Blocks(),
		).InfoContext(ctx, "reservation deleted")
	}()

	existing, err = s.reservations.GetReservation(ctx, id)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}
	if !principal.CanActFor(existing.UserID) {
		err = ErrUnauthorized
		return
	}

	if err = s.reservations.DeleteReservation(ctx, id); err != nil {
		err = mapReservationRepoError(err)
	}
	return
}

// UpdateReservationStatus lets an administrator move a reservation to any
// status. Accepting is refused with ErrSlotUnavailable when another accepted
// reservation already holds the slot, and nothing is changed in that case.
func (s *ReservationService) UpdateReservationStatus(ctx context.Context, params UpdateReservationStatusParams) (reservation Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil {
		err = fmt.Errorf("reservation repository not configured")
		return
	}

	id := strings.TrimSpace(params.ReservationID)
	logger := s.loggerWith(ctx, "UpdateReservationStatus",
		"principal_id", params.Principal.UserID,
		"reservation_id", id,
		"requested_status", params.Status,
	)

	var transition booking.Transition
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update reservation status", "error", err, "error_kind", ErrorKind(err))
			return
		}
		s.observer.StatusTransitioned(transition)
		entry := logger.With("from", transition.From, "to", transition.To)
		if transition.Releases() {
			entry.WarnContext(ctx, "accepted reservation released its slot", "slot_released", true)
			return
		}
		entry.InfoContext(ctx, "reservation status updated")
	}()

	if !params.Principal.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	var target booking.Status
	target, err = booking.ParseStatus(params.Status)
	if err != nil {
		err = newValidationError("status", "status must be one of pending, accepted, rejected")
		return
	}

	var existing Reservation
	existing, err = s.reservations.GetReservation(ctx, id)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	transition, err = booking.NewTransition(existing.Status, target)
	if err != nil {
		err = fmt.Errorf("stored reservation %s: %w", id, err)
		return
	}

	var updated Reservation
	updated, err = s.reservations.UpdateReservationStatus(ctx, id, target, s.now())
	if err != nil {
		err = mapReservationRepoError(err)
		if errors.Is(err, ErrSlotUnavailable) {
			s.observer.SlotConflict("update_status")
		}
		return
	}

	updated.RoomName = existing.RoomName
	updated.UserName = existing.UserName
	updated.UserEmail = existing.UserEmail
	reservation = updated
	return
}

// WeekAvailability evaluates the slot grid of a room for the week containing
// Reference. Only accepted reservations mark a slot as reserved.
func (s *ReservationService) WeekAvailability(ctx context.Context, params WeekAvailabilityParams) (availability WeekAvailability, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}
	if s.reservations == nil || s.rooms == nil {
		err = fmt.Errorf("reservation dependencies not configured")
		return
	}

	roomID := strings.TrimSpace(params.RoomID)
	logger := s.loggerWith(ctx, "WeekAvailability",
		"principal_id", params.Principal.UserID,
		"room_id", roomID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to evaluate availability", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With(
			"week_start", availability.WeekStart.Format(time.RFC3339),
			"free_slots", booking.FreeCount(availability.Slots),
		).DebugContext(ctx, "availability evaluated")
	}()

	if !params.Principal.Authenticated() {
		err = ErrUnauthorized
		return
	}

	var room Room
	room, err = s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	reference := params.Reference
	if reference.IsZero() {
		reference = s.now()
	}
	from := s.grid.WeekStart(reference)
	to := s.grid.WeekEnd(reference)

	var accepted []Reservation
	accepted, err = s.reservations.ListReservations(ctx, ReservationFilter{
		RoomID: room.ID,
		Status: booking.StatusAccepted,
		From:   &from,
		To:     &to,
	})
	if err != nil {
		err = mapReservationRepoError(err)
		return
	}

	bookings := make([]booking.Booking, 0, len(accepted))
	for _, r := range accepted {
		bookings = append(bookings, booking.Booking{ID: r.ID, RoomID: r.RoomID, Start: r.Time, Status: r.Status})
	}

	slots := booking.EvaluateAvailability(room.ID, s.grid.Week(reference), bookings)
	if !params.Principal.IsAdmin() {
		owned := make(map[string]struct{})
		for _, r := range accepted {
			if r.UserID == params.Principal.UserID {
				owned[r.ID] = struct{}{}
			}
		}
		for i := range slots {
			if _, ok := owned[slots[i].ReservationID]; !ok {
				slots[i].ReservationID = ""
			}
		}
	}

	availability = WeekAvailability{
		Room:         room,
		WeekStart:    from,
		PreviousWeek: s.grid.PreviousWeek(reference),
		NextWeek:     s.grid.NextWeek(reference),
		Slots:        slots,
	}
	return
}

func normalizeReservationInput(input ReservationInput, principal Principal) ReservationInput {
	normalized := ReservationInput{
		ID:     strings.TrimSpace(input.ID),
		RoomID: strings.TrimSpace(input.RoomID),
		UserID: strings.TrimSpace(input.UserID),
		Status: strings.TrimSpace(input.Status),
	}
	if normalized.UserID == "" {
		normalized.UserID = principal.UserID
	}
	if !input.Time.IsZero() {
		normalized.Time = input.Time.UTC().Truncate(time.Second)
	}
	return normalized
}

func withLabels(reservation Reservation, room Room, user User) Reservation {
	reservation.RoomName = room.Name
	reservation.UserName = user.DisplayName()
	reservation.UserEmail = user.Email
	return reservation
}

func mapReservationRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, persistence.ErrSlotTaken):
		return ErrSlotUnavailable
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	return fmt.Errorf("reservation store: %w", err)
}
