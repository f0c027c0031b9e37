package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

const weekLayout = "2006-01-02"

type reservationService interface {
	CreateReservation(ctx context.Context, params application.CreateReservationParams) (application.Reservation, error)
	GetReservation(ctx context.Context, principal application.Principal, id string) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	DeleteReservation(ctx context.Context, principal application.Principal, id string) error
	UpdateReservationStatus(ctx context.Context, params application.UpdateReservationStatusParams) (application.Reservation, error)
	WeekAvailability(ctx context.Context, params application.WeekAvailabilityParams) (application.WeekAvailability, error)
}

type ReservationHandler struct {
	service   reservationService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewReservationHandler builds the reservation handler. Week query values are
// interpreted as dates in loc.
func NewReservationHandler(service reservationService, loc *time.Location, logger *slog.Logger) *ReservationHandler {
	if loc == nil {
		loc = time.UTC
	}
	base := orDefault(logger)
	return &ReservationHandler{service: service, location: loc, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	var at time.Time
	if req.Time != nil {
		at = *req.Time
	}
	reservation, err := h.service.CreateReservation(r.Context(), application.CreateReservationParams{
		Principal: principal,
		Input: application.ReservationInput{
			ID:     req.ID,
			RoomID: req.RoomID,
			UserID: req.UserID,
			Time:   at,
			Status: req.Status,
		},
	})
	if err != nil {
		h.log(r.Context(), "Create", "room_id", req.RoomID).WarnContext(r.Context(), "reservation creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{Reservation: toReservationDTO(reservation)})
}

func (h *ReservationHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	reservation, err := h.service.GetReservation(r.Context(), principal, id)
	if err != nil {
		h.log(r.Context(), "Get", "reservation_id", id).WarnContext(r.Context(), "reservation lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// List returns reservations filtered by room_id, user_id, status and week.
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	query := r.URL.Query()

	params := application.ListReservationsParams{
		Principal: principal,
		RoomID:    query.Get("room_id"),
		UserID:    query.Get("user_id"),
		Status:    query.Get("status"),
	}
	if raw := strings.TrimSpace(query.Get("week")); raw != "" {
		week, err := h.parseWeek(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
			return
		}
		params.Week = &week
	}

	reservations, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, toReservationDTO(reservation))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: out})
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteReservation(r.Context(), principal, id); err != nil {
		h.log(r.Context(), "Delete", "reservation_id", id).WarnContext(r.Context(), "reservation delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *ReservationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "UpdateStatus", "reservation_id", id, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode status request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	reservation, err := h.service.UpdateReservationStatus(r.Context(), application.UpdateReservationStatusParams{
		Principal:     principal,
		ReservationID: id,
		Status:        req.Status,
	})
	if err != nil {
		h.log(r.Context(), "UpdateStatus", "reservation_id", id).WarnContext(r.Context(), "status update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, reservationResponse{Reservation: toReservationDTO(reservation)})
}

// Schedule renders the week grid of a room. The week query parameter selects
// any date inside the wanted week and defaults to the current week.
func (h *ReservationHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID := chi.URLParam(r, "id")

	var reference time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("week")); raw != "" {
		week, err := h.parseWeek(raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
			return
		}
		reference = week
	}

	availability, err := h.service.WeekAvailability(r.Context(), application.WeekAvailabilityParams{
		Principal: principal,
		RoomID:    roomID,
		Reference: reference,
	})
	if err != nil {
		h.log(r.Context(), "Schedule", "room_id", roomID).WarnContext(r.Context(), "schedule evaluation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toScheduleResponse(availability, h.location))
}

func (h *ReservationHandler) parseWeek(raw string) (time.Time, error) {
	if day, err := time.ParseInLocation(weekLayout, raw, h.location); err == nil {
		return day, nil
	}
	if instant, err := time.Parse(time.RFC3339, raw); err == nil {
		return instant, nil
	}
	return time.Time{}, fmt.Errorf("%w: week must be YYYY-MM-DD", errInvalidQuery)
}

type reservationRequest struct {
	ID     string     `json:"id"`
	RoomID string     `json:"room_id"`
	UserID string     `json:"user_id"`
	Time   *time.Time `json:"time"`
	Status string     `json:"status"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID        string `json:"id"`
	RoomID    string `json:"room_id"`
	RoomName  string `json:"room_name,omitempty"`
	UserID    string `json:"user_id"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	Time      string `json:"time"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toReservationDTO(reservation application.Reservation) reservationDTO {
	return reservationDTO{
		ID:        reservation.ID,
		RoomID:    reservation.RoomID,
		RoomName:  reservation.RoomName,
		UserID:    reservation.UserID,
		UserName:  reservation.UserName,
		UserEmail: reservation.UserEmail,
		Time:      reservation.Time.UTC().Format(time.RFC3339),
		Status:    reservation.Status.String(),
		CreatedAt: reservation.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: reservation.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type scheduleResponse struct {
	Room         roomDTO   `json:"room"`
	WeekStart    string    `json:"week_start"`
	PreviousWeek string    `json:"previous_week"`
	NextWeek     string    `json:"next_week"`
	FreeSlots    int       `json:"free_slots"`
	Slots        []slotDTO `json:"slots"`
}

type slotDTO struct {
	ID            string `json:"id"`
	Day           int    `json:"day"`
	Hour          int    `json:"hour"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Reserved      bool   `json:"reserved"`
	ReservationID string `json:"reservation_id,omitempty"`
}

func toScheduleResponse(availability application.WeekAvailability, loc *time.Location) scheduleResponse {
	slots := make([]slotDTO, 0, len(availability.Slots))
	for _, s := range availability.Slots {
		slots = append(slots, slotDTO{
			ID:            s.Slot.ID(),
			Day:           s.Slot.Day,
			Hour:          s.Slot.Hour,
			Start:         s.Slot.Start.In(loc).Format(time.RFC3339),
			End:           s.Slot.End().In(loc).Format(time.RFC3339),
			Reserved:      s.Reserved,
			ReservationID: s.ReservationID,
		})
	}
	return scheduleResponse{
		Room:         toRoomDTO(availability.Room),
		WeekStart:    availability.WeekStart.In(loc).Format(weekLayout),
		PreviousWeek: availability.PreviousWeek.In(loc).Format(weekLayout),
		NextWeek:     availability.NextWeek.In(loc).Format(weekLayout),
		FreeSlots:    booking.FreeCount(availability.Slots),
		Slots:        slots,
	}
}
