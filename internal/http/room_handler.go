package http

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	GetRoom(ctx context.Context, principal application.Principal, roomID string) (application.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (application.Room, error)
	DeleteRoom(ctx context.Context, principal application.Principal, roomID string) error
	ListRooms(ctx context.Context, params application.ListRoomsParams) ([]application.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := orDefault(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.log(r.Context(), "Create").WarnContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID := chi.URLParam(r, "id")
	room, err := h.service.GetRoom(r.Context(), principal, roomID)
	if err != nil {
		h.log(r.Context(), "Get", "room_id", roomID).WarnContext(r.Context(), "room lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID := chi.URLParam(r, "id")

	var req roomRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "room_id", roomID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Principal: principal,
		RoomID:    roomID,
		Input:     req.toInput(),
	})
	if err != nil {
		h.log(r.Context(), "Update", "room_id", roomID).WarnContext(r.Context(), "room update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID := chi.URLParam(r, "id")
	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		h.log(r.Context(), "Delete", "room_id", roomID).WarnContext(r.Context(), "room delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// List returns rooms, optionally filtered by min_capacity, max_capacity,
// projector, whiteboard, audio and ventilation query parameters.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	filter, err := parseRoomFilter(r.URL.Query())
	if err != nil {
		h.log(r.Context(), "List", "error_kind", "bad_request").WarnContext(r.Context(), "invalid room filter", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, fmt.Errorf("%w: %v", errInvalidQuery, err))
		return
	}

	rooms, err := h.service.ListRooms(r.Context(), application.ListRoomsParams{Principal: principal, Filter: filter})
	if err != nil {
		h.log(r.Context(), "List").WarnContext(r.Context(), "room list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

func parseRoomFilter(query url.Values) (booking.RoomFilter, error) {
	var filter booking.RoomFilter

	minValue := strings.TrimSpace(query.Get("min_capacity"))
	maxValue := strings.TrimSpace(query.Get("max_capacity"))
	if minValue != "" || maxValue != "" {
		capacity := booking.CapacityRange{Min: 0, Max: math.MaxInt}
		if minValue != "" {
			v, err := strconv.Atoi(minValue)
			if err != nil {
				return booking.RoomFilter{}, fmt.Errorf("min_capacity must be an integer")
			}
			capacity.Min = v
		}
		if maxValue != "" {
			v, err := strconv.Atoi(maxValue)
			if err != nil {
				return booking.RoomFilter{}, fmt.Errorf("max_capacity must be an integer")
			}
			capacity.Max = v
		}
		filter.Capacity = &capacity
	}

	flags := []struct {
		name string
		dst  **bool
	}{
		{"projector", &filter.HasProjector},
		{"whiteboard", &filter.HasWhiteboard},
		{"audio", &filter.HasAudio},
		{"ventilation", &filter.HasVentilation},
	}
	for _, flag := range flags {
		raw := strings.TrimSpace(query.Get(flag.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return booking.RoomFilter{}, fmt.Errorf("%s must be true or false", flag.name)
		}
		*flag.dst = &v
	}

	return filter, nil
}

type featuresDTO struct {
	MaxCapacity    int  `json:"max_capacity"`
	HasProjector   bool `json:"has_projector"`
	HasWhiteboard  bool `json:"has_whiteboard"`
	HasAudio       bool `json:"has_audio"`
	HasVentilation bool `json:"has_ventilation"`
}

func (f featuresDTO) toFeatures() booking.Features {
	return booking.Features{
		MaxCapacity:    f.MaxCapacity,
		HasProjector:   f.HasProjector,
		HasWhiteboard:  f.HasWhiteboard,
		HasAudio:       f.HasAudio,
		HasVentilation: f.HasVentilation,
	}
}

func toFeaturesDTO(f booking.Features) featuresDTO {
	return featuresDTO{
		MaxCapacity:    f.MaxCapacity,
		HasProjector:   f.HasProjector,
		HasWhiteboard:  f.HasWhiteboard,
		HasAudio:       f.HasAudio,
		HasVentilation: f.HasVentilation,
	}
}

type roomRequest struct {
	ID       string      `json:"id"`
	Name     string      `json:"room_name"`
	Features featuresDTO `json:"features"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		ID:       strings.TrimSpace(r.ID),
		Name:     strings.TrimSpace(r.Name),
		Features: r.Features.toFeatures(),
	}
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID        string      `json:"id"`
	Name      string      `json:"room_name"`
	Features  featuresDTO `json:"features"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Features:  toFeaturesDTO(room.Features),
		CreatedAt: room.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: room.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
