package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"staybook/internal/bookings/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service     service.BookingService
	log         *logger.Logger
	statusGuard func(http.Handler) http.Handler
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

// WithStatusGuard wraps only the status route, which is called by the payment
// provider rather than by guests.
func (h *BookingHandler) WithStatusGuard(guard func(http.Handler) http.Handler) *BookingHandler {
	h.statusGuard = guard
	return h
}

type AvailabilityResponse struct {
	RoomID    string `json:"room_id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Available bool   `json:"available"`
}

type BatchAvailabilityResponse struct {
	CheckIn  string          `json:"check_in"`
	CheckOut string          `json:"check_out"`
	Rooms    map[string]bool `json:"rooms"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in model.CreateBookingInput
	if err := decodeBody(r, &in); err != nil {
		h.writeError(w, "Create", err)
		return
	}
	if requester := httputil.RequesterID(r); requester != "" {
		in.RequesterID = requester
	}

	booking, err := h.service.Create(r.Context(), &in)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := decodeBody(r, &update); err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	booking, err := h.service.UpdateStatus(r.Context(), ps.ByName("id"), update.Status)
	if err != nil {
		h.writeError(w, "UpdateStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	query := r.URL.Query()
	roomID := ps.ByName("id")
	checkIn, checkOut := query.Get("check_in"), query.Get("check_out")

	available, err := h.service.CheckAvailability(r.Context(), roomID, checkIn, checkOut)
	if err != nil {
		h.writeError(w, "CheckAvailability", err)
		return
	}

	if err := httputil.WriteSuccess(w, AvailabilityResponse{
		RoomID:    roomID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Available: available,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailability", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) CheckAvailabilityBatch(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	checkIn, checkOut := query.Get("check_in"), query.Get("check_out")

	rooms, err := h.service.CheckAvailabilityBatch(r.Context(), httputil.QueryList(r, "room_ids"), checkIn, checkOut)
	if err != nil {
		h.writeError(w, "CheckAvailabilityBatch", err)
		return
	}

	if err := httputil.WriteSuccess(w, BatchAvailabilityResponse{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Rooms:    rooms,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckAvailabilityBatch", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.GET("/api/v1/rooms/:id/availability", h.CheckAvailability)
	router.GET("/api/v1/availability", h.CheckAvailabilityBatch)

	if h.statusGuard == nil {
		router.PATCH("/api/v1/bookings/id/:id/status", h.UpdateStatus)
		return
	}
	status := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.UpdateStatus(w, r, httprouter.ParamsFromContext(r.Context()))
	})
	router.Handler(http.MethodPatch, "/api/v1/bookings/id/:id/status", h.statusGuard(status))
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return apperrors.New(apperrors.CodeInvalidInput, "Request body too large", http.StatusRequestEntityTooLarge)
	case errors.Is(err, io.EOF):
		return apperrors.InvalidInput("Request body is empty")
	default:
		return apperrors.InvalidInput("Invalid request body")
	}
}
