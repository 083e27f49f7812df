package hotel

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nomada-travel/nomada/backend/internal/middleware"
	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/service/hotel"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Handler exposes hotel availability and booking over Hotelbeds.
type Handler struct {
	svc *hotel.Service
}

// New creates the hotel handler.
func New(svc *hotel.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the hotel routes. Availability is open; booking
// routes need an authenticated traveler.
func (h *Handler) RegisterRoutes(r chi.Router, verifier middleware.TokenVerifier) {
	r.Route("/hotels", func(r chi.Router) {
		r.Get("/search", h.handleSearch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(verifier))
			r.Post("/bookings", h.handleBook)
			r.Get("/bookings/{reference}", h.handleGetBooking)
			r.Delete("/bookings/{reference}", h.handleCancelBooking)
		})
	})
}

func (h *Handler) requireEnabled(w http.ResponseWriter) bool {
	if !h.svc.Enabled() {
		utils.RespondError(w, http.StatusServiceUnavailable, "hotel search is not configured")
		return false
	}
	return true
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	q := r.URL.Query()
	query := travel.HotelQuery{
		DestinationCode: q.Get("destination"),
		CheckIn:         q.Get("check_in"),
		CheckOut:        q.Get("check_out"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		query.Limit = n
	}
	if v := q.Get("adults"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "adults must be a number")
			return
		}
		query.Rooms = []travel.RoomStay{{Adults: n}}
	}
	if v := q.Get("min_rate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "min_rate must be a number")
			return
		}
		query.MinRate = f
	}
	if v := q.Get("max_rate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "max_rate must be a number")
			return
		}
		query.MaxRate = f
	}

	offers, err := h.svc.Search(r.Context(), query)
	if err != nil {
		if isValidationError(err) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "hotel search failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"hotels": offers})
}

func (h *Handler) handleBook(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}
	email, _ := middleware.UserEmail(r.Context())

	var req travel.HotelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Rooms) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "at least one room with a rate key is required")
		return
	}

	booking, err := h.svc.Book(r.Context(), email, req)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "failed to create booking")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, booking)
}

func (h *Handler) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	reference := chi.URLParam(r, "reference")
	booking, err := h.svc.Booking(r.Context(), reference)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "failed to fetch booking")
		return
	}
	utils.RespondJSON(w, http.StatusOK, booking)
}

func (h *Handler) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}
	email, _ := middleware.UserEmail(r.Context())

	reference := chi.URLParam(r, "reference")
	booking, err := h.svc.Cancel(r.Context(), email, reference)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "failed to cancel booking")
		return
	}
	utils.RespondJSON(w, http.StatusOK, booking)
}

func isValidationError(err error) bool {
	return strings.Contains(err.Error(), "required")
}
