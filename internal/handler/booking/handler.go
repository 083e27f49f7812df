package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nomada-travel/nomada/backend/internal/middleware"
	"github.com/nomada-travel/nomada/backend/internal/store"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Handler lists and cancels a traveler's stored bookings.
type Handler struct {
	store *store.Store
}

// New creates the booking handler.
func New(st *store.Store) *Handler {
	return &Handler{store: st}
}

// RegisterRoutes mounts the booking routes behind the auth guard.
func (h *Handler) RegisterRoutes(r chi.Router, verifier middleware.TokenVerifier) {
	r.Route("/bookings", func(r chi.Router) {
		r.Use(middleware.RequireAuth(verifier))
		r.Get("/", h.handleList)
		r.Post("/cancel", h.handleCancel)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.UserEmail(r.Context())

	bookings, err := h.store.ListBookings(r.Context(), email)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load bookings")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.UserEmail(r.Context())

	var payload struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.OrderID == "" {
		utils.RespondError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	err := h.store.CancelBooking(r.Context(), email, payload.OrderID)
	if errors.Is(err, store.ErrBookingNotFound) {
		utils.RespondError(w, http.StatusNotFound, "booking not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to cancel booking")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"success": true})
}
