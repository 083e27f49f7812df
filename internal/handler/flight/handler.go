package flight

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nomada-travel/nomada/backend/internal/middleware"
	"github.com/nomada-travel/nomada/backend/internal/model/travel"
	"github.com/nomada-travel/nomada/backend/internal/service/flight"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Handler exposes flight search, booking and cancellation over Duffel.
type Handler struct {
	svc *flight.Service
}

// New creates the flight handler.
func New(svc *flight.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the flight routes. Search and offer lookup are
// open; order routes need an authenticated traveler so bookings land on
// the right account.
func (h *Handler) RegisterRoutes(r chi.Router, verifier middleware.TokenVerifier) {
	r.Route("/flights", func(r chi.Router) {
		r.Get("/search", h.handleSearch)
		r.Get("/offers/{offerID}", h.handleOffer)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(verifier))
			r.Post("/orders", h.handleCreateOrder)
			r.Get("/orders/{orderID}", h.handleGetOrder)
			r.Delete("/orders/{orderID}", h.handleCancelOrder)
		})
	})
}

func (h *Handler) requireEnabled(w http.ResponseWriter) bool {
	if !h.svc.Enabled() {
		utils.RespondError(w, http.StatusServiceUnavailable, "flight search is not configured")
		return false
	}
	return true
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	q := r.URL.Query()
	query := travel.FlightQuery{
		Origin:        q.Get("origin"),
		Destination:   q.Get("destination"),
		DepartureDate: q.Get("departure_date"),
		ReturnDate:    q.Get("return_date"),
		CabinClass:    q.Get("cabin_class"),
	}
	if v := q.Get("passengers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "passengers must be a number")
			return
		}
		query.Passengers = n
	}
	if v := q.Get("max_offers"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			utils.RespondError(w, http.StatusBadRequest, "max_offers must be a number")
			return
		}
		query.MaxOffers = n
	}

	offers, err := h.svc.Search(r.Context(), query)
	if err != nil {
		if isValidationError(err) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "flight search failed")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"offers": offers})
}

func (h *Handler) handleOffer(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	offerID := chi.URLParam(r, "offerID")
	offer, err := h.svc.Offer(r.Context(), offerID)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "failed to fetch offer")
		return
	}
	utils.RespondJSON(w, http.StatusOK, offer)
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}
	email, _ := middleware.UserEmail(r.Context())

	var req travel.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OfferID == "" {
		utils.RespondError(w, http.StatusBadRequest, "offerId is required")
		return
	}

	order, err := h.svc.Book(r.Context(), email, req)
	if err != nil {
		if errors.Is(err, flight.ErrPassengerDetails) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "failed to create order")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, order)
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	orderID := chi.URLParam(r, "orderID")
	order, err := h.svc.Order(r.Context(), orderID)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "failed to fetch order")
		return
	}
	utils.RespondJSON(w, http.StatusOK, order)
}

func (h *Handler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}
	email, _ := middleware.UserEmail(r.Context())

	orderID := chi.URLParam(r, "orderID")
	cancellation, err := h.svc.Cancel(r.Context(), email, orderID)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "failed to cancel order")
		return
	}
	utils.RespondJSON(w, http.StatusOK, cancellation)
}

// isValidationError distinguishes bad query input from upstream failures.
func isValidationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "required") || strings.Contains(msg, "invalid cabin class")
}
