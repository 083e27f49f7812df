package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nomada-travel/nomada/backend/internal/middleware"
	"github.com/nomada-travel/nomada/backend/internal/service/payment"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Handler exposes Stripe payment intents for flight checkout.
type Handler struct {
	svc *payment.Service
}

// New creates the payment handler.
func New(svc *payment.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the payment routes. The payment history listing
// needs an authenticated traveler.
func (h *Handler) RegisterRoutes(r chi.Router, verifier middleware.TokenVerifier) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/intents", h.handleCreateIntent)
		r.Get("/intents/{intentID}", h.handleGetIntent)
		r.Post("/intents/{intentID}/confirm", h.handleConfirmIntent)
		r.Post("/intents/{intentID}/refund", h.handleRefundIntent)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(verifier))
			r.Get("/", h.handleList)
		})
	})
}

func (h *Handler) requireEnabled(w http.ResponseWriter) bool {
	if !h.svc.Enabled() {
		utils.RespondError(w, http.StatusServiceUnavailable, "payments are not configured")
		return false
	}
	return true
}

func (h *Handler) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	var req payment.CreateIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent, err := h.svc.CreateIntent(r.Context(), req)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidAmount) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "failed to create payment intent")
		return
	}
	utils.RespondJSON(w, http.StatusCreated, intent)
}

func (h *Handler) handleGetIntent(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	intentID := chi.URLParam(r, "intentID")
	intent, err := h.svc.GetIntent(r.Context(), intentID)
	if err != nil {
		utils.RespondError(w, http.StatusBadGateway, "failed to fetch payment intent")
		return
	}
	utils.RespondJSON(w, http.StatusOK, intent)
}

func (h *Handler) handleConfirmIntent(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	intentID := chi.URLParam(r, "intentID")
	record, err := h.svc.ConfirmIntent(r.Context(), intentID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentIncomplete) {
			utils.RespondError(w, http.StatusPaymentRequired, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "failed to confirm payment")
		return
	}
	utils.RespondJSON(w, http.StatusOK, record)
}

func (h *Handler) handleRefundIntent(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}

	var payload struct {
		Amount string `json:"amount"`
	}
	if r.Body != nil {
		// An empty body means a full refund.
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	intentID := chi.URLParam(r, "intentID")
	ref, err := h.svc.RefundIntent(r.Context(), intentID, payload.Amount)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidAmount) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		utils.RespondError(w, http.StatusBadGateway, "failed to create refund")
		return
	}
	utils.RespondJSON(w, http.StatusOK, ref)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if !h.requireEnabled(w) {
		return
	}
	email, _ := middleware.UserEmail(r.Context())

	payments, err := h.svc.ListPayments(r.Context(), email)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load payments")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"payments": payments})
}
