package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nomada-travel/nomada/backend/internal/service/account"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Handler exposes traveler registration and login.
type Handler struct {
	accounts *account.Service
}

// New creates the auth handler.
func New(accounts *account.Service) *Handler {
	return &Handler{accounts: accounts}
}

// RegisterRoutes mounts the auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
	})
}

// response mirrors the frontend's AuthResponse contract: failures are
// reported in-band with success=false rather than as HTTP errors.
type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Token   string `json:"token,omitempty"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.accounts.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if errors.Is(err, account.ErrEmailTaken) {
		utils.RespondJSON(w, http.StatusOK, response{Success: false, Message: "Email already registered"})
		return
	}
	if errors.Is(err, account.ErrMissingFields) {
		utils.RespondJSON(w, http.StatusOK, response{Success: false, Message: "Name, email and password are required"})
		return
	}
	if err != nil {
		utils.RespondJSON(w, http.StatusOK, response{Success: false, Message: "Registration failed"})
		return
	}

	utils.RespondJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Registered",
		Name:    user.Name,
		Email:   user.Email,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.accounts.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, account.ErrInvalidCredentials) {
		utils.RespondJSON(w, http.StatusOK, response{Success: false, Message: "Invalid credentials"})
		return
	}
	if err != nil {
		utils.RespondJSON(w, http.StatusOK, response{Success: false, Message: "Login failed"})
		return
	}

	utils.RespondJSON(w, http.StatusOK, response{
		Success: true,
		Message: "Logged in",
		Name:    user.Name,
		Email:   user.Email,
		Token:   token,
	})
}
