package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatservice "github.com/nomada-travel/nomada/backend/internal/service/chat"
	"github.com/nomada-travel/nomada/backend/internal/service/turn"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Handler exposes the chat turn flow and the session store over REST.
type Handler struct {
	orch    *turn.Orchestrator
	chatSvc *chatservice.Service
}

// New creates the chat handler.
func New(orch *turn.Orchestrator, chatSvc *chatservice.Service) *Handler {
	return &Handler{orch: orch, chatSvc: chatSvc}
}

// RegisterRoutes mounts the chat and session routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.handleCreateSession)
		r.Get("/", h.handleListSessions)
		r.Get("/active", h.handleActiveSession)
		r.Post("/reset", h.handleReset)
		r.Get("/{sessionID}", h.handleGetSession)
		r.Post("/{sessionID}/select", h.handleSelectSession)
	})
}

// handleChat runs one synchronous turn: the response carries the
// assistant's reply once the simulated delay (or the live model) has
// produced it.
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.orch.Submit(r.Context(), payload.SessionID, payload.Message)
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		utils.RespondError(w, http.StatusBadRequest, "message must not be empty")
		return
	}
	if errors.Is(err, chatservice.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "chat turn failed")
		return
	}

	select {
	case reply, ok := <-result.Reply:
		if !ok {
			// The turn was invalidated by a session switch before the
			// reply landed.
			utils.RespondError(w, http.StatusConflict, "turn cancelled")
			return
		}
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"sessionId": result.Session.ID,
			"reply":     reply.Content,
			"intent":    reply.Intent,
		})
	case <-r.Context().Done():
	}
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		FirstMessage string `json:"firstMessage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.chatSvc.CreateSession(r.Context(), payload.FirstMessage)
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		utils.RespondError(w, http.StatusBadRequest, "firstMessage must not be empty")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	utils.RespondJSON(w, http.StatusCreated, session)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessions": h.chatSvc.ListSessions(r.Context()),
	})
}

func (h *Handler) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.chatSvc.ActiveSession(r.Context())
	if !ok {
		// No active session means the welcome view.
		utils.RespondJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"active": true, "session": session})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if errors.Is(err, chatservice.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	transcript, err := h.chatSvc.LoadTranscript(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to load transcript")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session":  session,
		"messages": transcript,
	})
}

// handleSelectSession switches the active session. An unknown id is
// acknowledged without switching; the store treats it as a no-op.
func (h *Handler) handleSelectSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, ok := h.orch.SelectSession(r.Context(), sessionID)
	if !ok {
		utils.RespondJSON(w, http.StatusOK, map[string]any{"selected": false})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"selected": true, "session": session})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.orch.Reset(r.Context())
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
