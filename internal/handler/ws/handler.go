package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nomada-travel/nomada/backend/internal/log"
	chatservice "github.com/nomada-travel/nomada/backend/internal/service/chat"
	"github.com/nomada-travel/nomada/backend/internal/service/turn"
)

// Frame is the JSON message exchanged over the chat socket. Clients send
// message, select and reset frames; the server answers with session,
// typing, message and error frames.
type Frame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Content   string `json:"content,omitempty"`
	Intent    string `json:"intent,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Created   bool   `json:"created,omitempty"`
	Typing    bool   `json:"typing,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Handler upgrades chat connections and relays turns to the orchestrator.
type Handler struct {
	orch     *turn.Orchestrator
	upgrader websocket.Upgrader
}

// New creates the WebSocket handler.
func New(orch *turn.Orchestrator) *Handler {
	return &Handler{
		orch: orch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Dev frontends connect cross-origin.
				return true
			},
		},
	}
}

// conn serializes writes; reply goroutines and the read loop share the
// socket.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) send(frame Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ws.WriteJSON(frame); err != nil {
		log.Debug().Err(err).Msg("ws write failed")
	}
}

// HandleWebSocket runs the connection's read loop until the client goes
// away.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer socket.Close()

	c := &conn{ws: socket}
	ctx := r.Context()

	for {
		var frame Frame
		if err := socket.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("ws closed unexpectedly")
			}
			return
		}
		h.handleFrame(ctx, c, frame)
	}
}

func (h *Handler) handleFrame(ctx context.Context, c *conn, frame Frame) {
	switch frame.Type {
	case "message":
		h.handleMessage(ctx, c, frame)
	case "select":
		session, ok := h.orch.SelectSession(ctx, frame.SessionID)
		if !ok {
			c.send(Frame{Type: "error", SessionID: frame.SessionID, Error: "session not found"})
			return
		}
		c.send(Frame{Type: "session", SessionID: session.ID})
	case "reset":
		h.orch.Reset(ctx)
		c.send(Frame{Type: "session"})
	default:
		c.send(Frame{Type: "error", Error: "unknown frame type"})
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *conn, frame Frame) {
	result, err := h.orch.Submit(ctx, frame.SessionID, frame.Content)
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		c.send(Frame{Type: "error", Error: "message must not be empty"})
		return
	}
	if errors.Is(err, chatservice.ErrSessionNotFound) {
		c.send(Frame{Type: "error", SessionID: frame.SessionID, Error: "session not found"})
		return
	}
	if err != nil {
		c.send(Frame{Type: "error", Error: "chat turn failed"})
		return
	}

	c.send(Frame{
		Type:      "session",
		SessionID: result.Session.ID,
		Created:   result.Created,
	})
	c.send(Frame{
		Type:      "message",
		SessionID: result.Session.ID,
		MessageID: result.UserMessage.ID,
		Sender:    result.UserMessage.Sender,
		Content:   result.UserMessage.Content,
		Timestamp: result.UserMessage.Timestamp,
	})
	c.send(Frame{Type: "typing", SessionID: result.Session.ID, Typing: true})

	// The reply arrives after the simulated delay (or model call); wait
	// for it off the read loop so the client can keep sending.
	go func() {
		reply, ok := <-result.Reply
		c.send(Frame{Type: "typing", SessionID: result.Session.ID, Typing: false})
		if !ok {
			// Invalidated by a session switch; nothing to deliver.
			return
		}
		c.send(Frame{
			Type:      "message",
			SessionID: reply.SessionID,
			MessageID: reply.ID,
			Sender:    reply.Sender,
			Content:   reply.Content,
			Intent:    reply.Intent,
			Timestamp: reply.Timestamp,
		})
	}()
}
