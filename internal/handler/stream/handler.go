package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	chatservice "github.com/nomada-travel/nomada/backend/internal/service/chat"
	"github.com/nomada-travel/nomada/backend/internal/service/turn"
	"github.com/nomada-travel/nomada/backend/pkg/utils"
)

// Handler streams chat turns over Server-Sent Events.
type Handler struct {
	orch *turn.Orchestrator
}

// New creates the stream handler.
func New(orch *turn.Orchestrator) *Handler {
	return &Handler{orch: orch}
}

// event is one SSE frame payload.
type event struct {
	Event     string `json:"event"`
	SessionID string `json:"sessionId,omitempty"`
	Content   string `json:"content,omitempty"`
	Intent    string `json:"intent,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	Finished  bool   `json:"finished,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HandleStreamRequest runs one turn and emits start, typing, delta,
// message and end events as the reply is produced. A turn invalidated by
// a session switch ends with a cancelled end event instead of a message.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	// Deltas arrive from the orchestrator's reply goroutine; the channel
	// hands them to this goroutine, which owns the response writer.
	deltaCh := make(chan string, 32)
	result, err := h.orch.SubmitStream(ctx, sessionID, userMessage, func(chunk string) {
		select {
		case deltaCh <- chunk:
		case <-ctx.Done():
		}
	})
	if errors.Is(err, chatservice.ErrEmptyMessage) {
		utils.SendSSEChunk(w, flusher, event{Event: "error", Error: "message must not be empty"})
		return nil
	}
	if errors.Is(err, chatservice.ErrSessionNotFound) {
		utils.SendSSEChunk(w, flusher, event{Event: "error", Error: "session not found"})
		return nil
	}
	if err != nil {
		utils.SendSSEChunk(w, flusher, event{Event: "error", Error: "turn failed"})
		return err
	}

	utils.SendSSEChunk(w, flusher, event{
		Event:     "start",
		SessionID: result.Session.ID,
		MessageID: result.UserMessage.ID,
	})
	utils.SendSSEChunk(w, flusher, event{Event: "typing", SessionID: result.Session.ID})

	for {
		select {
		case chunk := <-deltaCh:
			utils.SendSSEChunk(w, flusher, event{
				Event:     "delta",
				SessionID: result.Session.ID,
				Content:   chunk,
			})

		case reply, ok := <-result.Reply:
			if !ok {
				utils.SendSSEChunk(w, flusher, event{
					Event:     "end",
					SessionID: result.Session.ID,
					Cancelled: true,
				})
				return nil
			}
			// The reply goroutine emits every delta before finishing the
			// turn; flush whatever is still buffered before the final
			// message.
			for {
				select {
				case chunk := <-deltaCh:
					utils.SendSSEChunk(w, flusher, event{
						Event:     "delta",
						SessionID: result.Session.ID,
						Content:   chunk,
					})
					continue
				default:
				}
				break
			}
			utils.SendSSEChunk(w, flusher, event{
				Event:     "message",
				SessionID: result.Session.ID,
				MessageID: reply.ID,
				Content:   reply.Content,
				Intent:    reply.Intent,
			})
			utils.SendSSEChunk(w, flusher, event{
				Event:     "end",
				SessionID: result.Session.ID,
				Finished:  true,
			})
			return nil

		case <-ctx.Done():
			return nil
		}
	}
}
