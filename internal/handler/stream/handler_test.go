package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	chatservice "github.com/nomada-travel/nomada/backend/internal/service/chat"
	"github.com/nomada-travel/nomada/backend/internal/service/responder"
	"github.com/nomada-travel/nomada/backend/internal/service/turn"
)

func newHandler() (*Handler, *chatservice.Service) {
	chatSvc := chatservice.NewService()
	orch := turn.NewOrchestrator(chatSvc, responder.NewService(), nil, time.Millisecond)
	return New(orch), chatSvc
}

// parseEvents splits an SSE body into its decoded data payloads.
func parseEvents(t *testing.T, body string) []event {
	t.Helper()
	var events []event
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		events = append(events, ev)
	}
	return events
}

func TestStreamEmitsFullTurn(t *testing.T) {
	h, _ := newHandler()
	rec := httptest.NewRecorder()

	if err := h.HandleStreamRequest(context.Background(), rec, "", "hello from the stream"); err != nil {
		t.Fatalf("stream request: %v", err)
	}

	events := parseEvents(t, rec.Body.String())
	var kinds []string
	for _, ev := range events {
		kinds = append(kinds, ev.Event)
	}
	want := []string{"start", "typing", "delta", "message", "end"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Fatalf("unexpected event sequence: %v", kinds)
	}

	last := events[len(events)-1]
	if !last.Finished || last.Cancelled {
		t.Fatalf("unexpected end event: %+v", last)
	}

	var message event
	for _, ev := range events {
		if ev.Event == "message" {
			message = ev
		}
	}
	if message.Intent != "greeting" || message.Content == "" {
		t.Fatalf("unexpected message event: %+v", message)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestStreamRejectsWhitespace(t *testing.T) {
	h, chatSvc := newHandler()
	rec := httptest.NewRecorder()

	if err := h.HandleStreamRequest(context.Background(), rec, "", "   "); err != nil {
		t.Fatalf("stream request: %v", err)
	}

	events := parseEvents(t, rec.Body.String())
	if len(events) != 1 || events[0].Event != "error" {
		t.Fatalf("expected a single error event, got %+v", events)
	}
	if sessions := chatSvc.ListSessions(context.Background()); len(sessions) != 0 {
		t.Fatalf("whitespace must not create sessions, got %d", len(sessions))
	}
}

func TestStreamUnknownSession(t *testing.T) {
	h, _ := newHandler()
	rec := httptest.NewRecorder()

	if err := h.HandleStreamRequest(context.Background(), rec, "missing", "hi"); err != nil {
		t.Fatalf("stream request: %v", err)
	}

	events := parseEvents(t, rec.Body.String())
	if len(events) != 1 || events[0].Error != "session not found" {
		t.Fatalf("expected session-not-found error, got %+v", events)
	}
}
