package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	chatservice "github.com/nomada-travel/nomada/backend/internal/service/chat"
	"github.com/nomada-travel/nomada/backend/internal/service/responder"
	"github.com/nomada-travel/nomada/backend/internal/service/turn"
)

func dialTestSocket(t *testing.T) (*websocket.Conn, *chatservice.Service) {
	t.Helper()

	chatSvc := chatservice.NewService()
	orch := turn.NewOrchestrator(chatSvc, responder.NewService(), nil, time.Millisecond)
	handler := New(orch)

	srv := httptest.NewServer(http.HandlerFunc(handler.HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	socket, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { socket.Close() })
	return socket, chatSvc
}

func readFrame(t *testing.T, socket *websocket.Conn) Frame {
	t.Helper()
	socket.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame Frame
	if err := socket.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

func TestMessageTurnOverSocket(t *testing.T) {
	socket, _ := dialTestSocket(t)

	if err := socket.WriteJSON(Frame{Type: "message", Content: "hello from ws"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	session := readFrame(t, socket)
	if session.Type != "session" || session.SessionID == "" || !session.Created {
		t.Fatalf("unexpected session frame: %+v", session)
	}

	userMsg := readFrame(t, socket)
	if userMsg.Type != "message" || userMsg.Sender != "user" || userMsg.Content != "hello from ws" {
		t.Fatalf("unexpected user message frame: %+v", userMsg)
	}

	typingOn := readFrame(t, socket)
	if typingOn.Type != "typing" || !typingOn.Typing {
		t.Fatalf("unexpected typing frame: %+v", typingOn)
	}

	typingOff := readFrame(t, socket)
	if typingOff.Type != "typing" || typingOff.Typing {
		t.Fatalf("unexpected typing frame: %+v", typingOff)
	}

	reply := readFrame(t, socket)
	if reply.Type != "message" || reply.Sender != "assistant" || reply.Intent != "greeting" {
		t.Fatalf("unexpected reply frame: %+v", reply)
	}
	if reply.SessionID != session.SessionID {
		t.Fatalf("reply landed in session %q, want %q", reply.SessionID, session.SessionID)
	}
}

func TestEmptyMessageRejectedOverSocket(t *testing.T) {
	socket, chatSvc := dialTestSocket(t)

	if err := socket.WriteJSON(Frame{Type: "message", Content: "  "}); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	frame := readFrame(t, socket)
	if frame.Type != "error" {
		t.Fatalf("expected error frame, got %+v", frame)
	}
	if sessions := chatSvc.ListSessions(context.Background()); len(sessions) != 0 {
		t.Fatalf("whitespace must not create sessions, got %d", len(sessions))
	}
}

func TestUnknownFrameType(t *testing.T) {
	socket, _ := dialTestSocket(t)

	if err := socket.WriteJSON(Frame{Type: "dance"}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	frame := readFrame(t, socket)
	if frame.Type != "error" || frame.Error != "unknown frame type" {
		t.Fatalf("unexpected frame: %+v", frame)
	}
}
