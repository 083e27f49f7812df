package chat_test

import (
	"context"
	"testing"

	chatmodel "github.com/nomada-travel/nomada/backend/internal/model/chat"
	chat "github.com/nomada-travel/nomada/backend/internal/service/chat"
)

func TestCreateSessionPrependsAndActivates(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, "plan a trip to Lisbon")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	second, err := svc.CreateSession(ctx, "weekend in Kyoto")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	sessions := svc.ListSessions(ctx)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Fatalf("expected newest first, got %s then %s", sessions[0].ID, sessions[1].ID)
	}

	active, ok := svc.ActiveSession(ctx)
	if !ok || active.ID != second.ID {
		t.Fatalf("expected latest session active, got %+v ok=%v", active, ok)
	}
}

func TestCreateSessionTitle(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	cases := []struct {
		message string
		want    string
	}{
		{"short trip", "short trip"},
		{"one two three four five six", "one two three four five six"},
		{"I want to see the northern lights in Iceland", "I want to see the northern..."},
	}
	for _, tc := range cases {
		session, err := svc.CreateSession(ctx, tc.message)
		if err != nil {
			t.Fatalf("CreateSession(%q) err: %v", tc.message, err)
		}
		if session.Title != tc.want {
			t.Fatalf("title for %q: got %q want %q", tc.message, session.Title, tc.want)
		}
	}
}

func TestCreateSessionRejectsBlankMessage(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if _, err := svc.CreateSession(ctx, "   \n\t"); err != chat.ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if got := svc.ListSessions(ctx); len(got) != 0 {
		t.Fatalf("blank message must not create a session, got %d", len(got))
	}
}

func TestSaveMessageKeepsCountInSync(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "hello")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	for i, content := range []string{"hello", "hi there, traveler", "budget ideas?"} {
		sender := chatmodel.SenderUser
		if i%2 == 1 {
			sender = chatmodel.SenderAssistant
		}
		stored, err := svc.SaveMessage(ctx, chatmodel.Message{
			SessionID: session.ID,
			Sender:    sender,
			Content:   content,
		})
		if err != nil {
			t.Fatalf("SaveMessage err: %v", err)
		}
		if stored.ID == "" || stored.Timestamp == "" {
			t.Fatalf("expected id and timestamp on stored message: %+v", stored)
		}
	}

	transcript, err := svc.LoadTranscript(ctx, session.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}
	if got.MessageCount != len(transcript) {
		t.Fatalf("message count %d != transcript length %d", got.MessageCount, len(transcript))
	}
}

func TestSaveMessageRejectsUnknownSender(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "hello")
	_, err := svc.SaveMessage(ctx, chatmodel.Message{SessionID: session.ID, Sender: "system", Content: "x"})
	if err != chat.ErrInvalidSender {
		t.Fatalf("expected ErrInvalidSender, got %v", err)
	}
}

func TestSelectSessionUnknownIDIsNoOp(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "hello")

	if _, ok := svc.SelectSession(ctx, "missing"); ok {
		t.Fatal("expected unknown id to be rejected")
	}
	active, ok := svc.ActiveSession(ctx)
	if !ok || active.ID != session.ID {
		t.Fatalf("active session must be unchanged, got %+v ok=%v", active, ok)
	}
}

func TestResetClearsActiveOnly(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	svc.CreateSession(ctx, "first plan")
	svc.CreateSession(ctx, "second plan")

	svc.Reset(ctx)

	if _, ok := svc.ActiveSession(ctx); ok {
		t.Fatal("expected no active session after reset")
	}
	if got := svc.ListSessions(ctx); len(got) != 2 {
		t.Fatalf("reset must retain sessions, got %d", len(got))
	}
}

func TestSwitchingNeverTouchesOtherTranscripts(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	first, _ := svc.CreateSession(ctx, "paris on a budget")
	svc.SaveMessage(ctx, chatmodel.Message{SessionID: first.ID, Sender: chatmodel.SenderUser, Content: "paris on a budget"})

	second, _ := svc.CreateSession(ctx, "luxury maldives")
	svc.SelectSession(ctx, second.ID)
	svc.SaveMessage(ctx, chatmodel.Message{SessionID: second.ID, Sender: chatmodel.SenderUser, Content: "luxury maldives"})

	transcript, err := svc.LoadTranscript(ctx, first.ID)
	if err != nil {
		t.Fatalf("LoadTranscript err: %v", err)
	}
	if len(transcript) != 1 || transcript[0].Content != "paris on a budget" {
		t.Fatalf("first transcript mutated: %+v", transcript)
	}
}

func TestLoadTranscriptReturnsCopy(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "hello")
	svc.SaveMessage(ctx, chatmodel.Message{SessionID: session.ID, Sender: chatmodel.SenderUser, Content: "hello"})

	transcript, _ := svc.LoadTranscript(ctx, session.ID)
	transcript[0].Content = "tampered"

	fresh, _ := svc.LoadTranscript(ctx, session.ID)
	if fresh[0].Content != "hello" {
		t.Fatalf("transcript copy leaked: %q", fresh[0].Content)
	}
}
