package responder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nomada-travel/nomada/backend/internal/analysis/intent"
)

func TestRespondCoversExactlySixReplies(t *testing.T) {
	svc := NewService()

	inputs := map[string]intent.Label{
		"hello there":            intent.Greeting,
		"what fits my budget":    intent.Budget,
		"luxury please":          intent.Luxury,
		"adventure time":         intent.Adventure,
		"culture and food":       intent.Culture,
		"plan my honeymoon trip": intent.Default,
	}

	seen := make(map[string]bool)
	for in, want := range inputs {
		reply := svc.Respond(in)
		if reply.Intent != want {
			t.Fatalf("Respond(%q) intent = %s, want %s", in, reply.Intent, want)
		}
		if reply.Text == "" {
			t.Fatalf("Respond(%q) returned empty text", in)
		}
		seen[reply.Text] = true
	}

	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct canned replies, got %d", len(seen))
	}
}

func TestRespondIsDeterministic(t *testing.T) {
	svc := NewService()

	first := svc.Respond("thrill me")
	second := svc.Respond("thrill me")
	if first != second {
		t.Fatalf("same input produced different replies: %+v vs %+v", first, second)
	}
}

func TestRespondPriorityOrder(t *testing.T) {
	svc := NewService()

	greeting := svc.Respond("hello").Text
	got := svc.Respond("hello, what about luxury")
	if got.Intent != intent.Greeting || got.Text != greeting {
		t.Fatalf("expected greeting reply to win, got %s: %q", got.Intent, got.Text)
	}
}

func TestLoadScriptReplacesTable(t *testing.T) {
	svc := NewService()

	path := filepath.Join(t.TempDir(), "replies.json")
	script := `{
		"rules": [
			{"intent": "surf", "keywords": ["wave", "surf"], "reply": "Grab a board, the swell is perfect."}
		],
		"defaultReply": "Tell me more about the trip."
	}`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	if err := svc.LoadScript(path); err != nil {
		t.Fatalf("LoadScript err: %v", err)
	}

	if got := svc.Respond("catch a wave with me"); got.Text != "Grab a board, the swell is perfect." {
		t.Fatalf("expected scripted reply, got %q", got.Text)
	}
	if got := svc.Respond("hello"); got.Text != "Tell me more about the trip." {
		t.Fatalf("scripted table must fully replace the built-in one, got %q", got.Text)
	}
}

func TestLoadScriptRejectsBrokenFileAndKeepsTable(t *testing.T) {
	svc := NewService()
	before := svc.Respond("hello")

	path := filepath.Join(t.TempDir(), "replies.json")
	if err := os.WriteFile(path, []byte(`{"rules": [], "defaultReply": "x"}`), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}

	if err := svc.LoadScript(path); err == nil {
		t.Fatal("expected error for script without rules")
	}

	if after := svc.Respond("hello"); after != before {
		t.Fatalf("failed load must keep the previous table: %+v vs %+v", after, before)
	}
}
