package responder

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/nomada-travel/nomada/backend/internal/analysis/intent"
)

// Reply is the selector outcome for one turn.
type Reply struct {
	Intent intent.Label
	Text   string
}

// Service resolves user input to a canned reply through an ordered rule
// table. The built-in table can be replaced at runtime from a script file,
// which is how demo flows get curated without a rebuild.
type Service struct {
	mu      sync.RWMutex
	rules   []intent.Rule
	replies map[intent.Label]string
}

// NewService returns a responder loaded with the built-in table.
func NewService() *Service {
	return &Service{
		rules:   intent.Rules(),
		replies: defaultReplies(),
	}
}

// Respond maps a message to its reply. Deterministic for a given installed
// table; no external calls.
func (s *Service) Respond(message string) Reply {
	s.mu.RLock()
	rules := s.rules
	replies := s.replies
	s.mu.RUnlock()

	label := intent.ClassifyWith(rules, message)
	text, ok := replies[label]
	if !ok {
		label = intent.Default
		text = replies[intent.Default]
	}
	return Reply{Intent: label, Text: text}
}

func defaultReplies() map[intent.Label]string {
	return map[intent.Label]string{
		intent.Greeting:  "Hello! I'm Nomada, your personal travel assistant. Tell me what kind of trip you're dreaming about and I'll sketch the plan: beaches, cities, mountains, anything.",
		intent.Budget:    "Great news: amazing trips don't have to break the bank. I can find budget flights, hostels with character, and street food worth flying for. Where are you thinking of going?",
		intent.Luxury:    "Excellent taste! Think overwater villas in the Maldives, private riads in Marrakech, five-star service all the way. Tell me your dates and I'll line up the finest options.",
		intent.Adventure: "Now we're talking! Trekking in Patagonia, diving in Indonesia, paragliding over the Alps. What gets your heart racing?",
		intent.Culture:   "Wonderful choice. Local markets, family-run trattorias, festivals the guidebooks miss. Which region's culture are you curious about?",
		intent.Default:   "That sounds exciting! I can help with flights, hotels, and experiences all over the world. Tell me a destination or a vibe and we'll take it from there.",
	}
}

// Script is the on-disk override for the reply table.
type Script struct {
	Rules        []ScriptRule `json:"rules"`
	DefaultReply string       `json:"defaultReply"`
}

// ScriptRule is one ordered (keywords, reply) pair.
type ScriptRule struct {
	Intent   string   `json:"intent"`
	Keywords []string `json:"keywords"`
	Reply    string   `json:"reply"`
}

// LoadScript replaces the reply table with the script at path. The file
// must carry at least one rule and a default reply; rule order in the file
// is the matching priority.
func (s *Service) LoadScript(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read reply script: %w", err)
	}

	var script Script
	if err := json.Unmarshal(raw, &script); err != nil {
		return fmt.Errorf("parse reply script: %w", err)
	}

	rules, replies, err := script.compile()
	if err != nil {
		return fmt.Errorf("reply script %s: %w", path, err)
	}

	s.mu.Lock()
	s.rules = rules
	s.replies = replies
	s.mu.Unlock()

	return nil
}

func (sc Script) compile() ([]intent.Rule, map[intent.Label]string, error) {
	if len(sc.Rules) == 0 {
		return nil, nil, fmt.Errorf("no rules")
	}
	if sc.DefaultReply == "" {
		return nil, nil, fmt.Errorf("missing defaultReply")
	}

	rules := make([]intent.Rule, 0, len(sc.Rules))
	replies := make(map[intent.Label]string, len(sc.Rules)+1)
	for i, rule := range sc.Rules {
		if rule.Intent == "" {
			return nil, nil, fmt.Errorf("rule %d: missing intent", i)
		}
		if len(rule.Keywords) == 0 {
			return nil, nil, fmt.Errorf("rule %d (%s): no keywords", i, rule.Intent)
		}
		if rule.Reply == "" {
			return nil, nil, fmt.Errorf("rule %d (%s): empty reply", i, rule.Intent)
		}
		label := intent.Label(rule.Intent)
		rules = append(rules, intent.Rule{Label: label, Keywords: rule.Keywords})
		replies[label] = rule.Reply
	}
	replies[intent.Default] = sc.DefaultReply

	return rules, replies, nil
}
