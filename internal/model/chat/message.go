package chat

import "time"

// Sender tags for transcript entries.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// TimestampLayout is the clock form shown next to each bubble.
const TimestampLayout = "3:04 PM"

// Message is a single immutable transcript entry.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Intent    string    `json:"intent,omitempty"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
}
