package chat

import (
	"strings"
	"time"
)

// Session is one conversation thread. Sessions accumulate for the life of
// the store; they are never deleted, only switched away from.
type Session struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"messageCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// titleWordLimit caps how much of the opening message becomes the title.
const titleWordLimit = 6

// TitleFromMessage derives a session title from its first message: the
// opening words, with a trailing ellipsis exactly when the message runs
// past the limit.
func TitleFromMessage(text string) string {
	words := strings.Fields(text)
	if len(words) <= titleWordLimit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:titleWordLimit], " ") + "..."
}
