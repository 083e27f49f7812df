package chat

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nomada-travel/nomada/backend/internal/model/chat"
)

var (
	ErrEmptyMessage    = errors.New("message is empty")
	ErrInvalidSender   = errors.New("unknown message sender")
	ErrSessionNotFound = errors.New("session not found")
)

// Service owns conversation state: every session ever created, each with
// its transcript, plus the single active-session pointer. Sessions are
// never deleted.
type Service struct {
	mu       sync.RWMutex
	order    []string // session ids, newest first
	sessions map[string]chat.Session
	messages map[string][]chat.Message
	activeID string
}

// NewService bootstraps the in-memory session store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]chat.Session),
		messages: make(map[string][]chat.Message),
	}
}

// CreateSession provisions a session titled after its first message,
// prepends it to the session list and makes it the active one.
func (s *Service) CreateSession(_ context.Context, firstMessage string) (chat.Session, error) {
	if strings.TrimSpace(firstMessage) == "" {
		return chat.Session{}, ErrEmptyMessage
	}

	now := time.Now()

	s.mu.Lock()
	nano := now.UnixNano()
	id := strconv.FormatInt(nano, 10)
	for _, taken := s.sessions[id]; taken; _, taken = s.sessions[id] {
		nano++
		id = strconv.FormatInt(nano, 10)
	}

	session := chat.Session{
		ID:        id,
		Title:     chat.TitleFromMessage(firstMessage),
		CreatedAt: now.UTC(),
	}
	s.sessions[session.ID] = session
	s.messages[session.ID] = make([]chat.Message, 0, 16)
	s.order = append([]string{session.ID}, s.order...)
	s.activeID = session.ID
	s.mu.Unlock()

	return session, nil
}

// SaveMessage appends a message to its session's transcript and returns the
// stored copy with identifier and timestamps filled in. The session's
// message count tracks the transcript length.
func (s *Service) SaveMessage(_ context.Context, message chat.Message) (chat.Message, error) {
	if message.SessionID == "" {
		return chat.Message{}, ErrSessionNotFound
	}
	if message.Sender != chat.SenderUser && message.Sender != chat.SenderAssistant {
		return chat.Message{}, ErrInvalidSender
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[message.SessionID]
	if !ok {
		return chat.Message{}, ErrSessionNotFound
	}

	now := time.Now()
	message.ID = uuid.NewString()
	if message.CreatedAt.IsZero() {
		message.CreatedAt = now.UTC()
	}
	if message.Timestamp == "" {
		message.Timestamp = now.Format(chat.TimestampLayout)
	}

	s.messages[message.SessionID] = append(s.messages[message.SessionID], message)
	session.MessageCount = len(s.messages[message.SessionID])
	s.sessions[message.SessionID] = session

	return message, nil
}

// SelectSession makes the given session the active one. An unknown id
// leaves the store untouched.
func (s *Service) SelectSession(_ context.Context, sessionID string) (chat.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, false
	}
	s.activeID = sessionID
	return session, true
}

// Reset clears the active pointer. Sessions and transcripts stay put.
func (s *Service) Reset(_ context.Context) {
	s.mu.Lock()
	s.activeID = ""
	s.mu.Unlock()
}

// ActiveSession reports the currently selected session, if any.
func (s *Service) ActiveSession(_ context.Context) (chat.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.activeID == "" {
		return chat.Session{}, false
	}
	session, ok := s.sessions[s.activeID]
	return session, ok
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return chat.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// ListSessions returns every session, newest first.
func (s *Service) ListSessions(_ context.Context) []chat.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]chat.Session, 0, len(s.order))
	for _, id := range s.order {
		sessions = append(sessions, s.sessions[id])
	}
	return sessions
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	messages, ok := s.messages[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]chat.Message, len(messages))
	copy(copied, messages)
	return copied, nil
}
