package turn

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nomada-travel/nomada/backend/internal/log"
	chatmodel "github.com/nomada-travel/nomada/backend/internal/model/chat"
	chatservice "github.com/nomada-travel/nomada/backend/internal/service/chat"
	"github.com/nomada-travel/nomada/backend/internal/service/responder"
)

// DefaultReplyDelay simulates assistant thinking time in demo mode.
const DefaultReplyDelay = 1200 * time.Millisecond

// defaultAgentTimeout bounds a live model call for a single turn.
const defaultAgentTimeout = 60 * time.Second

// Responder supplies the canned demo reply for a message.
type Responder interface {
	Respond(message string) responder.Reply
}

// Agent produces live replies when a chat model is configured. History is
// the transcript before the current message.
type Agent interface {
	Answer(ctx context.Context, history []chatmodel.Message, message string) (string, error)
	AnswerStream(ctx context.Context, history []chatmodel.Message, message string, onDelta func(chunk string)) (string, error)
}

// Turn is the outcome of one submitted message. Reply yields the appended
// assistant message, or closes without a value when the turn was
// invalidated by a session switch or reset before delivery.
type Turn struct {
	Session     chatmodel.Session
	UserMessage chatmodel.Message
	Created     bool
	Reply       <-chan chatmodel.Message
}

// Orchestrator runs chat turns against the session store. Every in-flight
// assistant reply holds a token tied to its session id; switching the
// active session or resetting invalidates foreign tokens, so a stale reply
// can never land in a conversation the user has moved away from.
type Orchestrator struct {
	store     *chatservice.Service
	responder Responder
	agent     Agent // nil in demo mode
	delay     time.Duration

	mu      sync.Mutex
	pending map[string]*pendingReply
}

type pendingReply struct {
	id        string
	sessionID string
	userText  string
	timer     *time.Timer
	onDelta   func(string)
	reply     chan chatmodel.Message
}

// NewOrchestrator wires the turn flow. agent may be nil, which keeps every
// reply on the deterministic canned table. A zero delay delivers canned
// replies immediately; only a negative delay falls back to the default.
func NewOrchestrator(store *chatservice.Service, resp Responder, agent Agent, delay time.Duration) *Orchestrator {
	if delay < 0 {
		delay = DefaultReplyDelay
	}
	return &Orchestrator{
		store:     store,
		responder: resp,
		agent:     agent,
		delay:     delay,
		pending:   make(map[string]*pendingReply),
	}
}

// Submit runs one chat turn: validate, ensure a target session, append the
// user message, and schedule the assistant reply. Whitespace-only input is
// rejected before any state changes.
func (o *Orchestrator) Submit(ctx context.Context, sessionID, text string) (Turn, error) {
	return o.submit(ctx, sessionID, text, nil)
}

// SubmitStream behaves like Submit and additionally forwards reply
// fragments to onDelta as they arrive from a live model. A demo-mode reply
// arrives as one whole fragment.
func (o *Orchestrator) SubmitStream(ctx context.Context, sessionID, text string, onDelta func(string)) (Turn, error) {
	return o.submit(ctx, sessionID, text, onDelta)
}

func (o *Orchestrator) submit(ctx context.Context, sessionID, text string, onDelta func(string)) (Turn, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Turn{}, chatservice.ErrEmptyMessage
	}

	session, created, err := o.ensureSession(ctx, sessionID, trimmed)
	if err != nil {
		return Turn{}, err
	}

	// The transcript before this turn is the model's conversation history.
	history, err := o.store.LoadTranscript(ctx, session.ID)
	if err != nil {
		return Turn{}, err
	}

	userMsg, err := o.store.SaveMessage(ctx, chatmodel.Message{
		SessionID: session.ID,
		Sender:    chatmodel.SenderUser,
		Content:   trimmed,
	})
	if err != nil {
		return Turn{}, err
	}

	p := &pendingReply{
		id:        uuid.NewString(),
		sessionID: session.ID,
		userText:  trimmed,
		onDelta:   onDelta,
		reply:     make(chan chatmodel.Message, 1),
	}

	o.mu.Lock()
	o.pending[p.id] = p
	o.mu.Unlock()

	if o.agent != nil {
		go o.runAgent(ctx, p, history)
	} else {
		p.timer = time.AfterFunc(o.delay, func() { o.deliverCanned(p) })
	}

	session, err = o.store.GetSession(ctx, session.ID)
	if err != nil {
		return Turn{}, err
	}

	return Turn{Session: session, UserMessage: userMsg, Created: created, Reply: p.reply}, nil
}

// ensureSession resolves the turn's target: an explicit id must exist and
// becomes active, otherwise the current active session is used, otherwise a
// fresh session is created from the first message.
func (o *Orchestrator) ensureSession(ctx context.Context, sessionID, firstMessage string) (chatmodel.Session, bool, error) {
	if sessionID != "" {
		session, err := o.store.GetSession(ctx, sessionID)
		if err != nil {
			return chatmodel.Session{}, false, err
		}
		if active, ok := o.store.ActiveSession(ctx); !ok || active.ID != session.ID {
			o.SelectSession(ctx, session.ID)
		}
		return session, false, nil
	}

	if active, ok := o.store.ActiveSession(ctx); ok {
		return active, false, nil
	}

	session, err := o.store.CreateSession(ctx, firstMessage)
	if err != nil {
		return chatmodel.Session{}, false, err
	}
	o.invalidateExcept(session.ID)
	return session, true, nil
}

// SelectSession switches the active session and invalidates pending
// replies belonging to every other session.
func (o *Orchestrator) SelectSession(ctx context.Context, sessionID string) (chatmodel.Session, bool) {
	session, ok := o.store.SelectSession(ctx, sessionID)
	if !ok {
		return chatmodel.Session{}, false
	}
	o.invalidateExcept(sessionID)
	return session, true
}

// Reset clears the active session and drops every pending reply. Stored
// sessions are untouched.
func (o *Orchestrator) Reset(ctx context.Context) {
	o.store.Reset(ctx)
	o.invalidateExcept("")
}

// invalidateExcept cancels pending replies for all sessions other than the
// given one. A cancelled turn closes its Reply channel without a value.
func (o *Orchestrator) invalidateExcept(sessionID string) {
	var dropped []*pendingReply

	o.mu.Lock()
	for id, p := range o.pending {
		if p.sessionID == sessionID {
			continue
		}
		delete(o.pending, id)
		dropped = append(dropped, p)
	}
	o.mu.Unlock()

	for _, p := range dropped {
		if p.timer != nil {
			p.timer.Stop()
		}
		close(p.reply)
		log.Debug().Str("session_id", p.sessionID).Msg("pending reply invalidated")
	}
}

// claim removes the token from the pending set. Only the goroutine that
// claims the token may finish its Reply channel.
func (o *Orchestrator) claim(p *pendingReply) bool {
	o.mu.Lock()
	_, ok := o.pending[p.id]
	if ok {
		delete(o.pending, p.id)
	}
	o.mu.Unlock()
	return ok
}

func (o *Orchestrator) deliverCanned(p *pendingReply) {
	if !o.claim(p) {
		return
	}

	reply := o.responder.Respond(p.userText)
	o.finish(p, reply.Text, string(reply.Intent))
}

func (o *Orchestrator) runAgent(ctx context.Context, p *pendingReply, history []chatmodel.Message) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultAgentTimeout)
	defer cancel()

	var (
		text string
		err  error
	)
	if p.onDelta != nil {
		text, err = o.agent.AnswerStream(callCtx, history, p.userText, p.onDelta)
	} else {
		text, err = o.agent.Answer(callCtx, history, p.userText)
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", p.sessionID).Msg("agent turn failed, serving canned reply")
		if !o.claim(p) {
			return
		}
		reply := o.responder.Respond(p.userText)
		o.finish(p, reply.Text, string(reply.Intent))
		return
	}

	if !o.claim(p) {
		return
	}
	o.finish(p, text, "")
}

func (o *Orchestrator) finish(p *pendingReply, text, intentLabel string) {
	msg, err := o.store.SaveMessage(context.Background(), chatmodel.Message{
		SessionID: p.sessionID,
		Sender:    chatmodel.SenderAssistant,
		Content:   text,
		Intent:    intentLabel,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", p.sessionID).Msg("failed to append assistant reply")
		close(p.reply)
		return
	}

	if p.onDelta != nil && o.agent == nil {
		// Demo replies have no streaming source; surface the whole text as
		// a single fragment so stream consumers behave uniformly.
		p.onDelta(msg.Content)
	}

	p.reply <- msg
	close(p.reply)
}
