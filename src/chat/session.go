package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StorageKey is the key a single-user client saves its conversation under.
const StorageKey = "mmr-conversation"

// ErrEmptyPrompt is returned by Send for blank input.
var ErrEmptyPrompt = errors.New("chat: prompt is empty")

// ErrUnknownMessage is returned by Continue for an id not in the history.
var ErrUnknownMessage = errors.New("chat: unknown message")

// Session is one conversation with the query endpoint.
type Session struct {
	mu       sync.Mutex
	token    string
	messages []Message
	lastID   int64

	q     Querier
	store Store
	key   string
	now   func() time.Time
}

// NewSession restores the conversation saved under key, or starts a fresh one
// with a new session token. store may be nil.
func NewSession(ctx context.Context, q Querier, store Store, key string) (*Session, error) {
	s := &Session{q: q, store: store, key: key, now: time.Now}
	if store != nil {
		conv, err := store.Load(ctx, key)
		switch {
		case err == nil:
			s.token = conv.SessionToken
			s.messages = conv.Messages
			for _, m := range s.messages {
				if m.ID > s.lastID {
					s.lastID = m.ID
				}
			}
		case !errors.Is(err, ErrNoConversation):
			return nil, err
		}
	}
	if s.token == "" {
		s.token = uuid.NewString()
	}
	return s, nil
}

// Token is the session token sent with every query.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Messages returns a copy of the history.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.messages...)
}

// Send appends prompt, queries with the preceding five messages as history and
// appends the reply. When the query fails, an error-type message is appended
// and returned in place of a reply; the returned error is then nil.
func (s *Session) Send(ctx context.Context, prompt string) (Message, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Message{}, ErrEmptyPrompt
	}

	s.mu.Lock()
	history := tail(s.messages, sendHistory)
	s.messages = append(s.messages, s.newMessage(TypeUser, prompt, ""))
	req := QueryRequest{Prompt: prompt, ConversationHistory: history, SessionToken: s.token}
	s.mu.Unlock()
	if err := s.save(ctx); err != nil {
		return Message{}, err
	}

	resp, err := s.q.Query(ctx, req)

	s.mu.Lock()
	var reply Message
	if err != nil {
		reply = s.newMessage(TypeError, "Unable to connect to MMR model: "+err.Error(), "")
	} else {
		model := resp.Model
		if model == "" {
			model = DefaultModel
		}
		if resp.SessionToken != "" {
			s.token = resp.SessionToken
		}
		reply = s.newMessage(TypeAssistant, resp.Response, model)
	}
	s.messages = append(s.messages, reply)
	s.mu.Unlock()

	return reply, s.save(ctx)
}

// Continue asks for a deeper continuation of message id and appends it to that
// message's content. On failure the history is left unchanged.
func (s *Session) Continue(ctx context.Context, id int64) (Message, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return Message{}, fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}
	req := QueryRequest{
		Prompt:              ContinuePrompt,
		ConversationHistory: tail(s.messages, continueHistory),
		SessionToken:        s.token,
		ContinueFrom:        s.messages[idx].Content,
	}
	s.mu.Unlock()

	resp, err := s.q.Query(ctx, req)
	if err != nil {
		return Message{}, fmt.Errorf("chat: continue: %w", err)
	}

	s.mu.Lock()
	// The history may have changed while the query was in flight.
	idx = s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return Message{}, fmt.Errorf("%w: %d", ErrUnknownMessage, id)
	}
	s.messages[idx].Content += continueSep + resp.Response
	out := s.messages[idx]
	s.mu.Unlock()

	return out, s.save(ctx)
}

// Clear drops the history and the saved conversation. The token is kept.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, s.key)
}

func (s *Session) indexOf(id int64) int {
	for i, m := range s.messages {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// newMessage must be called with s.mu held.
func (s *Session) newMessage(typ, content, model string) Message {
	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return Message{ID: id, Type: typ, Content: content, Timestamp: now.UTC(), Model: model}
}

func (s *Session) save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	s.mu.Lock()
	conv := &Conversation{
		Messages:     append([]Message(nil), s.messages...),
		SessionToken: s.token,
		Timestamp:    s.now().UnixMilli(),
	}
	s.mu.Unlock()
	if err := s.store.Save(ctx, s.key, conv); err != nil {
		return fmt.Errorf("chat: save conversation: %w", err)
	}
	return nil
}
