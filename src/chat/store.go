package chat

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ConversationTTL is how long a saved conversation stays restorable.
const ConversationTTL = 24 * time.Hour

// ErrNoConversation is returned by Load when nothing restorable is stored.
var ErrNoConversation = errors.New("chat: no saved conversation")

// Conversation is the persisted form of a session.
type Conversation struct {
	Messages     []Message `json:"messages"`
	SessionToken string    `json:"sessionToken"`
	// Timestamp is the save time in Unix milliseconds.
	Timestamp int64 `json:"timestamp"`
}

// Expired reports whether the conversation is older than ConversationTTL.
func (c *Conversation) Expired(now time.Time) bool {
	return now.Sub(time.UnixMilli(c.Timestamp)) >= ConversationTTL
}

// Append adds msgs, keeping message IDs strictly increasing, trims the
// conversation to its newest limit messages (limit <= 0 keeps all) and stamps
// it with now.
func (c *Conversation) Append(now time.Time, limit int, msgs ...Message) {
	for _, m := range msgs {
		if n := len(c.Messages); n > 0 && m.ID <= c.Messages[n-1].ID {
			m.ID = c.Messages[n-1].ID + 1
		}
		c.Messages = append(c.Messages, m)
	}
	if n := len(c.Messages); limit > 0 && n > limit {
		c.Messages = append([]Message(nil), c.Messages[n-limit:]...)
	}
	c.Timestamp = now.UnixMilli()
}

// Store persists conversations by key.
type Store interface {
	Load(ctx context.Context, key string) (*Conversation, error)
	Save(ctx context.Context, key string, conv *Conversation) error
	Delete(ctx context.Context, key string) error
	// Append atomically adds msgs to the conversation under key, starting a
	// new one when nothing restorable is stored, and returns the result.
	Append(ctx context.Context, key string, limit int, msgs ...Message) (*Conversation, error)
}

// MemoryStore keeps conversations in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	convs map[string]Conversation
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]Conversation), now: time.Now}
}

func (s *MemoryStore) Load(_ context.Context, key string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[key]
	if !ok {
		return nil, ErrNoConversation
	}
	if c.Expired(s.now()) {
		delete(s.convs, key)
		return nil, ErrNoConversation
	}
	c.Messages = append([]Message(nil), c.Messages...)
	return &c, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *conv
	c.Messages = append([]Message(nil), conv.Messages...)
	s.convs[key] = c
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, key)
	return nil
}

func (s *MemoryStore) Append(_ context.Context, key string, limit int, msgs ...Message) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	c, ok := s.convs[key]
	if !ok || c.Expired(now) {
		c = Conversation{}
	}
	c.Messages = append([]Message(nil), c.Messages...)
	c.Append(now, limit, msgs...)
	s.convs[key] = c
	out := c
	out.Messages = append([]Message(nil), c.Messages...)
	return &out, nil
}

// FileStore keeps one JSON file per key under a directory. Appends are
// serialised within the process only.
type FileStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// path hex-encodes key so distinct keys never share a file.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, hex.EncodeToString([]byte(key))+".json")
}

func (s *FileStore) Load(_ context.Context, key string) (*Conversation, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoConversation
	}
	if err != nil {
		return nil, fmt.Errorf("chat: read conversation: %w", err)
	}
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("chat: decode conversation: %w", err)
	}
	if c.Expired(s.now()) {
		return nil, ErrNoConversation
	}
	return &c, nil
}

func (s *FileStore) Save(_ context.Context, key string, conv *Conversation) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("chat: create store dir: %w", err)
	}
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("chat: encode conversation: %w", err)
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("chat: write conversation: %w", err)
	}
	return os.Rename(tmp, s.path(key))
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("chat: delete conversation: %w", err)
	}
	return nil
}

func (s *FileStore) Append(ctx context.Context, key string, limit int, msgs ...Message) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.Load(ctx, key)
	if errors.Is(err, ErrNoConversation) {
		c, err = &Conversation{}, nil
	}
	if err != nil {
		return nil, err
	}
	c.Append(s.now(), limit, msgs...)
	if err := s.Save(ctx, key, c); err != nil {
		return nil, err
	}
	return c, nil
}
