package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stake-plus/mmr-scorecard/src/chat"
)

const (
	conversationPrefix = "mmr:conversation:"
	// appendRetries bounds optimistic-lock retries when concurrent appends
	// race on one key.
	appendRetries = 10
)

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("data: parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("data: ping redis: %w", err)
	}
	return rdb, nil
}

// ConversationStore keeps chat conversations in Redis with a sliding TTL.
type ConversationStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewConversationStore(rdb *redis.Client) *ConversationStore {
	return &ConversationStore{rdb: rdb, ttl: chat.ConversationTTL, now: time.Now}
}

func conversationKey(sid string) string { return conversationPrefix + sid }

func (s *ConversationStore) Load(ctx context.Context, sid string) (*chat.Conversation, error) {
	return decodeConversation(s.rdb.Get(ctx, conversationKey(sid)).Bytes())
}

func decodeConversation(raw []byte, err error) (*chat.Conversation, error) {
	if errors.Is(err, redis.Nil) {
		return nil, chat.ErrNoConversation
	}
	if err != nil {
		return nil, fmt.Errorf("data: load conversation: %w", err)
	}
	var conv chat.Conversation
	if err := json.Unmarshal(raw, &conv); err != nil {
		return nil, fmt.Errorf("data: decode conversation: %w", err)
	}
	return &conv, nil
}

func (s *ConversationStore) Save(ctx context.Context, sid string, conv *chat.Conversation) error {
	raw, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("data: encode conversation: %w", err)
	}
	if err := s.rdb.Set(ctx, conversationKey(sid), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("data: save conversation: %w", err)
	}
	return nil
}

func (s *ConversationStore) Delete(ctx context.Context, sid string) error {
	if err := s.rdb.Del(ctx, conversationKey(sid)).Err(); err != nil {
		return fmt.Errorf("data: delete conversation: %w", err)
	}
	return nil
}

// Append reads, extends and rewrites the conversation under WATCH so that
// concurrent appends to one sid are applied one after another.
func (s *ConversationStore) Append(ctx context.Context, sid string, limit int, msgs ...chat.Message) (*chat.Conversation, error) {
	key := conversationKey(sid)
	var out *chat.Conversation
	txf := func(tx *redis.Tx) error {
		conv, err := decodeConversation(tx.Get(ctx, key).Bytes())
		if errors.Is(err, chat.ErrNoConversation) {
			conv, err = &chat.Conversation{}, nil
		}
		if err != nil {
			return err
		}
		conv.Append(s.now(), limit, msgs...)
		raw, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("data: encode conversation: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if err == nil {
			out = conv
		}
		return err
	}

	for i := 0; i < appendRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("data: append conversation: %w", err)
		}
		return out, nil
	}
	return nil, fmt.Errorf("data: append conversation: %w", redis.TxFailedErr)
}
