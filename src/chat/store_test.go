package chat

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConversation(at time.Time) *Conversation {
	return &Conversation{
		Messages:     []Message{{ID: 1, Type: TypeUser, Content: "hi", Timestamp: at.UTC()}},
		SessionToken: "tok",
		Timestamp:    at.UnixMilli(),
	}
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) (Store, func(time.Time)){
		"memory": func(t *testing.T) (Store, func(time.Time)) {
			s := NewMemoryStore()
			return s, func(now time.Time) { s.now = func() time.Time { return now } }
		},
		"file": func(t *testing.T) (Store, func(time.Time)) {
			s := NewFileStore(filepath.Join(t.TempDir(), "conv"))
			return s, func(now time.Time) { s.now = func() time.Time { return now } }
		},
	}
	for name, mk := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store, setNow := mk(t)
			saved := time.Now().Add(-time.Hour)

			_, err := store.Load(ctx, StorageKey)
			assert.ErrorIs(t, err, ErrNoConversation)

			require.NoError(t, store.Save(ctx, StorageKey, sampleConversation(saved)))
			got, err := store.Load(ctx, StorageKey)
			require.NoError(t, err)
			assert.Equal(t, "tok", got.SessionToken)
			require.Len(t, got.Messages, 1)
			assert.Equal(t, "hi", got.Messages[0].Content)

			setNow(saved.Add(ConversationTTL + time.Minute))
			_, err = store.Load(ctx, StorageKey)
			assert.ErrorIs(t, err, ErrNoConversation)

			require.NoError(t, store.Delete(ctx, StorageKey))
			require.NoError(t, store.Delete(ctx, "never-saved"))
		})
	}
}

func TestFileStoreKeysStayInDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, s.Save(ctx, "../escape/me", sampleConversation(time.Now())))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, hex.EncodeToString([]byte("../escape/me"))+".json", entries[0].Name())

	a := sampleConversation(time.Now())
	a.SessionToken = "dot"
	b := sampleConversation(time.Now())
	b.SessionToken = "underscore"
	require.NoError(t, s.Save(ctx, "a.b", a))
	require.NoError(t, s.Save(ctx, "a_b", b))

	got, err := s.Load(ctx, "a.b")
	require.NoError(t, err)
	assert.Equal(t, "dot", got.SessionToken)
	got, err = s.Load(ctx, "a_b")
	require.NoError(t, err)
	assert.Equal(t, "underscore", got.SessionToken)
}

func TestStoreAppend(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"file":   NewFileStore(filepath.Join(t.TempDir(), "conv")),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			conv, err := store.Append(ctx, "k", 3,
				Message{ID: 5, Type: TypeUser, Content: "q1"},
				Message{ID: 5, Type: TypeAssistant, Content: "a1"},
			)
			require.NoError(t, err)
			require.Len(t, conv.Messages, 2)
			assert.Equal(t, int64(6), conv.Messages[1].ID)
			assert.NotZero(t, conv.Timestamp)

			conv, err = store.Append(ctx, "k", 3,
				Message{ID: 1, Type: TypeUser, Content: "q2"},
				Message{ID: 2, Type: TypeAssistant, Content: "a2"},
			)
			require.NoError(t, err)
			require.Len(t, conv.Messages, 3)
			assert.Equal(t, "a1", conv.Messages[0].Content)
			assert.Equal(t, []int64{6, 7, 8}, []int64{conv.Messages[0].ID, conv.Messages[1].ID, conv.Messages[2].ID})

			loaded, err := store.Load(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, conv.Messages, loaded.Messages)
		})
	}
}

func TestFileStoreCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(dir)
	require.NoError(t, os.WriteFile(s.path(StorageKey), []byte("{"), 0o600))
	_, err := s.Load(context.Background(), StorageKey)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoConversation)
}
