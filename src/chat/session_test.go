package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	reqs  []QueryRequest
	reply func(n int, req QueryRequest) (*QueryResponse, error)
}

func (f *fakeQuerier) Query(_ context.Context, req QueryRequest) (*QueryResponse, error) {
	f.reqs = append(f.reqs, req)
	return f.reply(len(f.reqs), req)
}

func echo() *fakeQuerier {
	return &fakeQuerier{reply: func(n int, req QueryRequest) (*QueryResponse, error) {
		return &QueryResponse{Response: fmt.Sprintf("answer %d", n)}, nil
	}}
}

func TestSessionSendHistoryWindow(t *testing.T) {
	ctx := context.Background()
	q := echo()
	s, err := NewSession(ctx, q, nil, StorageKey)
	require.NoError(t, err)
	require.NotEmpty(t, s.Token())

	for i := 0; i < 4; i++ {
		reply, err := s.Send(ctx, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
		assert.Equal(t, TypeAssistant, reply.Type)
		assert.Equal(t, DefaultModel, reply.Model)
	}

	assert.Empty(t, q.reqs[0].ConversationHistory)
	assert.Len(t, q.reqs[1].ConversationHistory, 2)
	last := q.reqs[3]
	require.Len(t, last.ConversationHistory, 5)
	assert.Equal(t, "answer 1", last.ConversationHistory[0].Content)
	assert.Equal(t, "answer 3", last.ConversationHistory[4].Content)
	assert.Equal(t, s.Token(), last.SessionToken)
	assert.Len(t, s.Messages(), 8)
}

func TestSessionSendFailureAppendsError(t *testing.T) {
	ctx := context.Background()
	q := &fakeQuerier{reply: func(int, QueryRequest) (*QueryResponse, error) {
		return nil, &StatusError{Code: 503}
	}}
	s, err := NewSession(ctx, q, nil, StorageKey)
	require.NoError(t, err)

	reply, err := s.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, TypeError, reply.Type)
	assert.Equal(t, "Unable to connect to MMR model: HTTP error! status: 503", reply.Content)
	assert.Len(t, s.Messages(), 2)
}

func TestSessionSendEmpty(t *testing.T) {
	s, err := NewSession(context.Background(), echo(), nil, StorageKey)
	require.NoError(t, err)
	_, err = s.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	assert.Empty(t, s.Messages())
}

func TestSessionContinue(t *testing.T) {
	ctx := context.Background()
	q := echo()
	s, err := NewSession(ctx, q, nil, StorageKey)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.Send(ctx, "q")
		require.NoError(t, err)
	}
	target := s.Messages()[1]

	updated, err := s.Continue(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "answer 1\n\n---\n\nanswer 4", updated.Content)

	req := q.reqs[3]
	assert.Equal(t, ContinuePrompt, req.Prompt)
	assert.Equal(t, "answer 1", req.ContinueFrom)
	assert.Len(t, req.ConversationHistory, 3)
	assert.Equal(t, updated.Content, s.Messages()[1].Content)
	assert.Len(t, s.Messages(), 6)

	_, err = s.Continue(ctx, -1)
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestSessionContinueFailureLeavesHistory(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	q := &fakeQuerier{reply: func(n int, req QueryRequest) (*QueryResponse, error) {
		if n > 1 {
			return nil, boom
		}
		return &QueryResponse{Response: "first"}, nil
	}}
	s, err := NewSession(ctx, q, nil, StorageKey)
	require.NoError(t, err)
	reply, err := s.Send(ctx, "q")
	require.NoError(t, err)

	_, err = s.Continue(ctx, reply.ID)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "first", s.Messages()[1].Content)
}

func TestSessionPersistence(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, err := NewSession(ctx, echo(), store, StorageKey)
	require.NoError(t, err)
	_, err = s.Send(ctx, "remember me")
	require.NoError(t, err)

	restored, err := NewSession(ctx, echo(), store, StorageKey)
	require.NoError(t, err)
	assert.Equal(t, s.Token(), restored.Token())
	assert.Equal(t, s.Messages(), restored.Messages())

	reply, err := restored.Send(ctx, "again")
	require.NoError(t, err)
	assert.Greater(t, reply.ID, s.Messages()[1].ID)

	require.NoError(t, restored.Clear(ctx))
	assert.Empty(t, restored.Messages())
	_, err = store.Load(ctx, StorageKey)
	assert.ErrorIs(t, err, ErrNoConversation)
}

func TestSessionUniqueIDs(t *testing.T) {
	ctx := context.Background()
	s, err := NewSession(ctx, echo(), nil, StorageKey)
	require.NoError(t, err)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	_, err = s.Send(ctx, "a")
	require.NoError(t, err)
	msgs := s.Messages()
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
}
