package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/mmr-scorecard/src/ai/core"
	"github.com/stake-plus/mmr-scorecard/src/webclient"
)

func TestRespond(t *testing.T) {
	var got chatRequest
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		assert.Equal(t, "Bearer sk", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  answer "}}]}`))
	}))
	defer srv.Close()

	c, err := core.NewClient(core.FactoryConfig{
		Provider:  "openai",
		OpenAIKey: "sk",
		BaseURL:   srv.URL,
		Model:     "gpt-test",
		Policy:    webclient.Policy{Attempts: 2, InitialDelay: time.Millisecond},
	})
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", c.Model())

	out, err := c.Respond(context.Background(), "now", []core.Message{{Role: core.RoleUser, Content: "before"}, {Role: core.RoleAssistant, Content: "ok"}}, core.Options{})
	require.NoError(t, err)
	assert.Equal(t, "answer", out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "now", got.Messages[3].Content)
	assert.Equal(t, "gpt-test", got.Model)
}

func TestNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := newClient(core.FactoryConfig{OpenAIKey: "sk", BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.AnswerQuestion(context.Background(), "x", "y", core.Options{})
	assert.ErrorContains(t, err, "no choices")
}

func TestMissingKey(t *testing.T) {
	_, err := newClient(core.FactoryConfig{})
	assert.Error(t, err)
}
