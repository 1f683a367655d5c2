package canned

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/mmr-scorecard/src/ai/core"
	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

func catalog() *dataset.Catalog {
	return dataset.NewCatalog(mmr.DefaultEngine(), dataset.Default().Profiles)
}

func TestRespondTopics(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	cases := map[string]string{
		"What happened at Al-Ahli hospital?":       "# Al-Ahli Hospital Incident Analysis",
		"Who bombed the school?":                   "# Understanding Conflict Attribution",
		"Can Palestine and Israel share a future?": "# **Palestine-Israel Solidarity Framework**",
		"What is intersectional organising?":       "# **Intersectional Solidarity Principles**",
	}
	for prompt, heading := range cases {
		got, err := c.Respond(ctx, prompt, nil, core.Options{})
		require.NoError(t, err)
		assert.Contains(t, got, heading, prompt)
	}
}

func TestRespondDefaultEchoesPrompt(t *testing.T) {
	got, err := New(nil).Respond(context.Background(), "Tell me about WATER rights", nil, core.Options{})
	require.NoError(t, err)
	assert.Contains(t, got, `# **Response to: "Tell me about WATER rights..."**`)
	assert.Contains(t, got, "MMR Analysis Framework")
}

func TestRespondEmpty(t *testing.T) {
	_, err := New(nil).Respond(context.Background(), "   ", nil, core.Options{})
	assert.Error(t, err)
}

func TestRespondProfile(t *testing.T) {
	c := New(catalog())
	ctx := context.Background()

	got, err := c.Respond(ctx, "How does Yair Lapid score?", nil, core.Options{})
	require.NoError(t, err)
	assert.Contains(t, got, "MMR Scorecard: Yair Lapid")
	assert.Contains(t, got, mmr.EmergingPositive)
	assert.Contains(t, got, "(priority)")

	got, err = c.Respond(ctx, "what about sinwar", nil, core.Options{})
	require.NoError(t, err)
	assert.Contains(t, got, "Yahya Sinwar")
	assert.Contains(t, got, mmr.SystemicFail)

	// "Yair" alone names two profiles and is not a surname.
	got, err = c.Respond(ctx, "tell me about yair", nil, core.Options{})
	require.NoError(t, err)
	assert.NotContains(t, got, "MMR Scorecard")
}

func TestRegisteredProvider(t *testing.T) {
	cl, err := core.NewClient(core.FactoryConfig{Provider: "offline", Catalog: catalog()})
	require.NoError(t, err)
	assert.Equal(t, Model, cl.Model())

	cl, err = core.NewClient(core.FactoryConfig{})
	require.NoError(t, err)
	assert.Equal(t, Model, cl.Model())
}

func TestAnswerQuestionAppendsReference(t *testing.T) {
	got, err := New(nil).AnswerQuestion(context.Background(), "some notes", "solidarity?", core.Options{})
	require.NoError(t, err)
	assert.Contains(t, got, "Reference Material")
	assert.Contains(t, got, "some notes")
}

func TestRespondCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(nil).Respond(ctx, "hi", nil, core.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
