package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

type stubClient struct{ model string }

func (s stubClient) AnswerQuestion(context.Context, string, string, Options) (string, error) {
	return "", nil
}
func (s stubClient) Respond(context.Context, string, []Message, Options) (string, error) {
	return "", nil
}
func (s stubClient) Model() string { return s.model }

func TestRegistry(t *testing.T) {
	RegisterProvider("stub-test", func(cfg FactoryConfig) (Client, error) {
		return stubClient{model: ResolveModelName("stub-test", cfg.Model)}, nil
	}, "Stub-Alias")

	c, err := NewClient(FactoryConfig{Provider: "STUB-ALIAS", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "m", c.Model())

	c, err = NewClient(FactoryConfig{Provider: "stub-test"})
	require.NoError(t, err)
	assert.Equal(t, "unknown", c.Model())

	assert.Contains(t, Providers(), "stub-alias")

	_, err = NewClient(FactoryConfig{Provider: "nope"})
	assert.ErrorContains(t, err, `"nope" not registered`)
}

func TestMerge(t *testing.T) {
	def := Options{Model: "a", Temperature: 0.2, MaxCompletionTokens: 10, SystemPrompt: "sys"}
	assert.Equal(t, def, Merge(def, Options{}))
	got := Merge(def, Options{Model: "b", MaxCompletionTokens: 99})
	assert.Equal(t, Options{Model: "b", Temperature: 0.2, MaxCompletionTokens: 99, SystemPrompt: "sys"}, got)
}

func TestResolveModelName(t *testing.T) {
	assert.Equal(t, "gpt-4o", ResolveModelName("OpenAI", ""))
	assert.Equal(t, "custom", ResolveModelName("openai", " custom "))
}

func TestGrounding(t *testing.T) {
	c := dataset.NewCatalog(mmr.DefaultEngine(), dataset.Default().Profiles)
	e, err := c.Get("benny-gantz")
	require.NoError(t, err)
	g := Grounding(e)
	assert.Contains(t, g, "Profile: Benny Gantz (Israeli Politicians")
	assert.Contains(t, g, "Outcome: Partial Indicators (Partial)")
	assert.Contains(t, g, "- Humanize Both Peoples: Partial")
}
