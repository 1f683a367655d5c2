package core

import (
	"fmt"
	"strings"

	"github.com/stake-plus/mmr-scorecard/src/dataset"
)

// DefaultSystemPrompt frames every provider as the MMR assistant.
const DefaultSystemPrompt = `You are the MMR (Mutual Moral Respect) assistant. Answer with intersectional, solidarity-centred reasoning. Both Palestinian and Israeli civilians deserve protection, dignity and accurate information. Judge public figures by the seven MMR pillars: reject targeting of civilians, accountability for Hamas and militant rejectionists, accountability for the Israeli right and ultra-nationalists, verified truthful sources, humanizing both peoples, rejecting eliminationism, and a vision for dignity and peace. Format answers in Markdown.`

var providerDefaultModels = map[string]string{
	"anthropic": "claude-sonnet-4-5",
	"openai":    "gpt-4o",
	"canned":    "MMR-Solidarity-Enhanced-v1.1",
}

// DefaultModelForProvider returns the baked-in default model for a provider key.
func DefaultModelForProvider(provider string) string {
	key := strings.ToLower(strings.TrimSpace(provider))
	if val, ok := providerDefaultModels[key]; ok {
		return val
	}
	return ""
}

// ResolveModelName picks the configured model if provided, otherwise the provider's default.
func ResolveModelName(provider, configuredModel string) string {
	model := strings.TrimSpace(configuredModel)
	if model != "" {
		return model
	}
	if def := DefaultModelForProvider(provider); def != "" {
		return def
	}
	return "unknown"
}

// Grounding renders a profile evaluation as plain text for a provider prompt.
func Grounding(e dataset.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Profile: %s (%s", e.Profile.Name, e.Profile.Category)
	if e.Profile.Role != "" {
		fmt.Fprintf(&b, ", %s", e.Profile.Role)
	}
	fmt.Fprintf(&b, ")\nOutcome: %s (%s)\n", e.Evaluation.Outcome, e.Evaluation.Category)
	for _, p := range e.Evaluation.Pillars {
		assessment := p.Assessment
		if p.Missing {
			assessment = "not assessed"
		}
		fmt.Fprintf(&b, "- %s: %s\n", p.Pillar, assessment)
	}
	if e.Profile.Reflection != "" {
		fmt.Fprintf(&b, "Reflection: %s\n", e.Profile.Reflection)
	}
	return b.String()
}
