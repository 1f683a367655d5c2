// Package canned answers queries offline from a fixed set of topic briefs and
// the profile catalog. It is the default provider when no API key is set.
package canned

import (
	"context"
	"embed"
	"fmt"
	"strings"
	"unicode"

	"github.com/stake-plus/mmr-scorecard/src/ai/core"
	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

// Model is the name reported for canned answers.
const Model = "MMR-Solidarity-Enhanced-v1.1"

//go:embed topics/*.md
var topicFS embed.FS

type topic struct {
	file string
	// match reports whether the lower-cased prompt is about this topic.
	match func(p string) bool
}

var topics = []topic{
	{"hospital.md", func(p string) bool { return strings.Contains(p, "al ahli") || strings.Contains(p, "al-ahli") }},
	{"attribution.md", func(p string) bool { return strings.Contains(p, "who bombed") || strings.Contains(p, "bombing") }},
	{"framework.md", func(p string) bool { return strings.Contains(p, "palestine") && strings.Contains(p, "israel") }},
	{"solidarity.md", func(p string) bool { return strings.Contains(p, "solidarity") || strings.Contains(p, "intersectional") }},
}

func init() {
	core.RegisterProvider("canned", func(cfg core.FactoryConfig) (core.Client, error) {
		return New(cfg.Catalog), nil
	}, "offline")
}

// Client is the offline responder.
type Client struct {
	catalog *dataset.Catalog
}

// New returns a responder. catalog may be nil, which disables profile answers.
func New(catalog *dataset.Catalog) *Client {
	return &Client{catalog: catalog}
}

func (c *Client) Model() string { return Model }

func (c *Client) AnswerQuestion(ctx context.Context, content string, question string, _ core.Options) (string, error) {
	answer, err := c.Respond(ctx, question, nil, core.Options{})
	if err != nil || strings.TrimSpace(content) == "" {
		return answer, err
	}
	return answer + "\n\n## **Reference Material**\n" + content, nil
}

func (c *Client) Respond(ctx context.Context, input string, _ []core.Message, _ core.Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	raw := strings.TrimSpace(input)
	prompt := strings.ToLower(raw)
	if prompt == "" {
		return "", fmt.Errorf("canned: empty prompt")
	}
	if e, ok := c.profileFor(prompt); ok {
		return Scorecard(e), nil
	}
	for _, t := range topics {
		if t.match(prompt) {
			return readTopic(t.file), nil
		}
	}
	return fmt.Sprintf(readTopic("default.md"), truncateRunes(raw, 50)), nil
}

// profileFor finds the profile a prompt names, by full name or by a surname
// that belongs to exactly one profile.
func (c *Client) profileFor(prompt string) (dataset.Entry, bool) {
	if c.catalog == nil {
		return dataset.Entry{}, false
	}
	entries := c.catalog.List(dataset.Filter{})
	for _, e := range entries {
		if strings.Contains(prompt, strings.ToLower(e.Profile.Name)) {
			return e, true
		}
	}

	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(prompt, notWordRune) {
		words[w] = true
	}
	var hit dataset.Entry
	hits := 0
	for _, e := range entries {
		parts := strings.FieldsFunc(strings.ToLower(e.Profile.Name), notWordRune)
		if len(parts) < 2 {
			continue
		}
		if last := parts[len(parts)-1]; len(last) >= 4 && words[last] {
			hit = e
			hits++
		}
	}
	return hit, hits == 1
}

// Scorecard renders a catalog entry as a Markdown answer.
func Scorecard(e dataset.Entry) string {
	ev := e.Evaluation
	var b strings.Builder
	fmt.Fprintf(&b, "# **MMR Scorecard: %s**\n\n", e.Profile.Name)
	if e.Profile.Role != "" {
		fmt.Fprintf(&b, "*%s* · %s\n\n", e.Profile.Role, e.Profile.Category)
	} else {
		fmt.Fprintf(&b, "*%s*\n\n", e.Profile.Category)
	}
	fmt.Fprintf(&b, "## **Overall: %s %s**\n", mmr.Icon(ev.Outcome), ev.Outcome)
	fmt.Fprintf(&b, "Rollup category: **%s**. %s.\n\n", ev.Category, capitalize(ev.Reason))
	b.WriteString("## **Pillars**\n")
	for _, p := range ev.Pillars {
		assessment := p.Assessment
		if p.Missing {
			assessment = "Not assessed"
		}
		marker := ""
		if p.Priority {
			marker = " (priority)"
		}
		fmt.Fprintf(&b, "- **%s**%s: %s\n", p.Pillar, marker, assessment)
	}
	if e.Profile.Reflection != "" {
		fmt.Fprintf(&b, "\n*%s*\n", e.Profile.Reflection)
	}
	return b.String()
}

func readTopic(name string) string {
	data, err := topicFS.ReadFile("topics/" + name)
	if err != nil {
		panic(err)
	}
	return strings.TrimSpace(string(data))
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
