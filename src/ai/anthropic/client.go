package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stake-plus/mmr-scorecard/src/ai/core"
	"github.com/stake-plus/mmr-scorecard/src/webclient"
)

const (
	anthropicEndpoint = "https://api.anthropic.com/v1/messages"
	apiVersion        = "2023-06-01"
	defaultMaxTokens  = 1024
)

func init() {
	core.RegisterProvider("anthropic", NewClient, "claude")
}

type client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	policy     webclient.Policy
	defaults   core.Options
}

// NewClient constructs an Anthropic-backed implementation of core.Client.
func NewClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.ClaudeKey == "" {
		return nil, fmt.Errorf("anthropic: API key not configured")
	}

	c := &client{
		apiKey:     cfg.ClaudeKey,
		endpoint:   valueOrDefault(cfg.BaseURL, anthropicEndpoint),
		httpClient: cfg.HTTPClient,
		policy:     cfg.Policy,
		defaults: core.Options{
			Model:               core.ResolveModelName("anthropic", cfg.Model),
			Temperature:         orFloat(cfg.Temperature, 0.2),
			MaxCompletionTokens: orInt(cfg.MaxCompletionTokens, defaultMaxTokens),
			SystemPrompt:        valueOrDefault(cfg.SystemPrompt, core.DefaultSystemPrompt),
		},
	}
	if c.httpClient == nil {
		c.httpClient = webclient.NewDefault(60 * time.Second)
	}
	if c.policy.Attempts == 0 {
		c.policy = webclient.Policy{Attempts: 3, InitialDelay: 2 * time.Second}
	}
	return c, nil
}

func (c *client) Model() string { return c.defaults.Model }

func (c *client) AnswerQuestion(ctx context.Context, content string, question string, opts core.Options) (string, error) {
	userPrompt := fmt.Sprintf("Reference material:\n%s\n\nQuestion: %s\n\nProvide a direct, concise answer grounded in the reference material.", content, question)
	return c.invoke(ctx, core.Merge(c.defaults, opts), userPrompt, nil)
}

func (c *client) Respond(ctx context.Context, input string, history []core.Message, opts core.Options) (string, error) {
	return c.invoke(ctx, core.Merge(c.defaults, opts), input, history)
}

func (c *client) invoke(ctx context.Context, opts core.Options, input string, history []core.Message) (string, error) {
	maxTokens := opts.MaxCompletionTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	messages := make([]anthropicMessage, 0, len(history)+1)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := core.RoleUser
		if m.Role == core.RoleAssistant {
			role = core.RoleAssistant
		}
		// The API requires alternating roles; fold consecutive turns together.
		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content[0].Text += "\n\n" + m.Content
			continue
		}
		messages = append(messages, textMessage(role, m.Content))
	}
	if n := len(messages); n > 0 && messages[n-1].Role == core.RoleUser {
		messages[n-1].Content[0].Text += "\n\n" + input
	} else {
		messages = append(messages, textMessage(core.RoleUser, input))
	}
	// The first turn must come from the user.
	if messages[0].Role != core.RoleUser {
		messages = messages[1:]
	}

	body := anthropicRequest{
		Model:       opts.Model,
		System:      opts.SystemPrompt,
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
		Messages:    messages,
	}

	respBody, err := c.post(ctx, body)
	if err != nil {
		return "", err
	}

	text := extractText(respBody.Content)
	if text == "" {
		return "", fmt.Errorf("anthropic: empty response")
	}
	return text, nil
}

func (c *client) post(ctx context.Context, payload anthropicRequest) (*anthropicResponse, error) {
	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode request: %w", err)
	}
	status, body, err := webclient.DoWithRetry(ctx, c.policy, func(ctx context.Context) (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", c.apiKey)
		req.Header.Set("anthropic-version", apiVersion)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		return resp.StatusCode, b, err
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("anthropic API error: status %d: %s", status, truncate(string(body), 200))
	}

	var result anthropicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("anthropic: decode response: %w", err)
	}
	return &result, nil
}

func textMessage(role, text string) anthropicMessage {
	return anthropicMessage{Role: role, Content: []anthropicContent{{Type: "text", Text: text}}}
}

func extractText(chunks []anthropicContent) string {
	var b strings.Builder
	for _, chunk := range chunks {
		if chunk.Text != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(chunk.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func valueOrDefault(val, def string) string {
	if strings.TrimSpace(val) != "" {
		return val
	}
	return def
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}
