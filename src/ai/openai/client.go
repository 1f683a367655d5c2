package openai

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

const chatCompletionsEndpoint = "https://api.openai.com/v1/chat/completions"

func init() {
	core.RegisterProvider("openai", newClient, "gpt")
}

type client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	policy     webclient.Policy
	defaults   core.Options
}

func newClient(cfg core.FactoryConfig) (core.Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("openai: API key not configured")
	}

	c := &client{
		apiKey:     cfg.OpenAIKey,
		endpoint:   valueOrDefault(cfg.BaseURL, chatCompletionsEndpoint),
		httpClient: cfg.HTTPClient,
		policy:     cfg.Policy,
		defaults: core.Options{
			Model:               core.ResolveModelName("openai", cfg.Model),
			Temperature:         orFloat(cfg.Temperature, 0.7),
			MaxCompletionTokens: orInt(cfg.MaxCompletionTokens, 2048),
			SystemPrompt:        valueOrDefault(cfg.SystemPrompt, core.DefaultSystemPrompt),
		},
	}
	if c.httpClient == nil {
		c.httpClient = webclient.NewDefault(120 * time.Second)
	}
	if c.policy.Attempts == 0 {
		c.policy = webclient.Policy{Attempts: 3, InitialDelay: 2 * time.Second}
	}
	return c, nil
}

func (c *client) Model() string { return c.defaults.Model }

func (c *client) AnswerQuestion(ctx context.Context, content string, question string, opts core.Options) (string, error) {
	user := fmt.Sprintf("Reference material:\n%s\n\nQuestion: %s\n\nProvide a direct, concise answer.", content, question)
	return c.complete(ctx, core.Merge(c.defaults, opts), []chatMessage{{Role: "user", Content: user}})
}

func (c *client) Respond(ctx context.Context, input string, history []core.Message, opts core.Options) (string, error) {
	msgs := make([]chatMessage, 0, len(history)+1)
	for _, m := range history {
		role := "user"
		if m.Role == core.RoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, chatMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: input})
	return c.complete(ctx, core.Merge(c.defaults, opts), msgs)
}

func (c *client) complete(ctx context.Context, opts core.Options, msgs []chatMessage) (string, error) {
	if opts.SystemPrompt != "" {
		msgs = append([]chatMessage{{Role: "system", Content: opts.SystemPrompt}}, msgs...)
	}
	reqBody := chatRequest{
		Model:               opts.Model,
		Messages:            msgs,
		Temperature:         opts.Temperature,
		MaxCompletionTokens: opts.MaxCompletionTokens,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("openai: encode request: %w", err)
	}
	status, body, err := webclient.DoWithRetry(ctx, c.policy, func(ctx context.Context) (int, []byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		return resp.StatusCode, b, err
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("openai API error: status %d", status)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("openai: decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("openai: no choices in response")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         float64       `json:"temperature"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
}

func valueOrDefault(val, def string) string {
	if val != "" {
		return val
	}
	return def
}

func orInt(v, d int) int {
	if v != 0 {
		return v
	}
	return d
}

func orFloat(v, d float64) float64 {
	if v != 0 {
		return v
	}
	return d
}
