package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/stake-plus/mmr-scorecard/src/webclient"
)

// Querier sends one query and returns the model's reply.
type Querier interface {
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Endpoint   string
	HTTPClient *http.Client
	Policy     webclient.Policy
	Logger     *zap.Logger
}

// Client posts queries to an MMR query endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	policy   webclient.Policy
	log      *zap.Logger
}

// NewClient returns a client. A zero Policy means webclient.DefaultPolicy.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(cfg.Endpoint),
		http:     cfg.HTTPClient,
		policy:   cfg.Policy,
		log:      cfg.Logger,
	}
	if c.http == nil {
		c.http = webclient.NewDefault(0)
	}
	if c.policy.Attempts == 0 {
		c.policy = webclient.DefaultPolicy()
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	return c
}

// Query posts req and decodes the reply, retrying transient failures.
func (c *Client) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if c.endpoint == "" {
		return nil, fmt.Errorf("chat: no endpoint configured")
	}
	if req.ConversationHistory == nil {
		req.ConversationHistory = []Message{}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("chat: encode request: %w", err)
	}

	policy := c.policy
	prev := policy.OnAttempt
	policy.OnAttempt = func(n, status int, err error) {
		if webclient.Retryable(status, err) {
			c.log.Debug("query attempt failed", zap.Int("attempt", n), zap.Int("status", status), zap.Error(err))
		}
		if prev != nil {
			prev(n, status, err)
		}
	}

	start := time.Now()
	status, body, err := webclient.DoWithRetry(ctx, policy, func(ctx context.Context) (int, []byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if err != nil {
			return 0, nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return 0, nil, err
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		return resp.StatusCode, data, err
	})
	if err != nil {
		return nil, fmt.Errorf("chat: query: %w", err)
	}
	if status < 200 || status >= 300 {
		return nil, &StatusError{Code: status, Body: string(body)}
	}

	var out QueryResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("chat: decode response: %w", err)
	}
	c.log.Debug("query answered", zap.Duration("took", time.Since(start)), zap.String("model", out.Model))
	return &out, nil
}
