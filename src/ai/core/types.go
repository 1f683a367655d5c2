package core

import "context"

// Message represents a single chat turn.
type Message struct {
	Role    string
	Content string
}

// Roles used in Message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Options controls model behavior; fields are optional per provider.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int
	SystemPrompt        string
}

// Merge overlays the non-zero fields of opts on defaults.
func Merge(defaults, opts Options) Options {
	out := defaults
	if opts.Model != "" {
		out.Model = opts.Model
	}
	if opts.Temperature != 0 {
		out.Temperature = opts.Temperature
	}
	if opts.MaxCompletionTokens != 0 {
		out.MaxCompletionTokens = opts.MaxCompletionTokens
	}
	if opts.SystemPrompt != "" {
		out.SystemPrompt = opts.SystemPrompt
	}
	return out
}

// Client is a provider-agnostic interface for the answers the query endpoint
// needs.
type Client interface {
	// AnswerQuestion answers question grounded in content.
	AnswerQuestion(ctx context.Context, content string, question string, opts Options) (string, error)
	// Respond continues a conversation. history is oldest first and excludes input.
	Respond(ctx context.Context, input string, history []Message, opts Options) (string, error)
	// Model names the model that produced the answers.
	Model() string
}
