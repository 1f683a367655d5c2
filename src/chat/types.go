package chat

import "time"

// Message types as stored in a conversation.
const (
	TypeUser      = "user"
	TypeAssistant = "assistant"
	TypeError     = "error"
)

// DefaultModel labels replies from servers that do not name their model.
const DefaultModel = "MMR-Solidarity"

const (
	sendHistory     = 5
	continueHistory = 3
	continueSep     = "\n\n---\n\n"
)

// ContinuePrompt asks the model to extend its previous answer.
const ContinuePrompt = "Please continue your previous analysis with deeper insights, additional perspectives, and more detailed examination. Expand on the key points and provide further context that would be valuable for understanding this topic more comprehensively."

// Message is one turn of a conversation.
type Message struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Model     string    `json:"model,omitempty"`
}

// QueryRequest is the body posted to the query endpoint.
type QueryRequest struct {
	Prompt              string    `json:"prompt"`
	ConversationHistory []Message `json:"conversationHistory"`
	SessionToken        string    `json:"sessionToken,omitempty"`
	ContinueFrom        string    `json:"continueFrom,omitempty"`
}

// QueryResponse is the reply from the query endpoint.
type QueryResponse struct {
	Response     string  `json:"response"`
	Model        string  `json:"model,omitempty"`
	Timestamp    float64 `json:"timestamp,omitempty"`
	SessionToken string  `json:"sessionToken,omitempty"`
}

// tail returns the last n messages of msgs as a new slice.
func tail(msgs []Message, n int) []Message {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]Message{}, msgs...)
}
