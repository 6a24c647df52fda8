package types

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single role-tagged message sent to a chat provider
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one non-streaming completion call
type ChatRequest struct {
	Messages    []Message
	Temperature float32
	TopP        float32
	MaxTokens   int
}
