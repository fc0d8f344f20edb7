package llm

import "context"

// Role identifies the author of a chat message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn in a conversation sent to a provider
type ChatMessage struct {
	Role    Role
	Content string
}

// Request contains chat completion parameters
type Request struct {
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// Response contains the completion result
type Response struct {
	Content    string
	Model      string
	TokensUsed int
	LatencyMs  int64
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Chat runs a chat completion over the given conversation
	Chat(ctx context.Context, req Request, model string) (*Response, error)
}
