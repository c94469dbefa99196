// Package llm provides the model capability behind the conversation loop:
// given the ordered history and the tool catalog, a provider returns either
// a text answer or one or more requested function calls.
package llm

import (
	"context"
	"fmt"

	"github.com/schedulr-ai/calendar-assistant/internal/model"
	"github.com/schedulr-ai/calendar-assistant/internal/tool"
)

// GenerateRequest carries the full conversation history and tool catalog.
type GenerateRequest struct {
	Messages []model.ConversationMessage
	Tools    []tool.Descriptor
}

// GenerateResponse is one model turn: text, requested function calls, or both.
type GenerateResponse struct {
	Text          string
	FunctionCalls []model.FunctionCall
	Model         string
	TokensIn      int
	TokensOut     int
	LatencyMs     int64
}

// Client is the interface for LLM providers.
type Client interface {
	// Generate sends the history with tools attached in automatic
	// function-calling mode and returns the model's next turn.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// NewClient creates a new LLM client based on provider. An empty model
// selects the provider default.
func NewClient(ctx context.Context, provider Provider, apiKey, modelName string) (Client, error) {
	switch provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, apiKey, modelName)
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, modelName)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}
