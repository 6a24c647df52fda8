package service

import (
	"context"
	"fmt"

	"github.com/tieubaoca/docqa/config"
	"github.com/tieubaoca/docqa/types"
)

// ChatModel performs one non-streaming chat completion
type ChatModel interface {
	Complete(ctx context.Context, req types.ChatRequest) (string, error)
	Name() string
}

// NewChatModel builds the provider selected by cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.LLMConfig) (ChatModel, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIService(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	case config.ProviderGemini:
		return NewGeminiService(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL)
	case config.ProviderOllama:
		return NewOllamaService(cfg.BaseURL, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
