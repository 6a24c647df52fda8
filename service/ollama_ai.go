package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tieubaoca/docqa/types"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaService answers through a local Ollama server via langchaingo
type OllamaService struct {
	llm llms.Model
}

func NewOllamaService(baseURL, model string) (*OllamaService, error) {
	llm, err := ollama.New(ollama.WithModel(model), ollama.WithServerURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ollama: %w", err)
	}
	return &OllamaService{llm: llm}, nil
}

func (s *OllamaService) Name() string {
	return "ollama"
}

func (s *OllamaService) Complete(ctx context.Context, req types.ChatRequest) (string, error) {
	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, msg := range req.Messages {
		content = append(content, llms.TextParts(messageType(msg.Role), msg.Content))
	}

	resp, err := s.llm.GenerateContent(ctx, content,
		llms.WithTemperature(float64(req.Temperature)),
		llms.WithTopP(float64(req.TopP)),
		llms.WithMaxTokens(req.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New("no response generated")
	}
	return resp.Choices[0].Content, nil
}

func messageType(role string) llms.ChatMessageType {
	switch role {
	case types.RoleSystem:
		return llms.ChatMessageTypeSystem
	case types.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
