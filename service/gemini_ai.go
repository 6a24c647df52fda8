package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/tieubaoca/docqa/types"
	"google.golang.org/api/option"
)

type GeminiService struct {
	client    *genai.Client
	modelName string
}

// NewGeminiService creates a Gemini client. endpoint overrides the API
// endpoint when non-empty.
func NewGeminiService(ctx context.Context, apiKey, modelName, endpoint string) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("no API key provided")
	}

	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GeminiService{
		client:    client,
		modelName: modelName,
	}, nil
}

func (s *GeminiService) Name() string {
	return "gemini"
}

func (s *GeminiService) Complete(ctx context.Context, req types.ChatRequest) (string, error) {
	// Configure a model per call; GenerativeModel carries mutable settings
	model := s.client.GenerativeModel(s.modelName)
	model.SetTemperature(req.Temperature)
	model.SetTopP(req.TopP)
	model.SetMaxOutputTokens(int32(req.MaxTokens))

	system, prompt := geminiPrompt(req.Messages)
	if len(prompt) == 0 {
		return "", errors.New("no user message to send")
	}
	model.SystemInstruction = system

	resp, err := model.GenerateContent(ctx, prompt...)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no response generated")
	}

	var content strings.Builder
	if cand := resp.Candidates[0]; cand.Content != nil {
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				content.WriteString(string(text))
			}
		}
	}
	return content.String(), nil
}

// geminiPrompt splits messages into a system instruction, nil when there
// are no system messages, and the parts sent as the prompt.
func geminiPrompt(messages []types.Message) (*genai.Content, []genai.Part) {
	var system []string
	var prompt []genai.Part
	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		prompt = append(prompt, genai.Text(msg.Content))
	}
	if len(system) == 0 {
		return nil, prompt
	}
	return &genai.Content{
		Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))},
	}, prompt
}

func (s *GeminiService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
