package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tieubaoca/docqa/apperror"
	"github.com/tieubaoca/docqa/config"
	"github.com/tieubaoca/docqa/types"
	"github.com/tieubaoca/docqa/utils"
	"golang.org/x/sync/errgroup"
)

const (
	// NoDocumentAnswer is returned when there is no document text to answer from
	NoDocumentAnswer = "No document loaded to provide context."
	// NotRelevantAnswer is what the model is told to reply for unrelated questions
	NotRelevantAnswer = "Not relevant to the document"

	previewLimit = 500
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// SystemPrompt builds the system message embedding the whole document.
func SystemPrompt(documentText string) string {
	return fmt.Sprintf("You are a helpful assistant. If the user's question is not relevant to this document:\n\n%s\n\n"+
		"Say '%s' without any explanation. Use this document as context.", documentText, NotRelevantAnswer)
}

// QAService answers questions about a document through a ChatModel
type QAService struct {
	model       ChatModel
	llm         config.LLMConfig
	concurrency int
	failureMode string
	preview     bool
}

func NewQAService(model ChatModel, llm config.LLMConfig, qa config.QAConfig) *QAService {
	concurrency := qa.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	failureMode := qa.FailureMode
	if failureMode == "" {
		failureMode = config.FailureModeAbort
	}
	return &QAService{
		model:       model,
		llm:         llm,
		concurrency: concurrency,
		failureMode: failureMode,
		preview:     qa.DebugPreview,
	}
}

// Answer asks one question against doc. With no document text it returns
// NoDocumentAnswer without contacting the provider.
func (s *QAService) Answer(ctx context.Context, doc types.DocumentContext, question string) (string, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return NoDocumentAnswer, nil
	}

	if s.llm.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.llm.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.model.Complete(ctx, types.ChatRequest{
		Messages: []types.Message{
			{Role: types.RoleSystem, Content: SystemPrompt(doc.Text)},
			{Role: types.RoleUser, Content: question},
		},
		Temperature: s.llm.Temperature,
		TopP:        s.llm.TopP,
		MaxTokens:   s.llm.MaxTokens,
	})
	if err != nil {
		return "", apperror.New(apperror.UpstreamFailed, s.model.Name()+" completion failed", err)
	}
	utils.LoggerFrom(ctx).Debug("question answered", "provider", s.model.Name(), "latency", time.Since(start))

	answer := FormatAnswer(raw)
	if s.preview {
		answer += "\n\n[Document preview]\n" + truncateRunes(doc.Text, previewLimit)
	}
	return answer, nil
}

// AnswerAll answers questions in input order. In abort mode the first
// failure fails the batch; in partial mode failures are reported per answer.
func (s *QAService) AnswerAll(ctx context.Context, doc types.DocumentContext, questions []string) ([]types.Answer, error) {
	answers := make([]types.Answer, len(questions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, question := range questions {
		answers[i].Question = question
		g.Go(func() error {
			answer, err := s.Answer(gctx, doc, question)
			if err != nil {
				if s.failureMode == config.FailureModePartial && ctx.Err() == nil {
					utils.LoggerFrom(ctx).Warn("question failed", "index", i, "error", err)
					answers[i].Error = apperror.Detail(err)
					return nil
				}
				return fmt.Errorf("question %d: %w", i+1, err)
			}
			answers[i].Answer = answer
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}

// FormatAnswer strips emphasis asterisks and <think> reasoning blocks from
// a raw model reply.
func FormatAnswer(raw string) string {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "*", "")
	return strings.TrimSpace(thinkBlock.ReplaceAllString(cleaned, ""))
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
