package service

import (
	"context"
	"time"

	"github.com/tieubaoca/docqa/apperror"
	"github.com/tieubaoca/docqa/types"
	"github.com/tieubaoca/docqa/utils"
)

// Fetcher downloads a document
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Extractor turns downloaded bytes into a Document
type Extractor interface {
	Extract(ctx context.Context, data []byte, filename string) (*types.Document, error)
}

// Answerer answers a batch of questions against a document
type Answerer interface {
	AnswerAll(ctx context.Context, doc types.DocumentContext, questions []string) ([]types.Answer, error)
}

// DocumentPipeline runs one request end to end. It holds no per-request
// state and is safe for concurrent use.
type DocumentPipeline struct {
	fetcher   Fetcher
	extractor Extractor
	answerer  Answerer
}

func NewDocumentPipeline(fetcher Fetcher, extractor Extractor, answerer Answerer) *DocumentPipeline {
	return &DocumentPipeline{
		fetcher:   fetcher,
		extractor: extractor,
		answerer:  answerer,
	}
}

// Run downloads the document at req.Documents, extracts its text and answers
// every question against it.
func (p *DocumentPipeline) Run(ctx context.Context, req types.QARequest) (*types.QAResponse, error) {
	filename := utils.FilenameFromURL(req.Documents)
	if !utils.HasExtension(filename) {
		return nil, apperror.New(apperror.InvalidInput, "Cannot determine file extension from URL.", nil)
	}

	logger := utils.LoggerFrom(ctx).With("document", filename)
	ctx = utils.WithLogger(ctx, logger)

	start := time.Now()
	data, err := p.fetcher.Fetch(ctx, req.Documents)
	if err != nil {
		return nil, err
	}

	doc, err := p.extractor.Extract(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	if doc.Text == "" {
		return nil, apperror.New(apperror.EmptyContent, "Document was parsed but no text was extracted.", nil)
	}

	answers, err := p.answerer.AnswerAll(ctx, doc.Context(), req.Questions)
	if err != nil {
		return nil, err
	}

	logger.Info("request processed",
		"format", doc.Format,
		"questions", len(req.Questions),
		"elapsed", time.Since(start),
	)

	return &types.QAResponse{
		Document: filename,
		Status:   doc.Status,
		Answers:  answers,
	}, nil
}
