package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tieubaoca/docqa/apperror"
	"github.com/tieubaoca/docqa/types"
	"github.com/tieubaoca/docqa/utils"
)

// TextExtractor turns raw document bytes into text. pages is 0 for formats
// without pagination.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte) (text string, pages int, err error)
}

// formatTokens maps dot-separated filename tokens to formats. Detection
// checks formats in formatOrder so "a.pdf.txt" is a PDF.
var formatTokens = map[types.Format][]string{
	types.FormatPDF:  {"pdf"},
	types.FormatDOCX: {"docx", "docs", "word", "docm", "document"},
	types.FormatEML:  {"eml"},
	types.FormatTXT:  {"txt"},
}

var formatOrder = []types.Format{types.FormatPDF, types.FormatDOCX, types.FormatEML, types.FormatTXT}

var formatLabels = map[types.Format]string{
	types.FormatPDF:  "PDF",
	types.FormatDOCX: "DOCX",
	types.FormatEML:  "EML",
	types.FormatTXT:  "TXT",
}

// DetectFormat determines the document format from filename,
// case-insensitively.
func DetectFormat(filename string) (types.Format, error) {
	tokens := strings.Split(strings.ToLower(filename), ".")
	for _, format := range formatOrder {
		for _, want := range formatTokens[format] {
			for _, tok := range tokens[1:] {
				if tok == want {
					return format, nil
				}
			}
		}
	}
	return "", apperror.Errorf(apperror.Unsupported, "unsupported file extension: .%s", utils.Extension(filename))
}

// ExtractorService dispatches extraction by detected format
type ExtractorService struct {
	extractors map[types.Format]TextExtractor
}

func NewExtractorService() *ExtractorService {
	return &ExtractorService{
		extractors: map[types.Format]TextExtractor{
			types.FormatPDF:  NewPDFService(),
			types.FormatDOCX: NewDocxService(),
			types.FormatEML:  NewEmlService(),
			types.FormatTXT:  NewTxtService(),
		},
	}
}

// Extract detects the format of filename and extracts text from data.
// Failures are returned as *apperror.Error with kind Unsupported or
// ParseFailed; parser panics are recovered into ParseFailed.
func (s *ExtractorService) Extract(ctx context.Context, data []byte, filename string) (doc *types.Document, err error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	extractor, ok := s.extractors[format]
	if !ok {
		return nil, apperror.Errorf(apperror.Unsupported, "no extractor registered for %s", format)
	}
	label := formatLabels[format]

	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, apperror.New(apperror.ParseFailed, "error loading "+label, fmt.Errorf("panic: %v", r))
		}
	}()

	logger := utils.LoggerFrom(ctx)
	logger.Debug("extracting document", "filename", filename, "format", format, "bytes", len(data))

	text, pages, err := extractor.ExtractText(ctx, data)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.New(apperror.ParseFailed, "error loading "+label, err)
	}

	doc = &types.Document{
		Name:      filename,
		Format:    format,
		Text:      strings.TrimSpace(text),
		Status:    label + " loaded successfully.",
		PageCount: pages,
	}
	logger.Info("document extracted", "filename", filename, "format", format, "chars", len(doc.Text), "pages", pages)
	return doc, nil
}
