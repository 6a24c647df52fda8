package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/tieubaoca/docqa/utils"
)

func init() {
	// Keep pdfcpu from creating a config directory under $HOME
	api.DisableConfigDir()
}

// pageSource is the part of a PDF reader that text extraction needs.
// Pages are numbered from 1.
type pageSource interface {
	NumPage() int
	PageText(pageNum int) (string, error)
}

type pdfReaderSource struct {
	reader *pdf.Reader
}

func (s pdfReaderSource) NumPage() int {
	return s.reader.NumPage()
}

func (s pdfReaderSource) PageText(pageNum int) (string, error) {
	page := s.reader.Page(pageNum)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

// PDFService extracts page text from PDF documents
type PDFService struct {
	// repair rewrites a PDF the text reader rejected
	repair func(data []byte) ([]byte, error)
}

// NewPDFService creates a new PDF service
func NewPDFService() *PDFService {
	return &PDFService{
		repair: rewritePDF,
	}
}

// ExtractText returns the text of every page joined by a newline, in page
// order, along with the page count. Pages without extractable text (scanned
// images, broken content streams) contribute an empty string. A document
// the reader rejects is rewritten with pdfcpu and read once more.
func (s *PDFService) ExtractText(ctx context.Context, data []byte) (string, int, error) {
	text, pages, err := s.read(ctx, data)
	if err == nil || ctx.Err() != nil || s.repair == nil {
		return text, pages, err
	}

	logger := utils.LoggerFrom(ctx)
	repaired, repairErr := s.repair(data)
	if repairErr != nil {
		logger.Debug("pdf repair failed", "error", repairErr)
		return "", 0, err
	}
	logger.Warn("pdf unreadable, retrying with repaired copy", "error", err)
	return s.read(ctx, repaired)
}

func (s *PDFService) read(ctx context.Context, data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	source := pdfReaderSource{reader: reader}
	text, err = s.joinPages(ctx, source)
	if err != nil {
		return "", 0, err
	}
	return text, source.NumPage(), nil
}

// rewritePDF runs the document through pdfcpu in relaxed validation mode,
// which rebuilds the cross-reference table and object layout.
func rewritePDF(data []byte) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("pdfcpu: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *PDFService) joinPages(ctx context.Context, source pageSource) (string, error) {
	logger := utils.LoggerFrom(ctx)
	totalPages := source.NumPage()
	texts := make([]string, 0, totalPages)

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := source.PageText(pageNum)
		if err != nil {
			logger.Warn("failed to extract text from page", "page", pageNum, "error", err)
			text = ""
		}
		texts = append(texts, text)
	}

	return cleanText(strings.Join(texts, "\n")), nil
}

var pdfTextReplacer = strings.NewReplacer(
	"\u0000", "", // Null character
	"\ufffd", "", // Unicode replacement character
	"\u001b", "", // Escape character
	"\r", "",
	"\f", "\n",
)

func cleanText(text string) string {
	return strings.TrimSpace(pdfTextReplacer.Replace(text))
}
