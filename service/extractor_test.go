package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tieubaoca/docqa/apperror"
	"github.com/tieubaoca/docqa/types"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     types.Format
		wantErr  bool
	}{
		{"report.pdf", types.FormatPDF, false},
		{"report.PDF", types.FormatPDF, false},
		{"Policy.Docx", types.FormatDOCX, false},
		{"notes.docm", types.FormatDOCX, false},
		{"mail.eml", types.FormatEML, false},
		{"readme.TXT", types.FormatTXT, false},
		{"bundle.pdf.txt", types.FormatPDF, false},
		{"image.png", "", true},
		{"pdf", "", true},
		{"noextension", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectFormat(tt.filename)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.Is(err, apperror.Unsupported))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractUnsupportedMessage(t *testing.T) {
	s := NewExtractorService()
	doc, err := s.Extract(context.Background(), []byte("data"), "photo.png")
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.Equal(t, "unsupported file extension: .png", apperror.Detail(err))
}

func TestExtractPDF(t *testing.T) {
	s := NewExtractorService()
	data := buildPDF(t, "Hello", "World")

	doc, err := s.Extract(context.Background(), data, "sample.PDF")
	require.NoError(t, err)
	assert.Equal(t, types.FormatPDF, doc.Format)
	assert.Equal(t, "PDF loaded successfully.", doc.Status)
	assert.Equal(t, 2, doc.PageCount)
	assert.Contains(t, doc.Text, "Hello")
	assert.Contains(t, doc.Text, "World")
	assert.Less(t, strings.Index(doc.Text, "Hello"), strings.Index(doc.Text, "World"))
}

func TestExtractPDFIdempotent(t *testing.T) {
	s := NewExtractorService()
	data := buildPDF(t, "Same text", "", "Again")

	first, err := s.Extract(context.Background(), data, "doc.pdf")
	require.NoError(t, err)
	second, err := s.Extract(context.Background(), data, "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, first.Text, second.Text)
}

func TestExtractCorruptPDF(t *testing.T) {
	s := NewExtractorService()
	doc, err := s.Extract(context.Background(), []byte("this is not a pdf"), "broken.pdf")
	require.Error(t, err)
	assert.Nil(t, doc)
	assert.True(t, apperror.Is(err, apperror.ParseFailed))
	assert.Contains(t, err.Error(), "error loading PDF")
}

type fakePages struct {
	texts []string
	errs  map[int]error
}

func (f fakePages) NumPage() int { return len(f.texts) }

func (f fakePages) PageText(pageNum int) (string, error) {
	if err := f.errs[pageNum]; err != nil {
		return "", err
	}
	return f.texts[pageNum-1], nil
}

func TestJoinPages(t *testing.T) {
	s := NewPDFService()

	tests := []struct {
		name  string
		pages fakePages
		want  string
	}{
		{
			name:  "all pages have text",
			pages: fakePages{texts: []string{"one", "two", "three"}},
			want:  "one\ntwo\nthree",
		},
		{
			name:  "scanned page contributes empty string",
			pages: fakePages{texts: []string{"one", "", "three"}},
			want:  "one\n\nthree",
		},
		{
			name:  "page error contributes empty string",
			pages: fakePages{texts: []string{"one", "two", "three"}, errs: map[int]error{2: errors.New("bad stream")}},
			want:  "one\n\nthree",
		},
		{
			name:  "pages joined as extracted, only the result trimmed",
			pages: fakePages{texts: []string{"  one  ", "  two  "}},
			want:  "one  \n  two",
		},
		{
			name:  "control characters cleaned",
			pages: fakePages{texts: []string{"a\r\nb\x00", "c\fd"}},
			want:  "a\nb\nc\nd",
		},
		{
			name:  "no pages",
			pages: fakePages{},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.joinPages(context.Background(), tt.pages)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractPDFRepairsUnreadableDocument(t *testing.T) {
	var repaired int
	s := &PDFService{repair: func(data []byte) ([]byte, error) {
		repaired++
		assert.Equal(t, "garbled", string(data))
		return buildPDF(t, "Recovered"), nil
	}}

	text, pages, err := s.ExtractText(context.Background(), []byte("garbled"))
	require.NoError(t, err)
	assert.Equal(t, 1, repaired)
	assert.Equal(t, 1, pages)
	assert.Contains(t, text, "Recovered")
}

func TestExtractPDFRepairFailureKeepsReadError(t *testing.T) {
	s := &PDFService{repair: func([]byte) ([]byte, error) {
		return nil, errors.New("cannot repair")
	}}

	_, _, err := s.ExtractText(context.Background(), []byte("garbled"))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "cannot repair")
}

func TestExtractPDFReadableDocumentSkipsRepair(t *testing.T) {
	s := &PDFService{repair: func([]byte) ([]byte, error) {
		t.Fatal("repair called for a readable document")
		return nil, nil
	}}

	text, _, err := s.ExtractText(context.Background(), buildPDF(t, "Fine"))
	require.NoError(t, err)
	assert.Contains(t, text, "Fine")
}

func TestRewritePDFKeepsText(t *testing.T) {
	rewritten, err := rewritePDF(buildPDF(t, "Hello", "World"))
	require.NoError(t, err)
	require.NotEmpty(t, rewritten)

	text, pages, err := (&PDFService{}).ExtractText(context.Background(), rewritten)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "World")
}

func TestRewritePDFRejectsGarbage(t *testing.T) {
	_, err := rewritePDF([]byte("this is not a pdf"))
	assert.Error(t, err)
}

func TestJoinPagesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPDFService().joinPages(ctx, fakePages{texts: []string{"one"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractDOCX(t *testing.T) {
	s := NewExtractorService()
	data := buildDocx(t, docxParagraphs("  First paragraph", "Second", "Third  "))

	doc, err := s.Extract(context.Background(), data, "policy.docx")
	require.NoError(t, err)
	assert.Equal(t, "First paragraph\nSecond\nThird", doc.Text)
	assert.Equal(t, "DOCX loaded successfully.", doc.Status)
}

func TestExtractDOCXRunsAndBreaks(t *testing.T) {
	body := `<w:p><w:r><w:t>Hel</w:t></w:r><w:r><w:t>lo</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>cell</w:t><w:tab/><w:t>value</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`<w:p><w:r><w:t>line one</w:t><w:br/><w:t>line two</w:t></w:r></w:p>`
	data := buildDocx(t, body)

	text, _, err := NewDocxService().ExtractText(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "Hello\ncell\tvalue\nline one\nline two", text)
}

func TestExtractDOCXInvalid(t *testing.T) {
	s := NewExtractorService()

	_, err := s.Extract(context.Background(), []byte("not a zip"), "policy.docx")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.ParseFailed))

	_, _, err = NewDocxService().ExtractText(context.Background(), buildZipWithout(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word/document.xml not found")
}

func buildZipWithout(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte("<styles/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractEML(t *testing.T) {
	s := NewExtractorService()

	tests := []struct {
		name string
		data string
		want string
	}{
		{"plain body", plainEML, "hello"},
		{"html body stripped", htmlEML, "hi"},
		{"plain preferred over html", alternativeEML, "plain version"},
		{"attachment skipped, html used", attachmentOnlyEML, "Claim\nApproved in full."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := s.Extract(context.Background(), []byte(tt.data), "message.eml")
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Text)
			assert.Equal(t, "EML loaded successfully.", doc.Status)
		})
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"inline and lists", `<div>One <b>bold</b> word</div><ul><li>a</li><li>b</li></ul>`, "One bold word\na\nb"},
		{"table cells", `<table><tr><td>1</td><td>2</td></tr></table>`, "1 2"},
		{"table rows", `<table><tr><th>Plan</th><th>Limit</th></tr><tr><td>Gold</td><td>5000</td></tr></table>`, "Plan Limit\nGold 5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := htmlToText(tt.html)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestExtractTXT(t *testing.T) {
	s := NewExtractorService()

	doc, err := s.Extract(context.Background(), []byte("  plain text\nsecond line \n"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain text\nsecond line", doc.Text)
	assert.Equal(t, "TXT loaded successfully.", doc.Status)
}

func TestExtractTXTInvalidUTF8(t *testing.T) {
	data := []byte("valid \xff\xfe\xfd bytes")
	text, _, err := NewTxtService().ExtractText(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(text))
	assert.True(t, strings.HasPrefix(text, "valid "))
	assert.True(t, strings.HasSuffix(text, " bytes"))
}

func TestExtractTXTWithBOM(t *testing.T) {
	utf8BOM := append([]byte{0xEF, 0xBB, 0xBF}, []byte("bom text")...)
	text, _, err := NewTxtService().ExtractText(context.Background(), utf8BOM)
	require.NoError(t, err)
	assert.Equal(t, "bom text", text)

	// "hi" in UTF-16LE with BOM
	utf16 := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	text, _, err = NewTxtService().ExtractText(context.Background(), utf16)
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
}
