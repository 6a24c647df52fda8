package types

// Format is a supported document format, detected from the filename
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatEML  Format = "eml"
	FormatTXT  Format = "txt"
)

// Document is the result of a successful extraction
type Document struct {
	Name      string // Filename the format was detected from
	Format    Format
	Text      string // Extracted text, trimmed
	Status    string // Human-readable load status
	PageCount int    // Pages for PDF, 0 otherwise
}

// DocumentContext is the text available as background for answering
// questions. It is built per request and passed by value.
type DocumentContext struct {
	Text string
}

// Context returns the document's text as a DocumentContext.
func (d *Document) Context() DocumentContext {
	if d == nil {
		return DocumentContext{}
	}
	return DocumentContext{Text: d.Text}
}
