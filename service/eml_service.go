package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
)

const (
	mediaTypePlain = "text/plain"
	mediaTypeHTML  = "text/html"
)

// EmlService extracts the body of RFC 5322 messages
type EmlService struct{}

func NewEmlService() *EmlService {
	return &EmlService{}
}

// ExtractText returns the first text/plain body part. When the message has
// none it falls back to the visible text of the first text/html part.
func (s *EmlService) ExtractText(ctx context.Context, data []byte) (string, int, error) {
	root, err := enmime.ReadParts(bytes.NewReader(data))
	if err != nil {
		return "", 0, fmt.Errorf("parse message: %w", err)
	}

	if part := findBodyPart(root, mediaTypePlain); part != nil {
		return strings.TrimSpace(string(part.Content)), 0, nil
	}
	if part := findBodyPart(root, mediaTypeHTML); part != nil {
		text, err := htmlToText(string(part.Content))
		if err != nil {
			return "", 0, err
		}
		return text, 0, nil
	}
	return "", 0, errors.New("message has no text/plain or text/html body")
}

// findBodyPart returns the first inline part of mediaType in depth-first
// order.
func findBodyPart(root *enmime.Part, mediaType string) *enmime.Part {
	var found *enmime.Part
	var walk func(p *enmime.Part)
	walk = func(p *enmime.Part) {
		for ; p != nil && found == nil; p = p.NextSibling {
			if isBodyPart(p, mediaType) {
				found = p
				return
			}
			walk(p.FirstChild)
		}
	}
	walk(root)
	return found
}

func isBodyPart(p *enmime.Part, mediaType string) bool {
	if strings.EqualFold(p.Disposition, "attachment") {
		return false
	}
	contentType := p.ContentType
	if contentType == "" && p.FirstChild == nil {
		// RFC 2045 default
		contentType = mediaTypePlain
	}
	return strings.EqualFold(contentType, mediaType)
}

var blockSelectors = "p, div, br, li, tr, h1, h2, h3, h4, h5, h6, blockquote, pre, table, section, article"

var cellSelectors = "td, th"

// htmlToText returns the visible text of an HTML document: tags, scripts
// and styles are dropped, block elements end a line, table cells are
// separated by a space and runs of whitespace inside a line collapse to one
// space.
func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html body: %w", err)
	}

	doc.Find("script, style, noscript, head, title").Remove()
	doc.Find(cellSelectors).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	doc.Find(blockSelectors).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n"), nil
}
