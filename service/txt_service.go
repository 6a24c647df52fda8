package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// TxtService decodes plain text documents
type TxtService struct{}

func NewTxtService() *TxtService {
	return &TxtService{}
}

// ExtractText decodes data as UTF-8. A leading byte order mark selects
// UTF-16 instead. Invalid sequences become U+FFFD rather than failing.
func (s *TxtService) ExtractText(ctx context.Context, data []byte) (string, int, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", 0, fmt.Errorf("decode text: %w", err)
	}
	return strings.TrimSpace(strings.ToValidUTF8(string(decoded), "\uFFFD")), 0, nil
}
