// Package apperror defines the error kinds that cross package boundaries
// and their mapping to HTTP status codes.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independently of its human-readable message.
type Kind int

const (
	Internal Kind = iota
	InvalidInput
	Unsupported
	FetchFailed
	ParseFailed
	EmptyContent
	UpstreamFailed
	Config
)

var kindNames = map[Kind]string{
	Internal:       "internal",
	InvalidInput:   "invalid_input",
	Unsupported:    "unsupported",
	FetchFailed:    "fetch_failed",
	ParseFailed:    "parse_failed",
	EmptyContent:   "empty_content",
	UpstreamFailed: "upstream_failed",
	Config:         "config",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error carries a Kind, a client-facing message and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error.
func New(kind Kind, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Errorf creates an Error without a cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}

// StatusCode maps err to the HTTP status returned to clients.
func StatusCode(err error) int {
	switch KindOf(err) {
	case InvalidInput, FetchFailed:
		return http.StatusBadRequest
	case Unsupported, ParseFailed, EmptyContent:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the message to expose to clients.
func Detail(err error) string {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		switch appErr.Kind {
		case InvalidInput, FetchFailed, Unsupported, EmptyContent:
			// Fixed client-facing messages; the cause stays in the logs
			return appErr.Message
		}
		return appErr.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}
