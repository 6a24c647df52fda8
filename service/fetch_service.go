package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/tieubaoca/docqa/apperror"
	"github.com/tieubaoca/docqa/config"
	"github.com/tieubaoca/docqa/utils"
)

const fetchFailedMessage = "Failed to download document from provided URL."

// UserAgent is sent with every document download
var UserAgent = "docqa/1.0"

// FetchService downloads documents over HTTP(S)
type FetchService struct {
	client       *http.Client
	retries      int
	retryBackoff time.Duration
	maxBytes     int64
}

func NewFetchService(cfg config.FetchConfig) *FetchService {
	return &FetchService{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		retries:      cfg.Retries,
		retryBackoff: cfg.RetryBackoff,
		maxBytes:     cfg.MaxBytes,
	}
}

// statusError is a non-2xx response from the document host
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.code, http.StatusText(e.code))
}

// Fetch downloads rawURL, retrying transient failures up to the configured
// number of times. Failures are returned as FetchFailed or InvalidInput.
func (s *FetchService) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperror.New(apperror.InvalidInput, "Invalid document URL.", err)
	}

	logger := utils.LoggerFrom(ctx)
	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying document download", "attempt", attempt+1, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.retryBackoff):
			}
		}

		data, err := s.get(ctx, u.String())
		if err == nil {
			logger.Info("document downloaded", "bytes", len(data), "attempts", attempt+1)
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}

	return nil, apperror.New(apperror.FetchFailed, fetchFailedMessage, lastErr)
}

func (s *FetchService) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &statusError{code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", s.maxBytes)
	}
	return data, nil
}

// isRetryable reports whether a download failure is worth another attempt:
// gateway errors and transport-level failures are, everything else is not.
func isRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		switch se.code {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)
}
