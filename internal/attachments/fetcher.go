// ABOUTME: Downloads inbound image attachments for text extraction
// ABOUTME: Sends the bot's bearer token to trusted hosts and retries transient failures with linear backoff
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/harper/supportbot/internal/models"
	"github.com/harper/supportbot/internal/util"
)

const (
	// DefaultRetries is the number of attempts made for one download
	DefaultRetries = 3
	// DefaultRetryDelay is multiplied by the attempt number between attempts
	DefaultRetryDelay = time.Second
	// MaxImageBytes bounds a single download
	MaxImageBytes = 10 << 20
)

// ErrNoURL is returned for attachments without a download URL
var ErrNoURL = errors.New("attachment has no content url")

// TokenSource supplies a bearer token for attachment hosts; an empty token sends no header
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed token, mostly useful for tests and emulators
type StaticToken string

// Token implements TokenSource
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// Fetcher downloads attachment bytes
type Fetcher struct {
	client     *http.Client
	tokens     TokenSource
	trusted    TrustedHosts
	retries    int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewFetcher creates a fetcher; tokens may be nil for unauthenticated hosts
func NewFetcher(client *http.Client, tokens TokenSource, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		client:     client,
		tokens:     tokens,
		retries:    DefaultRetries,
		retryDelay: DefaultRetryDelay,
		logger:     logger.With("component", "attachments"),
	}
}

// WithRetry overrides the attempt count and base delay
func (f *Fetcher) WithRetry(retries int, delay time.Duration) *Fetcher {
	if retries > 0 {
		f.retries = retries
	}
	if delay >= 0 {
		f.retryDelay = delay
	}
	return f
}

// WithTrustedHosts sets which hosts receive the bearer token
func (f *Fetcher) WithTrustedHosts(t TrustedHosts) *Fetcher {
	f.trusted = t
	return f
}

// statusError is a non-2xx response
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

// Fetch implements core.ImageFetcher
func (f *Fetcher) Fetch(ctx context.Context, a models.Attachment) ([]byte, error) {
	if a.URL == "" {
		return nil, ErrNoURL
	}

	var lastErr error
	for attempt := 0; attempt < f.retries; attempt++ {
		if attempt > 0 {
			delay := util.LinearBackoff(f.retryDelay, attempt)
			f.logger.Debug("retrying attachment download", "attempt", attempt+1, "delay", delay, "error", lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		data, err := f.get(ctx, a.URL)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("download attachment: %w", lastErr)
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.tokens != nil && f.trusted.Allows(url) {
		token, err := f.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("get token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("attachment exceeds %d bytes", MaxImageBytes)
	}
	return data, nil
}
