// Package genai calls the Gemini generateContent endpoint to draft briefs.
package genai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/okian/brokerflow/pkg/logger"
	"github.com/okian/brokerflow/pkg/metrics"
)

// Client defaults.
const (
	DefaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel      = "gemini-2.5-flash-preview-09-2025"
	defaultTimeout    = 60 * time.Second
	defaultMaxRetries = 2
	defaultBackoff    = 500 * time.Millisecond
	maxErrorBody      = 512

	// APIKeyHeader carries the credential on every request.
	APIKeyHeader = "x-goog-api-key"
)

// Generator turns a prompt into generated text. It returns ErrNoResult when
// the call succeeded but produced no text.
type Generator interface {
	Generate(ctx context.Context, prompt, apiKey string) (string, error)
}

// Client is a Generator over the Gemini REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	maxRetries int
	backoff    time.Duration
	logger     logger.Logger
}

// NewClient creates a Gemini client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		maxRetries: defaultMaxRetries,
		backoff:    defaultBackoff,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// retryableError marks failures worth another attempt.
type retryableError struct{ err error }

func (e retryableError) Error() string { return e.err.Error() }
func (e retryableError) Unwrap() error { return e.err }

// Generate implements Generator. Transport errors, 429 and 5xx responses are
// retried with exponential backoff; other failures return immediately.
func (c *Client) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrGenerationFailed, err)
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent",
		strings.TrimRight(c.baseURL, "/"), url.PathEscape(c.model))

	start := time.Now()
	defer func() {
		metrics.RecordBriefLatency(float64(time.Since(start).Milliseconds()))
	}()

	var lastErr error
	backoff := c.backoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn(ctx, "generation failed, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("backoff", backoff),
				logger.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrGenerationFailed, ctx.Err())
			}
			backoff *= 2
		}

		text, err := c.do(ctx, endpoint, apiKey, body)
		if err == nil {
			return text, nil
		}
		lastErr = err

		var retry retryableError
		if !errors.As(err, &retry) || ctx.Err() != nil {
			break
		}
	}

	if errors.Is(lastErr, ErrNoResult) {
		return "", lastErr
	}
	return "", fmt.Errorf("%w: %v", ErrGenerationFailed, lastErr)
}

// do sends one request. The key travels in a header so it never appears in
// URL-bearing transport errors.
func (c *Client) do(ctx context.Context, endpoint, apiKey string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(APIKeyHeader, apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", retryableError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return "", retryableError{err: statusErr}
		}
		return "", statusErr
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoResult
	}
	text := out.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		return "", ErrNoResult
	}
	return text, nil
}
