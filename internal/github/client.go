// Package github is a small REST client for the parts of the GitHub API the
// inspector needs: repository trees, file contents and issues.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quarkus-qe/quarkus-utilities/internal/version"
)

const (
	// DefaultAPIBase is the public GitHub REST endpoint.
	DefaultAPIBase = "https://api.github.com"

	// DefaultTimeout bounds a single HTTP round trip.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is how many times 5xx responses and network errors are retried.
	DefaultMaxRetries = 3

	// DefaultRetryBaseDelay is the first backoff step; each retry doubles it.
	DefaultRetryBaseDelay = 500 * time.Millisecond

	// maxBodySize caps response bodies read into memory.
	maxBodySize = 32 << 20

	mediaTypeJSON = "application/vnd.github+json"
	mediaTypeRaw  = "application/vnd.github.raw+json"
)

// Options configures a Client.
type Options struct {
	APIBase        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client talks to the GitHub REST API.
type Client struct {
	apiBase string
	token   string
	http    *http.Client
	logger  *slog.Logger
	retry   retryConfig
}

type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewClient creates a client; zero-valued options fall back to defaults.
func NewClient(opts Options) *Client {
	apiBase := strings.TrimSuffix(opts.APIBase, "/")
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := opts.RetryBaseDelay
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		apiBase: apiBase,
		token:   opts.Token,
		http:    httpClient,
		logger:  logger,
		retry: retryConfig{
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   10 * time.Second,
		},
	}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("github: GET %s: %d %s", e.URL, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("github: GET %s: %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	se, ok := err.(*StatusError)
	return ok && se.StatusCode == http.StatusNotFound
}

// do performs a GET with retry on network errors and 5xx responses.
func (c *Client) do(ctx context.Context, path string, query url.Values, accept string) ([]byte, error) {
	u := c.apiBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.baseDelay * time.Duration(1<<uint(attempt-1))
			if delay > c.retry.maxDelay {
				delay = c.retry.maxDelay
			}
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			c.logger.Debug("Retrying GitHub request",
				"attempt", attempt+1,
				"url", u,
			)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("User-Agent", "disabled-tests-inspector/"+version.Version)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		_ = resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = &StatusError{StatusCode: resp.StatusCode, URL: u}
			continue
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response: %w", readErr)
		}
		if resp.StatusCode >= 400 {
			return nil, &StatusError{StatusCode: resp.StatusCode, URL: u, Message: errorMessage(data)}
		}
		return data, nil
	}

	return nil, fmt.Errorf("github request failed after %d retries: %w", c.retry.maxRetries, lastErr)
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	data, err := c.do(ctx, path, query, mediaTypeJSON)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return strings.TrimSpace(string(body))
}

// escapePath escapes each segment of a repository path.
func escapePath(p string) string {
	segments := strings.Split(strings.Trim(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
