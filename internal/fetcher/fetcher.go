// Package fetcher retrieves documentation files and directory listings from
// the documentation source, with retry logic, rate limiting, and caching.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned by HTTPClient.Fetch for HTTP 404 responses.
var ErrNotFound = errors.New("resource not found")

const userAgent = "quasar-docs-mcp-server/1.0"

// HTTPClient provides HTTP client functionality with timeout, retry logic, and rate limiting
type HTTPClient struct {
	client       *http.Client
	maxRetries   int
	rateLimiter  *rate.Limiter
	token        string
	initialDelay time.Duration
	maxDelay     time.Duration
}

// NewHTTPClient creates a new HTTP client with the specified timeout, max retries, and max concurrent requests.
// The client implements exponential backoff retry mechanism and rate limiting for concurrent requests.
//
// Parameters:
//   - timeout: HTTP request timeout duration
//   - maxRetries: Maximum number of retry attempts (not including the initial request)
//   - maxConcurrent: Maximum number of requests started per second, also used as the burst
//
// Returns a configured HTTPClient ready for use.
func NewHTTPClient(timeout time.Duration, maxRetries int, maxConcurrent int) *HTTPClient {
	return &HTTPClient{
		client:       &http.Client{Timeout: timeout},
		maxRetries:   maxRetries,
		rateLimiter:  rate.NewLimiter(rate.Limit(maxConcurrent), maxConcurrent),
		initialDelay: 1 * time.Second,
		maxDelay:     60 * time.Second,
	}
}

// WithToken sets a token sent as a bearer Authorization header on every request.
func (c *HTTPClient) WithToken(token string) *HTTPClient {
	c.token = token
	return c
}

// Fetch retrieves content from the specified URL with retry logic and rate limiting.
// Delays start at one second and double on each retry, capped at 60 seconds.
//
// Retries on 5xx errors and network errors, but not on 4xx client errors.
// A 404 response returns an error wrapping ErrNotFound.
func (c *HTTPClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * c.initialDelay
			if delay > c.maxDelay {
				delay = c.maxDelay
			}

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("User-Agent", userAgent)
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()

		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: HTTP 404", ErrNotFound)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, fmt.Errorf("client error: HTTP %d", resp.StatusCode)
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: HTTP %d", resp.StatusCode)
			continue
		default:
			return nil, fmt.Errorf("unexpected status code: HTTP %d", resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
