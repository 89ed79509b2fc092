package client

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/xraph/lanes/backoff"
)

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets how many attempts an idempotent request gets and the
// delay between them. maxAttempts below one disables retrying.
func WithRetry(maxAttempts int, strategy backoff.Strategy) Option {
	return func(c *Client) {
		c.maxAttempts = max(maxAttempts, 1)
		c.backoff = strategy
	}
}

// defaultBackoff is used when WithRetry is not given.
func defaultBackoff() backoff.Strategy {
	return backoff.NewExponentialWithJitter(100*time.Millisecond, 2*time.Second)
}
