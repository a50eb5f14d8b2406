package discovergy

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL overrides the API base URL. Intended for tests and proxies.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		baseURL = strings.TrimRight(baseURL, "/")
		if baseURL == "" {
			return fmt.Errorf("%w: base URL is empty", ErrInvalidConfig)
		}
		c.baseURL = baseURL
		return nil
	}
}

// WithTimeout sets the HTTP client timeout applied to every round trip. A
// client passed to WithHTTPClient is copied, never modified.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: timeout must be > 0", ErrInvalidConfig)
		}
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client. Its Timeout is left untouched.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) error {
		if httpClient == nil {
			return fmt.Errorf("%w: http client is nil", ErrInvalidConfig)
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithLogger sets the logger used for request and failure logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithAuthorizer replaces the way request tokens are authorized.
func WithAuthorizer(authorizer Authorizer) Option {
	return func(c *Client) error {
		if authorizer == nil {
			return fmt.Errorf("%w: authorizer is nil", ErrInvalidConfig)
		}
		c.authorizer = authorizer
		return nil
	}
}

// WithDebugLogging wraps the transport so every request and response is
// dumped at debug level. Passwords, consumer secrets and token secrets are
// redacted.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		c.debug = enabled
		return nil
	}
}
