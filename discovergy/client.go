package discovergy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBaseURL is the public Discovergy API root
	DefaultBaseURL = "https://api.discovergy.com/public/v1"
	// DefaultTimeout bounds every round trip
	DefaultTimeout = 10 * time.Second
)

const (
	consumerTokenPath = "/oauth1/consumer_token"
	requestTokenPath  = "/oauth1/request_token"
	authorizePath     = "/oauth1/authorize"
	accessTokenPath   = "/oauth1/access_token"
)

// Client represents a Discovergy API client. A Client must not be used
// concurrently while Login is running; once logged in, read calls may be
// issued from several goroutines.
type Client struct {
	clientName string
	baseURL    string
	httpClient *http.Client
	authorizer Authorizer
	logger     zerolog.Logger
	debug      bool

	mu      sync.RWMutex
	state   State
	session *Session
}

// NewClient creates a new Discovergy client. clientName identifies the
// application when consumer credentials are requested.
func NewClient(clientName string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(clientName) == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrInvalidConfig)
	}

	c := &Client{
		clientName: clientName,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		authorizer: QueryAuthorizer{},
		logger:     zerolog.Nop(),
		state:      StateUnauthenticated,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.debug {
		hc := *c.httpClient
		hc.Transport = &debugTransport{base: hc.Transport, logger: c.logger}
		c.httpClient = &hc
	}

	return c, nil
}

// ClientName returns the name given to NewClient.
func (c *Client) ClientName() string {
	return c.clientName
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// State returns the handshake state of the client.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LoggedIn reports whether a session is ready.
func (c *Client) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session != nil
}

// Session returns the authenticated session, or nil before a successful Login.
func (c *Client) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.logger.Debug().Str("state", s.String()).Msg("Discovergy handshake state changed")
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// execute performs req with hc and returns the body of a 200 response. Any
// other outcome is returned as *TransportError or *APIError.
func (c *Client) execute(hc *http.Client, op string, req *http.Request) ([]byte, error) {
	start := time.Now()

	resp, err := hc.Do(req)
	if err != nil {
		observe(op, outcomeTransport, start)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observe(op, outcomeTransport, start)
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Discovergy API request")

	if resp.StatusCode != http.StatusOK {
		observe(op, outcomeProtocol, start)
		return nil, &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
	}

	observe(op, outcomeOK, start)
	return body, nil
}

// get performs a signed GET against the session.
func (c *Client) get(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	session := c.Session()
	if session == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
	}

	u := c.endpoint(path)
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return c.execute(session.httpClient, op, req)
}

// getJSON performs a signed GET and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, v any) error {
	body, err := c.get(ctx, op, path, params)
	if err != nil {
		c.logFailure(op, err)
		return err
	}
	if err := decodeJSON(op, body, v); err != nil {
		decodeFailuresTotal.WithLabelValues(op).Inc()
		c.logFailure(op, err)
		return err
	}
	return nil
}

func (c *Client) logFailure(op string, err error) {
	c.logger.Error().Err(err).Str("op", op).Msg("Discovergy API call failed")
}

// decodeJSON decodes body keeping numbers as json.Number.
func decodeJSON(op string, body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return &DecodeError{Op: op, Err: err}
	}
	return nil
}
