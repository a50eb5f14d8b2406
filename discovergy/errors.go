package discovergy

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid discovergy configuration")
	// ErrNotLoggedIn is returned by data calls made before a successful Login
	ErrNotLoggedIn = errors.New("discovergy: not logged in")
	// ErrCredential indicates the consumer credential could not be obtained
	ErrCredential = errors.New("discovergy: failed to fetch consumer credential")
	// ErrToken indicates a request or access token could not be obtained
	ErrToken = errors.New("discovergy: failed to fetch oauth token")
	// ErrAuthorization indicates the request token could not be authorized
	ErrAuthorization = errors.New("discovergy: failed to authorize request token")
)

// TransportError wraps a network level failure (connection, timeout, TLS).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError represents a non-success HTTP response from the Discovergy API
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: discovergy API error: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// DecodeError indicates a response body that was malformed or lacked an
// expected field.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode error: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err was caused by a network failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsProtocol reports whether err was caused by a non-success HTTP status.
func IsProtocol(err error) bool {
	var ae *APIError
	return errors.As(err, &ae)
}

// IsDecode reports whether err was caused by an unparsable response body.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// stageError attaches a handshake stage sentinel to the underlying cause so
// callers can match on either.
func stageError(stage, cause error) error {
	return fmt.Errorf("%w: %w", stage, cause)
}
