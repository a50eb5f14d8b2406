package discovergy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrjones/oauth"
)

// State is the position of a Client in the OAuth 1.0a handshake.
type State int

// Handshake states, in the only order they can be reached
const (
	StateUnauthenticated State = iota
	StateConsumerFetched
	StateRequestTokenFetched
	StateAuthorized
	StateAccessTokenFetched
	StateSessionReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateConsumerFetched:
		return "consumer_fetched"
	case StateRequestTokenFetched:
		return "request_token_fetched"
	case StateAuthorized:
		return "authorized"
	case StateAccessTokenFetched:
		return "access_token_fetched"
	case StateSessionReady:
		return "session_ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

const oobCallback = "oob"

// Login runs the four handshake stages in order and keeps the resulting
// session. Any failure aborts the handshake, drops a previously held session
// and returns the failing stage's error; call Login again to start over.
func (c *Client) Login(ctx context.Context, email, password string) error {
	c.mu.Lock()
	c.session = nil
	c.state = StateUnauthenticated
	c.mu.Unlock()

	consumer, err := c.FetchConsumerCredential(ctx)
	if err != nil {
		return c.abort(err)
	}
	c.setState(StateConsumerFetched)

	requestToken, err := c.FetchRequestToken(ctx, consumer)
	if err != nil {
		return c.abort(err)
	}
	c.setState(StateRequestTokenFetched)

	verifier, err := c.AuthorizeRequestToken(ctx, email, password, requestToken)
	if err != nil {
		return c.abort(err)
	}
	c.setState(StateAuthorized)

	accessToken, err := c.FetchAccessToken(ctx, consumer, requestToken, verifier)
	if err != nil {
		return c.abort(err)
	}
	c.setState(StateAccessTokenFetched)

	session, err := c.newSession(consumer, accessToken)
	if err != nil {
		return c.abort(stageError(ErrToken, err))
	}

	c.mu.Lock()
	c.session = session
	c.state = StateSessionReady
	c.mu.Unlock()

	c.logger.Info().Str("client", c.clientName).Msg("Logged in to Discovergy")
	return nil
}

func (c *Client) abort(err error) error {
	c.setState(StateFailed)
	c.logger.Error().Err(err).Msg("Discovergy login failed")
	return err
}

// FetchConsumerCredential requests a consumer key and secret for the client
// name. This step is vendor specific and not part of OAuth 1.0a.
func (c *Client) FetchConsumerCredential(ctx context.Context) (ConsumerCredential, error) {
	const op = "consumer_token"

	form := url.Values{}
	form.Set("client", c.clientName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(consumerTokenPath), strings.NewReader(form.Encode()))
	if err != nil {
		return ConsumerCredential{}, stageError(ErrCredential, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	body, err := c.execute(c.httpClient, op, req)
	if err != nil {
		if IsProtocol(err) {
			c.logger.Error().Err(err).Msg("Failed to create consumer token")
		} else {
			c.logger.Error().Err(err).Msg("Failed consumer token request")
		}
		return ConsumerCredential{}, stageError(ErrCredential, err)
	}

	var cred ConsumerCredential
	if err := decodeJSON(op, body, &cred); err != nil {
		c.logger.Error().Err(err).Msg("Malformed consumer token response")
		return ConsumerCredential{}, stageError(ErrCredential, err)
	}
	if cred.Key == "" {
		err := &DecodeError{Op: op, Err: errors.New("missing key in response")}
		c.logger.Error().Err(err).Msg("Missing key in consumer token response")
		return ConsumerCredential{}, stageError(ErrCredential, err)
	}
	if cred.Secret == "" {
		err := &DecodeError{Op: op, Err: errors.New("missing secret in response")}
		c.logger.Error().Err(err).Msg("Missing secret in consumer token response")
		return ConsumerCredential{}, stageError(ErrCredential, err)
	}

	return cred, nil
}

// FetchRequestToken obtains an OAuth request token with an out-of-band
// callback.
func (c *Client) FetchRequestToken(ctx context.Context, consumer ConsumerCredential) (Token, error) {
	const op = "request_token"

	if err := ctx.Err(); err != nil {
		return Token{}, stageError(ErrToken, &TransportError{Op: op, Err: err})
	}

	start := time.Now()
	signer, rec := c.stageConsumer(consumer)
	rtoken, _, err := signer.GetRequestTokenAndUrl(oobCallback)
	if err != nil {
		err = classifyOAuthError(op, err, rec.err)
		observe(op, outcomeOf(err), start)
		c.logger.Error().Err(err).Msg("Failed to fetch request token")
		return Token{}, stageError(ErrToken, err)
	}
	observe(op, outcomeOK, start)

	if rtoken == nil || rtoken.Token == "" || rtoken.Secret == "" {
		err := &DecodeError{Op: op, Err: errors.New("missing oauth_token or oauth_token_secret")}
		c.logger.Error().Err(err).Msg("Incomplete request token response")
		return Token{}, stageError(ErrToken, err)
	}

	return Token{Token: rtoken.Token, Secret: rtoken.Secret}, nil
}

// AuthorizeRequestToken trades the account credentials and a request token
// for an OAuth verifier. The response body is form encoded.
func (c *Client) AuthorizeRequestToken(ctx context.Context, email, password string, requestToken Token) (string, error) {
	const op = "authorize"

	req, err := c.authorizer.AuthorizeRequest(ctx, c.endpoint(authorizePath), requestToken, email, password)
	if err != nil {
		return "", stageError(ErrAuthorization, fmt.Errorf("failed to create request: %w", err))
	}

	body, err := c.execute(c.httpClient, op, req)
	if err != nil {
		if IsProtocol(err) {
			c.logger.Error().Err(err).Msg("Failed to login. Please check if your email and password are correct and try again")
		} else {
			c.logger.Error().Err(err).Msg("Failed authorization request")
		}
		return "", stageError(ErrAuthorization, err)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		err = &DecodeError{Op: op, Err: err}
		c.logger.Error().Err(err).Msg("Failed to parse authorization response")
		return "", stageError(ErrAuthorization, err)
	}

	verifier := values.Get("oauth_verifier")
	if verifier == "" {
		err := &DecodeError{Op: op, Err: errors.New("missing oauth_verifier in response")}
		c.logger.Error().Err(err).Msg("Failed to parse authorization response")
		return "", stageError(ErrAuthorization, err)
	}

	return verifier, nil
}

// FetchAccessToken exchanges an authorized request token for an access token.
func (c *Client) FetchAccessToken(ctx context.Context, consumer ConsumerCredential, requestToken Token, verifier string) (Token, error) {
	const op = "access_token"

	if err := ctx.Err(); err != nil {
		return Token{}, stageError(ErrToken, &TransportError{Op: op, Err: err})
	}

	start := time.Now()
	signer, rec := c.stageConsumer(consumer)
	atoken, err := signer.AuthorizeToken(&oauth.RequestToken{
		Token:  requestToken.Token,
		Secret: requestToken.Secret,
	}, verifier)
	if err != nil {
		err = classifyOAuthError(op, err, rec.err)
		observe(op, outcomeOf(err), start)
		c.logger.Error().Err(err).Msg("Failed to fetch access token")
		return Token{}, stageError(ErrToken, err)
	}
	observe(op, outcomeOK, start)

	if atoken == nil || atoken.Token == "" || atoken.Secret == "" {
		err := &DecodeError{Op: op, Err: errors.New("missing oauth_token or oauth_token_secret")}
		c.logger.Error().Err(err).Msg("Incomplete access token response")
		return Token{}, stageError(ErrToken, err)
	}

	return Token{Token: atoken.Token, Secret: atoken.Secret}, nil
}

// classifyOAuthError maps an error from the OAuth signer onto the client's
// error taxonomy. doErr is the error recorded from the HTTP client, if any.
func classifyOAuthError(op string, err, doErr error) error {
	if doErr != nil {
		return &TransportError{Op: op, Err: doErr}
	}

	var httpErr oauth.HTTPExecuteError
	if errors.As(err, &httpErr) {
		return &APIError{
			Op:         op,
			StatusCode: httpErr.StatusCode,
			Message:    httpErr.Status,
			Body:       string(httpErr.ResponseBodyBytes),
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return &TransportError{Op: op, Err: err}
	}

	return &DecodeError{Op: op, Err: err}
}

func outcomeOf(err error) string {
	switch {
	case IsTransport(err):
		return outcomeTransport
	case IsProtocol(err):
		return outcomeProtocol
	default:
		return outcomeDecode
	}
}
