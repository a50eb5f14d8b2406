package discovergy

import (
	"fmt"
	"net/http"

	"github.com/mrjones/oauth"
)

// Session is the signing context built by a successful Login: the consumer
// credential, the access token and an http.Client that signs every request
// with both. A Session is immutable.
type Session struct {
	consumer    ConsumerCredential
	accessToken Token
	httpClient  *http.Client
}

// Consumer returns the consumer credential the session signs with.
func (s *Session) Consumer() ConsumerCredential {
	return s.consumer
}

// AccessToken returns the access token the session signs with.
func (s *Session) AccessToken() Token {
	return s.accessToken
}

// serviceProvider describes the vendor's OAuth 1.0a endpoints.
func (c *Client) serviceProvider() oauth.ServiceProvider {
	return oauth.ServiceProvider{
		RequestTokenUrl:   c.endpoint(requestTokenPath),
		AuthorizeTokenUrl: c.endpoint(authorizePath),
		AccessTokenUrl:    c.endpoint(accessTokenPath),
		HttpMethod:        http.MethodPost,
	}
}

// oauthConsumer returns an OAuth1 signer for cred that sends through the
// client's http.Client.
func (c *Client) oauthConsumer(cred ConsumerCredential) *oauth.Consumer {
	return oauth.NewCustomHttpClientConsumer(cred.Key, cred.Secret, c.serviceProvider(), c.httpClient)
}

// doRecorder remembers the last error returned by the wrapped client's Do.
// The signer flattens that error into a string, so the token stages read it
// back from here.
type doRecorder struct {
	client *http.Client
	err    error
}

func (r *doRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		r.err = err
	}
	return resp, err
}

// stageConsumer returns a signer for a single token stage together with the
// recorder of its transport errors.
func (c *Client) stageConsumer(cred ConsumerCredential) (*oauth.Consumer, *doRecorder) {
	rec := &doRecorder{client: c.httpClient}
	consumer := c.oauthConsumer(cred)
	consumer.HttpClient = rec
	return consumer, rec
}

// newSession builds the signing http.Client for an access token.
func (c *Client) newSession(cred ConsumerCredential, accessToken Token) (*Session, error) {
	hc, err := c.oauthConsumer(cred).MakeHttpClient(&oauth.AccessToken{
		Token:  accessToken.Token,
		Secret: accessToken.Secret,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create signing client: %w", err)
	}
	hc.Timeout = c.httpClient.Timeout

	return &Session{
		consumer:    cred,
		accessToken: accessToken,
		httpClient:  hc,
	}, nil
}
