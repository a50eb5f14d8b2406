package discovergy

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// debugTransport dumps each request and response at debug level. It sits
// below the OAuth signer, so dumps include the Authorization header.
type debugTransport struct {
	base   http.RoundTripper
	logger zerolog.Logger
}

func (dt *debugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := dt.base
	if base == nil {
		base = http.DefaultTransport
	}

	target := redactURL(req.URL)
	if reqDump, err := httputil.DumpRequestOut(req, true); err == nil {
		dt.logger.Debug().
			Str("method", req.Method).
			Str("url", target).
			Str("request_dump", redactDump(string(reqDump), req.URL)).
			Msg("HTTP request")
	}

	resp, err := base.RoundTrip(req)
	if err != nil {
		dt.logger.Debug().Err(err).Str("method", req.Method).Str("url", target).Msg("HTTP request failed")
		return nil, err
	}

	if respDump, err := httputil.DumpResponse(resp, true); err == nil {
		dt.logger.Debug().
			Str("method", req.Method).
			Str("url", target).
			Int("status_code", resp.StatusCode).
			Str("response_dump", redactSecrets(string(respDump))).
			Msg("HTTP response")
	}
	return resp, nil
}

const redacted = "REDACTED"

// maskPassword returns a copy of u with the password query value masked.
func maskPassword(u *url.URL) (*url.URL, bool) {
	q := u.Query()
	if !q.Has("password") {
		return u, false
	}
	q.Set("password", redacted)
	masked := *u
	masked.RawQuery = q.Encode()
	return &masked, true
}

func redactURL(u *url.URL) string {
	masked, _ := maskPassword(u)
	return masked.String()
}

// redactDump masks the password inside the request line of a dump.
func redactDump(dump string, u *url.URL) string {
	masked, ok := maskPassword(u)
	if !ok {
		return dump
	}
	return strings.Replace(dump, u.RequestURI(), masked.RequestURI(), 1)
}

var (
	jsonSecret = regexp.MustCompile(`("secret"\s*:\s*)"(?:[^"\\]|\\.)*"`)
	formSecret = regexp.MustCompile(`(oauth_token_secret=)[^&\s]*`)
)

// redactSecrets masks the consumer secret and token secrets in a response dump.
func redactSecrets(dump string) string {
	dump = jsonSecret.ReplaceAllString(dump, `${1}"`+redacted+`"`)
	return formSecret.ReplaceAllString(dump, "${1}"+redacted)
}
