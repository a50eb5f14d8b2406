package discovergy

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// API defines the read operations available once a Client is logged in
type API interface {
	// GetMeters retrieves all meters of the account
	GetMeters(ctx context.Context) ([]Meter, error)

	// GetFieldNames retrieves the measurement field names of a meter
	GetFieldNames(ctx context.Context, meterID string) ([]string, error)

	// GetLastReading retrieves the most recent measurement of a meter
	GetLastReading(ctx context.Context, meterID string) (Reading, error)

	// GetDisaggregation retrieves per-device consumption estimates
	GetDisaggregation(ctx context.Context, meterID string, start, end time.Time) (Disaggregation, error)

	// GetReadings retrieves measurements in a time window
	GetReadings(ctx context.Context, meterID string, start, end time.Time, resolution Resolution) ([]Reading, error)

	// GetActivities retrieves the activities recognised in a time window
	GetActivities(ctx context.Context, meterID string, start, end time.Time) ([]Activity, error)
}

// Authorizer builds the request that trades a request token and the account
// credentials for an OAuth verifier. The response body must be form encoded
// and carry oauth_verifier.
type Authorizer interface {
	AuthorizeRequest(ctx context.Context, authorizeURL string, requestToken Token, email, password string) (*http.Request, error)
}

// QueryAuthorizer sends email and password as query parameters of a GET
// request. This is the only mechanism the vendor supports.
type QueryAuthorizer struct{}

// AuthorizeRequest implements Authorizer
func (QueryAuthorizer) AuthorizeRequest(ctx context.Context, authorizeURL string, requestToken Token, email, password string) (*http.Request, error) {
	params := url.Values{}
	params.Set("oauth_token", requestToken.Token)
	params.Set("email", email)
	params.Set("password", password)

	return http.NewRequestWithContext(ctx, http.MethodGet, authorizeURL+"?"+params.Encode(), nil)
}

var _ API = (*Client)(nil)
