package discovergy

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientName = "TestClient"
	testEmail      = "user@example.com"
	testPassword   = "p&ss word"

	testConsumerKey  = "consumer-key"
	testRequestToken = "request-token"
	testVerifier     = "verifier-123"
	testAccessToken  = "access-token"
	testAccessSecret = "access-secret"
	testMeterID      = "c1972a89ce3a4d58aadb7c4b3e7a9a2b"
)

const (
	mockResponseMeters = `[{
		"meterId": "c1972a89ce3a4d58aadb7c4b3e7a9a2b",
		"manufacturerId": "ESY",
		"serialNumber": "60031234",
		"fullSerialNumber": "1ESY1160031234",
		"location": {
			"street": "Teststraße",
			"streetNumber": "1",
			"zip": "52062",
			"city": "Aachen",
			"country": "DE"
		},
		"administrationNumber": "",
		"type": "EASYMETER",
		"measurementType": "ELECTRICITY",
		"loadProfileType": "SLP",
		"scalingFactor": 1,
		"currentScalingFactor": 1,
		"voltageScalingFactor": 1,
		"internalMeters": 1,
		"firstMeasurementTime": 1517569090926,
		"lastMeasurementTime": 1574244172836
	}]`
	mockResponseFieldNames     = `["energy","energyOut","power","power1","power2","power3","voltage1","voltage2","voltage3"]`
	mockResponseLastReading    = `{"time":1574243404449,"values":{"power":5861890,"power3":1020230,"energyOut":10000,"power1":2187320,"energy":413189496760000,"power2":2654340}}`
	mockResponseDisaggregation = `{"1574243400000":{"Grundlast-1":1262130000,"Kühlschrank-1":62040000},"1574244300000":{"Grundlast-1":1251750000}}`
	mockResponseReadings       = `[{"time":1574243404449,"values":{"power":5861890,"energy":413189496760000}},{"time":1574243584449,"values":{"power":5790210,"energy":413189787560000}}]`
	mockResponseActivities     = `[{"deviceName":"Kühlschrank-1","startTime":1574243404449,"endTime":1574243584449,"id":"a1"}]`
)

type stageResponse struct {
	status int
	body   string
}

// mockVendor is an httptest backed stand-in for the Discovergy API.
type mockVendor struct {
	t *testing.T

	consumer     stageResponse
	requestToken stageResponse
	authorize    stageResponse
	accessToken  stageResponse
	data         map[string]stageResponse

	mu      sync.Mutex
	hits    map[string]int
	queries map[string]url.Values
	forms   map[string]url.Values
	headers map[string]http.Header

	server *httptest.Server
}

func newMockVendor(t *testing.T) *mockVendor {
	t.Helper()

	m := &mockVendor{
		t:            t,
		consumer:     stageResponse{http.StatusOK, `{"key":"consumer-key","secret":"consumer-secret","owner":"TestClient","attributes":{}}`},
		requestToken: stageResponse{http.StatusOK, "oauth_token=request-token&oauth_token_secret=request-secret&oauth_callback_confirmed=true"},
		authorize:    stageResponse{http.StatusOK, "oauth_verifier=verifier-123"},
		accessToken:  stageResponse{http.StatusOK, "oauth_token=access-token&oauth_token_secret=access-secret"},
		data: map[string]stageResponse{
			"/meters":         {http.StatusOK, mockResponseMeters},
			"/field_names":    {http.StatusOK, mockResponseFieldNames},
			"/last_reading":   {http.StatusOK, mockResponseLastReading},
			"/disaggregation": {http.StatusOK, mockResponseDisaggregation},
			"/readings":       {http.StatusOK, mockResponseReadings},
		},
		hits:    map[string]int{},
		queries: map[string]url.Values{},
		forms:   map[string]url.Values{},
		headers: map[string]http.Header{},
	}

	m.server = httptest.NewServer(http.HandlerFunc(m.serveHTTP))
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockVendor) serveHTTP(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.hits[r.URL.Path]++
	m.queries[r.URL.Path] = r.URL.Query()
	m.headers[r.URL.Path] = r.Header.Clone()
	if r.Method == http.MethodPost && strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err == nil {
			m.forms[r.URL.Path] = r.PostForm
		}
	}
	m.mu.Unlock()

	var resp stageResponse
	switch r.URL.Path {
	case consumerTokenPath:
		resp = m.consumer
	case requestTokenPath:
		resp = m.requestToken
	case authorizePath:
		resp = m.authorize
	case accessTokenPath:
		resp = m.accessToken
	default:
		if !strings.Contains(r.Header.Get("Authorization"), `oauth_token="`+testAccessToken+`"`) {
			http.Error(w, "unsigned request", http.StatusUnauthorized)
			return
		}
		var ok bool
		resp, ok = m.data[r.URL.Path]
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
	}

	w.WriteHeader(resp.status)
	w.Write([]byte(resp.body))
}

func (m *mockVendor) hitCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

func (m *mockVendor) totalHits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.hits {
		total += n
	}
	return total
}

func (m *mockVendor) query(path string) url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries[path]
}

func (m *mockVendor) form(path string) url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forms[path]
}

func (m *mockVendor) header(path string) http.Header {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.headers[path]
}

func (m *mockVendor) newClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithBaseURL(m.server.URL), WithLogger(zerolog.Nop())}, opts...)
	client, err := NewClient(testClientName, opts...)
	require.NoError(t, err)
	return client
}

func (m *mockVendor) loggedInClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	client := m.newClient(t, opts...)
	require.NoError(t, client.Login(t.Context(), testEmail, testPassword))
	assert.True(t, client.LoggedIn())
	return client
}
