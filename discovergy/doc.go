// Package discovergy provides a client for the Discovergy smart meter API.
//
// Discovergy exposes meter data over HTTP/JSON behind OAuth 1.0a. This
// package performs the three-legged handshake with email and password and
// then reads meters, field names, readings, disaggregation and activities
// over the signed session.
//
// # Architecture
//
//   - Client: handshake state machine and signed read calls
//   - Session: consumer credential plus access token, immutable once built
//   - Authorizer: how the request token is authorized (vendor specific)
//   - Lenient: fail-soft wrapper that logs and returns empty results
//   - Errors: stage sentinels and transport/protocol/decode error types
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := discovergy.NewClient("my-app",
//		discovergy.WithLogger(logger),
//		discovergy.WithTimeout(10*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx := context.Background()
//	if err := client.Login(ctx, "user@example.com", "secret"); err != nil {
//		log.Fatal(err)
//	}
//
//	meters, err := client.GetMeters(ctx)
//
// # Handshake
//
// Login runs four dependent round trips in order:
//
//  1. POST /oauth1/consumer_token with the client name (key, secret)
//  2. POST /oauth1/request_token, signed, callback "oob"
//  3. GET /oauth1/authorize with token, email and password (oauth_verifier)
//  4. POST /oauth1/access_token, signed, with the verifier
//
// A failure at any stage abandons the handshake. Nothing from a failed
// attempt is reused; call Login again.
//
// # Error Handling
//
// Handshake failures match ErrCredential, ErrToken or ErrAuthorization and
// wrap one of:
//
//   - *TransportError: network or timeout failure
//   - *APIError: non-200 HTTP status
//   - *DecodeError: body malformed or missing an expected field
//
// Read calls return the same error types directly, and ErrNotLoggedIn
// without touching the network when no session exists.
//
//	if discovergy.IsProtocol(err) {
//		// vendor rejected the request
//	}
//
// Response bodies are decoded with json.Number for numbers, so values such as
// 413189496760000 round-trip exactly.
package discovergy
