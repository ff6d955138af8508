package session

import (
	"net/http"

	"golang.org/x/oauth2"
)

// Transport attaches the gate's credential to each request and reports
// 401 responses back to the gate. The response itself is returned unchanged.
type Transport struct {
	gate *Gate
	base http.RoundTripper
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
func NewTransport(gate *Gate, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{gate: gate, base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, ok := t.gate.Token()
	if ok {
		req = req.Clone(req.Context())
		tok := &oauth2.Token{AccessToken: token, TokenType: "Bearer"}
		tok.SetAuthHeader(req)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized && ok {
		t.gate.Reject(req.Context(), token)
	}
	return resp, nil
}
