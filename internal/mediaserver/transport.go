package mediaserver

import (
	"net/http"

	"golang.org/x/oauth2"

	"replex/pkg/plextv"
)

// HeaderSessionIdentifier correlates the requests of one client instance.
const HeaderSessionIdentifier = "X-Plex-Session-Identifier"

// transport decorates requests with the device headers and the current token.
// The token is pulled from the source on every request, so a logout or a new
// login is picked up without rebuilding the client.
type transport struct {
	base      http.RoundTripper
	source    oauth2.TokenSource
	device    plextv.Device
	sessionID string
}

// RoundTrip implements http.RoundTripper.
func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.source.Token()
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, &tokenError{err: err}
	}

	// RoundTrippers must not modify the caller's request.
	r := req.Clone(req.Context())
	t.device.Apply(r.Header)
	r.Header.Set(HeaderSessionIdentifier, t.sessionID)
	r.Header.Set(plextv.HeaderToken, tok.AccessToken)

	return t.base.RoundTrip(r)
}

// tokenError marks a failure to obtain a token, as opposed to a transport failure.
type tokenError struct {
	err error
}

func (e *tokenError) Error() string {
	return "no usable token: " + e.err.Error()
}

func (e *tokenError) Unwrap() error {
	return e.err
}
