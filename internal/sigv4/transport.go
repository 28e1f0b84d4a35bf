package sigv4

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SigningTransport is an http.RoundTripper that signs every request with
// SigV4 before forwarding it. Useful for callers that want to reuse a plain
// *http.Client against Bedrock (e.g. foundation-model listing).
type SigningTransport struct {
	Credentials Credentials
	Region      string
	Base        http.RoundTripper

	// Now overrides the signing timestamp; nil means time.Now. Tests use it
	// to produce deterministic signatures.
	Now func() time.Time
}

// RoundTrip implements http.RoundTripper.
func (t *SigningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body for signing: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	now := time.Now()
	if t.Now != nil {
		now = t.Now()
	}

	extra := map[string]string{}
	if ct := req.Header.Get("Content-Type"); ct != "" {
		extra["Content-Type"] = ct
	}

	signed, err := Sign(req.Method, req.URL.String(), body, t.Credentials, t.Region, now, extra)
	if err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	for k, v := range signed.Headers {
		if k == "Host" {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	// Reset body reader after signing
	if body != nil {
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
