// Package sigv4 implements AWS Signature Version 4 request signing for the
// Bedrock Runtime API.
//
// DESIGN: The signer is a pure function of (method, URL, body, credentials,
// region, timestamp) → headers. The timestamp is an explicit argument so
// signatures are deterministic and testable against known vectors. Query
// strings are always empty in this gateway's usage, so the canonical query
// line is fixed to blank.
package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	algorithm   = "AWS4-HMAC-SHA256"
	serviceName = "bedrock"
	timeFormat  = "20060102T150405Z"
)

// Credentials is a resolved AWS key pair, optionally with a session token.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// SignedRequest carries the headers to attach to the outbound request.
type SignedRequest struct {
	Headers map[string]string
}

// Sign produces SigV4 headers for a single request. extraHeaders (e.g.
// Content-Type) are included in the canonical request and returned alongside
// the generated Authorization, Host, and X-Amz-Date headers.
func Sign(method, rawURL string, body []byte, creds Credentials, region string, now time.Time, extraHeaders map[string]string) (*SignedRequest, error) {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, fmt.Errorf("sigv4: access key id and secret are required")
	}
	if region == "" {
		return nil, fmt.Errorf("sigv4: region is required")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("sigv4: invalid url %q: %w", rawURL, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	amzDate := now.UTC().Format(timeFormat)
	date := amzDate[:8]

	headers := map[string]string{
		"Host":       u.Host,
		"X-Amz-Date": amzDate,
	}
	for k, v := range extraHeaders {
		headers[k] = v
	}
	if creds.SessionToken != "" {
		headers["X-Amz-Security-Token"] = creds.SessionToken
	}

	canonicalHeaders, signedHeaders := canonicalizeHeaders(headers)
	payloadHash := hashHex(body)

	canonicalRequest := strings.Join([]string{
		method,
		path,
		"", // query string: always empty here
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	scope := strings.Join([]string{date, region, serviceName, "aws4_request"}, "/")
	stringToSign := strings.Join([]string{
		algorithm,
		amzDate,
		scope,
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	signingKey := deriveSigningKey(creds.SecretAccessKey, date, region)
	signature := hex.EncodeToString(hmacSHA256(signingKey, stringToSign))

	headers["Authorization"] = fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, creds.AccessKeyID, scope, signedHeaders, signature)

	return &SignedRequest{Headers: headers}, nil
}

// canonicalizeHeaders lower-cases keys, sorts them, and joins key:value pairs
// per the SigV4 canonical form. Values are trimmed of surrounding whitespace.
func canonicalizeHeaders(headers map[string]string) (canonical, signed string) {
	keys := make([]string, 0, len(headers))
	lowered := make(map[string]string, len(headers))
	for k, v := range headers {
		lk := strings.ToLower(k)
		keys = append(keys, lk)
		lowered[lk] = strings.TrimSpace(v)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(":")
		b.WriteString(lowered[k])
		b.WriteString("\n")
	}
	return b.String(), strings.Join(keys, ";")
}

// deriveSigningKey runs the four-step HMAC chain. Each step consumes the
// previous raw byte output as the next key.
func deriveSigningKey(secret, date, region string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), date)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, serviceName)
	return hmacSHA256(kService, "aws4_request")
}

func hmacSHA256(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
