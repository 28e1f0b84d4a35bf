package sigv4

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// AuthMode says how a raw caller-supplied key should be used.
type AuthMode int

const (
	// AuthSigV4 means the key decomposed into an AWS key pair; sign requests.
	AuthSigV4 AuthMode = iota
	// AuthBearer means the key is an opaque token; send it as
	// "Authorization: Bearer <token>" and skip signing entirely.
	AuthBearer
)

// ErrUnsupportedCredentialFormat is returned for key material that is neither
// a recognizable AWS pair nor usable as a bearer token.
var ErrUnsupportedCredentialFormat = fmt.Errorf("unsupported credential format")

// ParseCredentials decodes the heterogeneous credential formats callers
// supply for Bedrock:
//
//  1. "accessKeyId:secretAccessKey[:sessionToken]" — colon-delimited pair
//  2. a doubly-base64-encoded blob: one decode yields "label:base64payload",
//     a second decode of the payload yields either JSON
//     {accessKeyId, secretAccessKey} or another colon-delimited pair
//  3. anything else — treated as a bearer token (AuthBearer); signing is
//     bypassed and the raw value goes into the Authorization header
//
// Formats observed in the wild beyond these are rejected rather than guessed.
func ParseCredentials(raw string) (Credentials, AuthMode, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Credentials{}, AuthSigV4, fmt.Errorf("empty credentials: %w", ErrUnsupportedCredentialFormat)
	}

	if creds, ok := parseColonPair(raw); ok {
		return creds, AuthSigV4, nil
	}

	if creds, ok := parseDoubleBase64(raw); ok {
		return creds, AuthSigV4, nil
	}

	// Not an AWS pair in any known encoding: bearer-token mode.
	return Credentials{}, AuthBearer, nil
}

// parseColonPair handles "id:secret[:token]". The id must look like an AWS
// access key id (AKIA/ASIA prefix, upper-case alphanumeric) to avoid
// misreading bearer tokens that happen to contain a colon.
func parseColonPair(raw string) (Credentials, bool) {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return Credentials{}, false
	}
	if !looksLikeAccessKeyID(parts[0]) || parts[1] == "" {
		return Credentials{}, false
	}
	creds := Credentials{AccessKeyID: parts[0], SecretAccessKey: parts[1]}
	if len(parts) == 3 {
		creds.SessionToken = parts[2]
	}
	return creds, true
}

func looksLikeAccessKeyID(s string) bool {
	if len(s) < 16 || len(s) > 32 {
		return false
	}
	if !strings.HasPrefix(s, "AKIA") && !strings.HasPrefix(s, "ASIA") {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// parseDoubleBase64 handles the doubly-encoded blob format: the outer decode
// yields "label:base64payload"; the inner decode yields either JSON or a
// colon pair.
func parseDoubleBase64(raw string) (Credentials, bool) {
	outer, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return Credentials{}, false
	}

	idx := strings.Index(string(outer), ":")
	if idx <= 0 {
		return Credentials{}, false
	}
	payload := string(outer)[idx+1:]

	inner, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Credentials{}, false
	}

	// JSON {accessKeyId, secretAccessKey, sessionToken?}
	var doc struct {
		AccessKeyID     string `json:"accessKeyId"`
		SecretAccessKey string `json:"secretAccessKey"`
		SessionToken    string `json:"sessionToken"`
	}
	if err := json.Unmarshal(inner, &doc); err == nil && doc.AccessKeyID != "" && doc.SecretAccessKey != "" {
		return Credentials{
			AccessKeyID:     doc.AccessKeyID,
			SecretAccessKey: doc.SecretAccessKey,
			SessionToken:    doc.SessionToken,
		}, true
	}

	// Nested colon pair
	if creds, ok := parseColonPair(string(inner)); ok {
		return creds, true
	}

	return Credentials{}, false
}

// ChainCredentials loads credentials from the standard AWS credential chain
// (environment, shared config, IAM roles) via aws-sdk-go-v2. Used when the
// caller supplies no key material at all.
func ChainCredentials(ctx context.Context, region string) (Credentials, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	creds, err := cfg.Credentials.Retrieve(ctx)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to retrieve AWS credentials: %w", err)
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return Credentials{}, fmt.Errorf("AWS credential chain returned empty credentials")
	}

	return fromSDK(creds), nil
}

func fromSDK(c aws.Credentials) Credentials {
	return Credentials{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		SessionToken:    c.SessionToken,
	}
}
