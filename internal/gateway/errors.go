package gateway

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a gateway failure for the caller's remediation hint.
type ErrorKind int

const (
	// KindGeneric covers failures with no more specific classification.
	KindGeneric ErrorKind = iota
	// KindConfiguration: unknown service, unsupported model family, missing
	// required API key. Fatal, never retried.
	KindConfiguration
	// KindAuthentication: 401/403 or credential decoding failure.
	KindAuthentication
	// KindNotFound: 404.
	KindNotFound
	// KindRateLimit: 429. Retry policy is the caller's responsibility.
	KindRateLimit
	// KindTransient: 5xx.
	KindTransient
	// KindProtocolMismatch: Ollama 405, the one case with an automatic
	// single-shot fallback.
	KindProtocolMismatch
)

// String returns a short tag for log fields.
func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	case KindTransient:
		return "transient"
	case KindProtocolMismatch:
		return "protocol_mismatch"
	default:
		return "generic"
	}
}

// maxExcerptLen bounds the response-body excerpt carried on errors.
const maxExcerptLen = 200

// Error is a classified gateway failure. It carries the original HTTP status
// and a body excerpt so the caller can render a specific remediation hint.
type Error struct {
	Kind        ErrorKind
	Status      int
	BodyExcerpt string
	msg         string
	err         error
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := e.msg
	if e.Status != 0 {
		s = fmt.Sprintf("%s (status %d)", s, e.Status)
	}
	if e.BodyExcerpt != "" {
		s = fmt.Sprintf("%s: %s", s, e.BodyExcerpt)
	}
	return s
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

func configErr(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, msg: fmt.Sprintf(format, args...)}
}

func authErr(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, msg: fmt.Sprintf(format, args...), err: cause}
}

// classifyStatus maps a non-200 HTTP response to an Error per the status
// table. ollama405 marks the one retryable case.
func classifyStatus(status int, body []byte, ollama bool) *Error {
	excerpt := bodyExcerpt(body)
	switch {
	case status == 401 || status == 403:
		return &Error{
			Kind:        KindAuthentication,
			Status:      status,
			BodyExcerpt: excerpt,
			msg:         "authentication rejected by provider; check your API key",
		}
	case status == 404:
		return &Error{
			Kind:        KindNotFound,
			Status:      status,
			BodyExcerpt: excerpt,
			msg:         "endpoint or model not found",
		}
	case status == 405 && ollama:
		return &Error{
			Kind:        KindProtocolMismatch,
			Status:      status,
			BodyExcerpt: excerpt,
			msg:         "chat endpoint not supported by this ollama server",
		}
	case status == 429:
		return &Error{
			Kind:        KindRateLimit,
			Status:      status,
			BodyExcerpt: excerpt,
			msg:         "provider rate limit exceeded",
		}
	case status >= 500:
		return &Error{
			Kind:        KindTransient,
			Status:      status,
			BodyExcerpt: excerpt,
			msg:         "provider server error",
		}
	default:
		return &Error{
			Kind:        KindGeneric,
			Status:      status,
			BodyExcerpt: excerpt,
			msg:         "provider request failed",
		}
	}
}

// bodyExcerpt extracts a short, human-useful excerpt from an error body:
// the error message field when the body is JSON, otherwise the first 200
// characters verbatim.
func bodyExcerpt(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "error", "message"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
				return clip(v.String())
			}
		}
	}
	return clip(string(body))
}

func clip(s string) string {
	if len(s) > maxExcerptLen {
		return s[:maxExcerptLen]
	}
	return s
}
