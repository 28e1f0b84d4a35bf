// Package gateway dispatches a single logical completion request against one
// of several structurally incompatible backend AI APIs.
//
// DESIGN: One call flows through a fixed sequence of steps:
//
//	ResolveProvider → Preprocess → BuildRequest → SignIfBedrock → Execute
//	→ FallbackRetry (Ollama 405 only) → ExtractResponse → Done
//
// Errors are classified (errors.go) and surfaced; only the Ollama
// chat-endpoint mismatch triggers an automatic retry, exactly once. Each call
// is independent: no shared mutable state, no gateway-level timeout (callers
// cancel via context), no retries beyond the documented fallback. Diagnostic
// records (truncation, HTML conversion, usage) are returned on the Result
// instead of being parked on the gateway instance, so concurrent calls don't
// race on advisory data.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/inboxpilot/ai-gateway/internal/content"
	"github.com/inboxpilot/ai-gateway/internal/monitoring"
	"github.com/inboxpilot/ai-gateway/internal/providers"
	"github.com/inboxpilot/ai-gateway/internal/request"
	"github.com/inboxpilot/ai-gateway/internal/response"
	"github.com/inboxpilot/ai-gateway/internal/sigv4"
)

const (
	// maxResponseSize prevents OOM on unexpectedly large API responses (10MB).
	maxResponseSize = 10 * 1024 * 1024

	// defaultRegion when the caller supplies none for Bedrock.
	defaultRegion = "us-east-1"
)

// CallType tags a call for logging. Never branched on.
type CallType string

const (
	CallAnalysis    CallType = "analysis"
	CallResponse    CallType = "response"
	CallFollowup    CallType = "followup"
	CallRefinement  CallType = "refinement"
	CallHealthCheck CallType = "health-check"
)

// CallConfig is the per-call request configuration supplied by the caller.
// Nothing in it is persisted by the gateway.
type CallConfig struct {
	Service     string // service key into the provider registry
	APIKey      string // raw key material; format depends on the provider
	EndpointURL string // optional base-URL override
	Model       string // optional model override
	Region      string // Bedrock only
}

// Result is the canonical outcome of one completed call.
type Result struct {
	Text string
	// Degraded is set when the response shape was unrecognized and Text is
	// the stringified payload.
	Degraded   bool
	Truncation content.TruncationResult
	Conversion content.ConversionInfo
	Usage      response.Usage
	RequestID  string
	Duration   time.Duration
}

// Gateway dispatches completion calls. Safe for concurrent use.
type Gateway struct {
	registry     *providers.Registry
	client       *http.Client
	systemPrompt string
	tokens       content.TokenCounter
	now          func() time.Time
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithHTTPClient overrides the HTTP client (testing, connection pooling).
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.client = c }
}

// WithSystemPrompt sets the system message sent to OpenAI-compatible
// backends.
func WithSystemPrompt(prompt string) Option {
	return func(g *Gateway) { g.systemPrompt = prompt }
}

// WithClock overrides the signing clock for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// New creates a Gateway over a provider registry.
func New(registry *providers.Registry, opts ...Option) *Gateway {
	g := &Gateway{
		registry: registry,
		client:   &http.Client{}, // timeouts come from the caller's context
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Complete runs one prompt against the configured provider and returns the
// canonical response text. On success Result.Text is always non-empty; an
// unrecognized response shape degrades to the stringified payload rather
// than failing.
func (g *Gateway) Complete(ctx context.Context, cfg CallConfig, prompt string, callType CallType) (*Result, error) {
	start := g.now()
	requestID := monitoring.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = monitoring.WithRequestIDContext(ctx, requestID)
	}
	logger := log.With().
		Str("request_id", requestID).
		Str("service", cfg.Service).
		Str("call_type", string(callType)).
		Logger()

	// ResolveProvider. Unknown service is fatal, never retried.
	desc := g.registry.Get(cfg.Service)
	if desc == nil {
		return nil, configErr("unknown or unconfigured service %q", cfg.Service)
	}
	if desc.RequiresAPIKey && cfg.APIKey == "" && desc.Format != providers.FormatBedrock {
		return nil, configErr("service %q requires an API key", cfg.Service)
	}

	// Preprocess: convert HTML-heavy content, then enforce the prompt budget.
	processed, conversion := content.ConvertIfRecommended(prompt)
	truncation := content.TruncateEmailContent(processed, content.PromptBudget())

	model := desc.Model(cfg.Model)
	built, err := request.Build(request.Params{
		Format:       desc.Format,
		BaseURL:      request.ResolveBaseURL(cfg.EndpointURL, desc),
		Model:        model,
		APIKey:       cfg.APIKey,
		SystemPrompt: g.systemPrompt,
		Prompt:       truncation.Content,
	})
	if err != nil {
		return nil, configErr("failed to build request for %q: %v", cfg.Service, err)
	}

	// SignIfBedrock.
	if desc.Format == providers.FormatBedrock {
		if err := g.authorizeBedrock(ctx, cfg, built); err != nil {
			return nil, err
		}
	}

	logger.Debug().
		Str("format", desc.Format.String()).
		Str("model", model).
		Str("endpoint", built.Endpoint).
		Int("prompt_tokens_est", g.tokens.Count(truncation.Content)).
		Bool("truncated", truncation.WasTruncated).
		Msg("dispatching completion request")

	// Execute, with the single documented fallback.
	status, body, err := g.execute(ctx, built)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		apiErr := classifyStatus(status, body, desc.Format == providers.FormatOllama)
		if apiErr.Kind != KindProtocolMismatch {
			return nil, apiErr
		}

		// FallbackRetry: the server rejected /api/chat; retry once against
		// the legacy /api/generate endpoint. A second failure surfaces.
		logger.Warn().Msg("ollama chat endpoint rejected with 405, retrying against /api/generate")
		fallback, err := request.BuildOllamaFallback(built)
		if err != nil {
			return nil, configErr("failed to build ollama fallback request: %v", err)
		}
		status, body, err = g.execute(ctx, fallback)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, classifyStatus(status, body, false)
		}
	}

	// ExtractResponse.
	ext := response.Extract(body, desc.Format, providers.FamilyOfModel(model))
	if ext.Degraded {
		logger.Warn().Msg("response shape unrecognized, returning stringified payload")
	}

	result := &Result{
		Text:       ext.Text,
		Degraded:   ext.Degraded,
		Truncation: truncation,
		Conversion: conversion,
		Usage:      response.ExtractUsage(body, desc.Format),
		RequestID:  requestID,
		Duration:   g.now().Sub(start),
	}

	logger.Info().
		Dur("duration", result.Duration).
		Int("input_tokens", result.Usage.InputTokens).
		Int("output_tokens", result.Usage.OutputTokens).
		Bool("degraded", result.Degraded).
		Msg("completion request finished")

	return result, nil
}

// authorizeBedrock resolves credentials and attaches either SigV4 headers or
// a bearer Authorization header to the built request. Bearer mode is chosen
// when the raw key does not decompose into an AWS key/secret pair.
func (g *Gateway) authorizeBedrock(ctx context.Context, cfg CallConfig, built *request.Built) error {
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	var creds sigv4.Credentials
	if cfg.APIKey == "" {
		// No caller-supplied key: fall back to the AWS default chain.
		var err error
		creds, err = sigv4.ChainCredentials(ctx, region)
		if err != nil {
			return authErr(err, "no bedrock credentials available")
		}
	} else {
		parsed, mode, err := sigv4.ParseCredentials(cfg.APIKey)
		if err != nil {
			return authErr(err, "failed to decode bedrock credentials")
		}
		if mode == sigv4.AuthBearer {
			built.Headers["Authorization"] = "Bearer " + cfg.APIKey
			return nil
		}
		creds = parsed
	}

	signed, err := sigv4.Sign(http.MethodPost, built.Endpoint, built.Body, creds, region, g.now(), built.Headers)
	if err != nil {
		return authErr(err, "failed to sign bedrock request")
	}
	for k, v := range signed.Headers {
		built.Headers[k] = v
	}
	return nil
}

// execute performs one HTTP call and returns (status, body). Transport-level
// failures (DNS, connection refused, context cancellation) are returned as
// errors; HTTP-level failures are returned as a non-200 status for the
// caller to classify.
func (g *Gateway) execute(ctx context.Context, built *request.Built) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, built.Endpoint, bytes.NewReader(built.Body))
	if err != nil {
		return 0, nil, configErr("failed to create request for %s: %v", built.Endpoint, err)
	}
	for k, v := range built.Headers {
		if k == "Host" {
			req.Host = v
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request to %s failed: %w", built.Endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response from %s: %w", built.Endpoint, err)
	}
	return resp.StatusCode, body, nil
}
