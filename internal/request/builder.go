// Package request translates a prompt plus provider metadata into a
// backend-specific HTTP request shape.
//
// DESIGN: Purely functional over the provider format. Each backend family
// gets a typed request struct and json.Marshal — no string templating. The
// one place a body is patched dynamically (injecting the model id for
// proxy-routed Bedrock) uses sjson.
package request

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/inboxpilot/ai-gateway/internal/providers"
)

const (
	// defaultTemperature for chat-style backends.
	defaultTemperature = 0.7

	// bedrockMaxTokens caps generation length for all Bedrock families.
	bedrockMaxTokens = 4000
)

// Params are the inputs to Build.
type Params struct {
	Format       providers.Format
	BaseURL      string // already resolved via ResolveBaseURL
	Model        string
	APIKey       string
	SystemPrompt string
	Prompt       string
}

// Built is a ready-to-execute request shape.
type Built struct {
	Endpoint string
	Headers  map[string]string
	Body     []byte
}

// ResolveBaseURL applies the endpoint precedence: explicit caller override,
// then the registry descriptor, then the hardcoded local default.
func ResolveBaseURL(override string, desc *providers.Descriptor) string {
	if override != "" {
		return override
	}
	if desc != nil && desc.BaseURL != "" {
		return desc.BaseURL
	}
	return providers.DefaultBaseURL
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type anthropicBedrockRequest struct {
	AnthropicVersion string        `json:"anthropic_version"`
	MaxTokens        int           `json:"max_tokens"`
	Messages         []chatMessage `json:"messages"`
}

type amazonTitanRequest struct {
	InputText            string                `json:"inputText"`
	TextGenerationConfig titanGenerationConfig `json:"textGenerationConfig"`
}

type titanGenerationConfig struct {
	MaxTokenCount int     `json:"maxTokenCount"`
	Temperature   float64 `json:"temperature"`
	TopP          float64 `json:"topP"`
}

type ai21Request struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type cohereRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Build constructs the endpoint, headers, and body for one backend call.
func Build(p Params) (*Built, error) {
	switch p.Format {
	case providers.FormatOllama:
		return buildOllama(p)
	case providers.FormatBedrock:
		return buildBedrock(p)
	default:
		// FormatOpenAI and FormatCustom share the OpenAI chat shape.
		return buildOpenAI(p)
	}
}

func buildOpenAI(p Params) (*Built, error) {
	messages := []chatMessage{}
	if p.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: p.Prompt})

	body, err := json.Marshal(&openAIChatRequest{
		Model:       p.Model,
		Messages:    messages,
		Temperature: defaultTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal openai request: %w", err)
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if p.APIKey != "" {
		headers["Authorization"] = "Bearer " + p.APIKey
	}

	return &Built{
		Endpoint: joinURL(p.BaseURL, "/chat/completions"),
		Headers:  headers,
		Body:     body,
	}, nil
}

func buildOllama(p Params) (*Built, error) {
	body, err := json.Marshal(&ollamaChatRequest{
		Model:    p.Model,
		Messages: []chatMessage{{Role: "user", Content: p.Prompt}},
		Stream:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	return &Built{
		Endpoint: joinURL(p.BaseURL, "/api/chat"),
		Headers:  map[string]string{"Content-Type": "application/json"},
		Body:     body,
	}, nil
}

func buildBedrock(p Params) (*Built, error) {
	body, err := buildBedrockBody(p)
	if err != nil {
		return nil, err
	}

	endpoint := joinURL(p.BaseURL, "/model/"+p.Model+"/invoke")
	if strings.Contains(p.BaseURL, "execute-api") {
		// CORS proxy deployment: the proxy URL is used verbatim and the
		// model id rides in the body instead of the path.
		endpoint = p.BaseURL
		body, err = sjson.SetBytes(body, "modelId", p.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to inject model id for proxy request: %w", err)
		}
	}

	return &Built{
		Endpoint: endpoint,
		Headers:  map[string]string{"Content-Type": "application/json"},
		Body:     body,
	}, nil
}

func buildBedrockBody(p Params) ([]byte, error) {
	switch providers.FamilyOfModel(p.Model) {
	case providers.FamilyAnthropic:
		return json.Marshal(&anthropicBedrockRequest{
			AnthropicVersion: "bedrock-2023-05-31",
			MaxTokens:        bedrockMaxTokens,
			Messages:         []chatMessage{{Role: "user", Content: p.Prompt}},
		})
	case providers.FamilyAmazon:
		return json.Marshal(&amazonTitanRequest{
			InputText: p.Prompt,
			TextGenerationConfig: titanGenerationConfig{
				MaxTokenCount: bedrockMaxTokens,
				Temperature:   defaultTemperature,
				TopP:          0.9,
			},
		})
	case providers.FamilyAI21:
		return json.Marshal(&ai21Request{
			Prompt:      p.Prompt,
			MaxTokens:   bedrockMaxTokens,
			Temperature: defaultTemperature,
		})
	case providers.FamilyCohere:
		return json.Marshal(&cohereRequest{
			Prompt:      p.Prompt,
			MaxTokens:   bedrockMaxTokens,
			Temperature: defaultTemperature,
		})
	default:
		return nil, fmt.Errorf("unsupported bedrock model family for model %q", p.Model)
	}
}

// BuildOllamaFallback reshapes a built /api/chat request into the legacy
// /api/generate form, reusing the original headers. Used when the server
// rejects the chat endpoint with 405.
func BuildOllamaFallback(b *Built) (*Built, error) {
	var chat ollamaChatRequest
	if err := json.Unmarshal(b.Body, &chat); err != nil {
		return nil, fmt.Errorf("failed to parse chat request for fallback: %w", err)
	}
	if len(chat.Messages) == 0 {
		return nil, fmt.Errorf("chat request has no messages to fall back with")
	}

	body, err := json.Marshal(&ollamaGenerateRequest{
		Model:  chat.Model,
		Prompt: chat.Messages[0].Content,
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	return &Built{
		Endpoint: strings.Replace(b.Endpoint, "/api/chat", "/api/generate", 1),
		Headers:  b.Headers,
		Body:     body,
	}, nil
}

func joinURL(base, suffix string) string {
	return strings.TrimRight(base, "/") + suffix
}
