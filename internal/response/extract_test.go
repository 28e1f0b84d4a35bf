package response

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inboxpilot/ai-gateway/internal/providers"
)

func TestExtractOpenAI(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"chat_completions", `{"choices":[{"message":{"content":"hello"}}]}`, "hello"},
		{"legacy_completions", `{"choices":[{"text":"legacy"}]}`, "legacy"},
		{"bare_response_field", `{"response":"bare"}`, "bare"},
		{"bare_text_field", `{"text":"t"}`, "t"},
		{"bare_content_field", `{"content":"c"}`, "c"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := Extract([]byte(tc.body), providers.FormatOpenAI, providers.FamilyUnknown)
			assert.Equal(t, tc.want, e.Text)
			assert.False(t, e.Degraded)
		})
	}
}

func TestExtractOllama(t *testing.T) {
	t.Run("generate_response_field_wins", func(t *testing.T) {
		e := Extract([]byte(`{"response":"gen","message":{"content":"chat"}}`), providers.FormatOllama, providers.FamilyUnknown)
		assert.Equal(t, "gen", e.Text)
	})

	t.Run("chat_message_content", func(t *testing.T) {
		e := Extract([]byte(`{"message":{"role":"assistant","content":"chat"}}`), providers.FormatOllama, providers.FamilyUnknown)
		assert.Equal(t, "chat", e.Text)
		assert.False(t, e.Degraded)
	})
}

func TestExtractBedrock(t *testing.T) {
	t.Run("anthropic_messages", func(t *testing.T) {
		e := Extract([]byte(`{"content":[{"type":"text","text":"claude says"}]}`),
			providers.FormatBedrock, providers.FamilyAnthropic)
		assert.Equal(t, "claude says", e.Text)
	})

	t.Run("anthropic_legacy_completion", func(t *testing.T) {
		e := Extract([]byte(`{"completion":"older shape"}`),
			providers.FormatBedrock, providers.FamilyAnthropic)
		assert.Equal(t, "older shape", e.Text)
	})

	t.Run("amazon_titan", func(t *testing.T) {
		e := Extract([]byte(`{"results":[{"outputText":"titan"}]}`),
			providers.FormatBedrock, providers.FamilyAmazon)
		assert.Equal(t, "titan", e.Text)
	})

	t.Run("ai21", func(t *testing.T) {
		e := Extract([]byte(`{"completions":[{"data":{"text":"jurassic"}}]}`),
			providers.FormatBedrock, providers.FamilyAI21)
		assert.Equal(t, "jurassic", e.Text)
	})

	t.Run("cohere", func(t *testing.T) {
		e := Extract([]byte(`{"generations":[{"text":"command"}]}`),
			providers.FormatBedrock, providers.FamilyCohere)
		assert.Equal(t, "command", e.Text)
	})

	t.Run("unknown_family_degrades_to_payload", func(t *testing.T) {
		body := `{"odd":"shape"}`
		e := Extract([]byte(body), providers.FormatBedrock, providers.FamilyUnknown)
		assert.True(t, e.Degraded)
		assert.Equal(t, body, e.Text)
	})
}

func TestExtractDegraded(t *testing.T) {
	t.Run("unrecognized_shape_never_errors", func(t *testing.T) {
		body := `{"something":{"else":true}}`
		e := Extract([]byte(body), providers.FormatOpenAI, providers.FamilyUnknown)
		assert.True(t, e.Degraded)
		assert.Equal(t, body, e.Text)
	})

	t.Run("non_json_payload", func(t *testing.T) {
		e := Extract([]byte("plain error text"), providers.FormatOllama, providers.FamilyUnknown)
		assert.True(t, e.Degraded)
		assert.Equal(t, "plain error text", e.Text)
	})
}

func TestExtractUsage(t *testing.T) {
	t.Run("openai_usage", func(t *testing.T) {
		u := ExtractUsage([]byte(`{"usage":{"prompt_tokens":10,"completion_tokens":5}}`), providers.FormatOpenAI)
		assert.Equal(t, Usage{InputTokens: 10, OutputTokens: 5}, u)
	})

	t.Run("ollama_native_counts", func(t *testing.T) {
		u := ExtractUsage([]byte(`{"prompt_eval_count":7,"eval_count":3}`), providers.FormatOllama)
		assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 3}, u)
	})

	t.Run("ollama_falls_back_to_openai_shape", func(t *testing.T) {
		u := ExtractUsage([]byte(`{"usage":{"prompt_tokens":4,"completion_tokens":2}}`), providers.FormatOllama)
		assert.Equal(t, Usage{InputTokens: 4, OutputTokens: 2}, u)
	})

	t.Run("bedrock_anthropic_usage", func(t *testing.T) {
		u := ExtractUsage([]byte(`{"usage":{"input_tokens":12,"output_tokens":6}}`), providers.FormatBedrock)
		assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 6}, u)
	})

	t.Run("bedrock_titan_usage", func(t *testing.T) {
		u := ExtractUsage([]byte(`{"inputTextTokenCount":9,"results":[{"tokenCount":4}]}`), providers.FormatBedrock)
		assert.Equal(t, Usage{InputTokens: 9, OutputTokens: 4}, u)
	})

	t.Run("missing_usage_is_zero", func(t *testing.T) {
		assert.Zero(t, ExtractUsage([]byte(`{}`), providers.FormatOpenAI))
	})
}
