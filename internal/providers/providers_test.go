package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{
		"openai":  FormatOpenAI,
		"OpenAI":  FormatOpenAI,
		"ollama":  FormatOllama,
		"bedrock": FormatBedrock,
		"custom":  FormatCustom,
		"":        FormatCustom,
	}
	for in, want := range cases {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFormat("grpc")
	assert.Error(t, err)
}

func TestFamilyOfModel(t *testing.T) {
	assert.Equal(t, FamilyAnthropic, FamilyOfModel("anthropic.claude-3-haiku-20240307-v1:0"))
	assert.Equal(t, FamilyAmazon, FamilyOfModel("amazon.titan-text-express-v1"))
	assert.Equal(t, FamilyAI21, FamilyOfModel("ai21.j2-ultra-v1"))
	assert.Equal(t, FamilyCohere, FamilyOfModel("cohere.command-text-v14"))
	assert.Equal(t, FamilyUnknown, FamilyOfModel("mistral.mistral-7b-instruct-v0:2"))
	assert.Equal(t, FamilyUnknown, FamilyOfModel("no-dot-at-all"))
}

func TestLoadFromBytes(t *testing.T) {
	t.Run("parses_registry", func(t *testing.T) {
		yaml := `
openai:
  format: openai
  base_url: https://api.openai.com/v1
  default_model: gpt-4o-mini
  requires_api_key: true
  blocked_classifications: [confidential]
local:
  format: ollama
  base_url: http://localhost:11434
`
		r, err := LoadFromBytes([]byte(yaml))
		require.NoError(t, err)

		d := r.Get("openai")
		require.NotNil(t, d)
		assert.Equal(t, FormatOpenAI, d.Format)
		assert.Equal(t, "https://api.openai.com/v1", d.BaseURL)
		assert.True(t, d.RequiresAPIKey)
		assert.Equal(t, []string{"confidential"}, d.BlockedClassifications)

		assert.Equal(t, FormatOllama, r.Get("local").Format)
		assert.Nil(t, r.Get("missing"))
		assert.Len(t, r.Services(), 2)
	})

	t.Run("rejects_unknown_format", func(t *testing.T) {
		_, err := LoadFromBytes([]byte("svc:\n  format: telnet\n  base_url: http://x\n"))
		assert.Error(t, err)
	})

	t.Run("rejects_bedrock_without_base_url", func(t *testing.T) {
		_, err := LoadFromBytes([]byte("aws:\n  format: bedrock\n"))
		assert.Error(t, err)
	})

	t.Run("expands_env_with_defaults", func(t *testing.T) {
		t.Setenv("TEST_GW_URL", "http://internal:8080")
		yaml := "a:\n  format: openai\n  base_url: ${TEST_GW_URL}\nb:\n  format: openai\n  base_url: ${TEST_GW_MISSING:-http://fallback}\n"
		r, err := LoadFromBytes([]byte(yaml))
		require.NoError(t, err)
		assert.Equal(t, "http://internal:8080", r.Get("a").BaseURL)
		assert.Equal(t, "http://fallback", r.Get("b").BaseURL)
	})
}

func TestDescriptorModel(t *testing.T) {
	d := &Descriptor{ServiceKey: "x", DefaultModel: "gpt-4o-mini"}
	assert.Equal(t, "override", d.Model("override"))
	assert.Equal(t, "gpt-4o-mini", d.Model(""))

	bare := &Descriptor{ServiceKey: "y"}
	assert.Equal(t, DefaultModel, bare.Model(""))
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(&Descriptor{ServiceKey: "svc", Format: FormatOpenAI, BaseURL: "http://x"})
	require.NoError(t, err)
	assert.NotNil(t, r.Get("svc"))

	_, err = NewRegistry(&Descriptor{Format: FormatOpenAI, BaseURL: "http://x"})
	assert.Error(t, err)
}
