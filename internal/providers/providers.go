// Package providers defines the provider registry boundary.
//
// DESIGN: Provider metadata arrives from outside the gateway as loosely-typed
// JSON/YAML. It is parsed into strict structs here, at the boundary, so a
// missing base_url or a misspelled format fails at load time instead of deep
// inside request building. Wire formats and Bedrock model families are closed
// enums: a new backend is a compile-time change, not a new magic string.
package providers

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Format identifies which backend wire protocol a provider speaks.
type Format int

const (
	// FormatCustom is an undeclared format, treated as OpenAI-compatible.
	FormatCustom Format = iota
	FormatOpenAI
	FormatOllama
	FormatBedrock
)

// String returns the registry tag for the format.
func (f Format) String() string {
	switch f {
	case FormatOpenAI:
		return "openai"
	case FormatOllama:
		return "ollama"
	case FormatBedrock:
		return "bedrock"
	default:
		return "custom"
	}
}

// ParseFormat maps a registry tag to a Format. Empty means custom.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "openai":
		return FormatOpenAI, nil
	case "ollama":
		return FormatOllama, nil
	case "bedrock":
		return FormatBedrock, nil
	case "custom", "":
		return FormatCustom, nil
	default:
		return FormatCustom, fmt.Errorf("unknown api format %q", s)
	}
}

// Family is the vendor prefix of a Bedrock model id. It selects the request
// and response body shape for the model.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyAnthropic
	FamilyAmazon
	FamilyAI21
	FamilyCohere
)

// String returns the model-id prefix for the family.
func (f Family) String() string {
	switch f {
	case FamilyAnthropic:
		return "anthropic"
	case FamilyAmazon:
		return "amazon"
	case FamilyAI21:
		return "ai21"
	case FamilyCohere:
		return "cohere"
	default:
		return "unknown"
	}
}

// FamilyOfModel extracts the model family from a Bedrock model id.
// "anthropic.claude-3-haiku-20240307-v1:0" → FamilyAnthropic.
func FamilyOfModel(modelID string) Family {
	prefix := modelID
	if idx := strings.Index(modelID, "."); idx != -1 {
		prefix = modelID[:idx]
	}
	switch strings.ToLower(prefix) {
	case "anthropic":
		return FamilyAnthropic
	case "amazon":
		return FamilyAmazon
	case "ai21":
		return FamilyAI21
	case "cohere":
		return FamilyCohere
	default:
		return FamilyUnknown
	}
}

const (
	// DefaultBaseURL is used when neither the caller nor the registry
	// supplies an endpoint: a local Ollama in OpenAI-compatible mode.
	DefaultBaseURL = "http://localhost:11434/v1"

	// DefaultModel is used when a descriptor omits default_model.
	DefaultModel = "llama3.2"
)

// Descriptor is one provider's validated registry entry. Immutable once
// loaded; the gateway only reads it.
type Descriptor struct {
	ServiceKey             string   `yaml:"-" json:"serviceKey"`
	Format                 Format   `yaml:"-" json:"apiFormat"`
	BaseURL                string   `yaml:"base_url" json:"baseUrl"`
	DefaultModel           string   `yaml:"default_model" json:"defaultModel"`
	RequiresAPIKey         bool     `yaml:"requires_api_key" json:"requiresApiKey"`
	BlockedClassifications []string `yaml:"blocked_classifications" json:"blockedClassifications"`
}

// rawDescriptor is the YAML shape before enum parsing.
type rawDescriptor struct {
	Format                 string   `yaml:"format"`
	BaseURL                string   `yaml:"base_url"`
	DefaultModel           string   `yaml:"default_model"`
	RequiresAPIKey         bool     `yaml:"requires_api_key"`
	BlockedClassifications []string `yaml:"blocked_classifications"`
}

// Registry is a read-only map of service key → Descriptor.
type Registry struct {
	descriptors map[string]*Descriptor
}

// Load reads a provider registry from a YAML file. A .env file next to the
// process, if present, is loaded first so ${VAR} references resolve.
func Load(path string) (*Registry, error) {
	if path == "" {
		return nil, fmt.Errorf("provider registry path is required")
	}
	_ = godotenv.Load() // best effort; absence of .env is normal

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider registry '%s': %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses a provider registry from raw YAML bytes.
// Supports ${VAR} and ${VAR:-default} env expansion.
func LoadFromBytes(data []byte) (*Registry, error) {
	expanded := expandEnvWithDefaults(string(data))

	var raw map[string]rawDescriptor
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse provider registry: %w", err)
	}

	r := &Registry{descriptors: make(map[string]*Descriptor, len(raw))}
	for key, rd := range raw {
		d, err := buildDescriptor(key, rd)
		if err != nil {
			return nil, err
		}
		r.descriptors[key] = d
	}
	return r, nil
}

// NewRegistry builds a registry from already-constructed descriptors.
// Used by tests and by hosts that manage provider metadata themselves.
func NewRegistry(descriptors ...*Descriptor) (*Registry, error) {
	r := &Registry{descriptors: make(map[string]*Descriptor, len(descriptors))}
	for _, d := range descriptors {
		if d.ServiceKey == "" {
			return nil, fmt.Errorf("descriptor is missing a service key")
		}
		if err := d.validate(); err != nil {
			return nil, err
		}
		r.descriptors[d.ServiceKey] = d
	}
	return r, nil
}

func buildDescriptor(key string, rd rawDescriptor) (*Descriptor, error) {
	format, err := ParseFormat(rd.Format)
	if err != nil {
		return nil, fmt.Errorf("provider %q: %w", key, err)
	}
	d := &Descriptor{
		ServiceKey:             key,
		Format:                 format,
		BaseURL:                rd.BaseURL,
		DefaultModel:           rd.DefaultModel,
		RequiresAPIKey:         rd.RequiresAPIKey,
		BlockedClassifications: rd.BlockedClassifications,
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Descriptor) validate() error {
	if d.BaseURL == "" && d.Format != FormatOllama && d.Format != FormatCustom {
		return fmt.Errorf("provider %q: base_url is required for format %s", d.ServiceKey, d.Format)
	}
	return nil
}

// Get returns the descriptor for a service key, or nil if unknown.
func (r *Registry) Get(serviceKey string) *Descriptor {
	return r.descriptors[serviceKey]
}

// Services returns the configured service keys.
func (r *Registry) Services() []string {
	keys := make([]string, 0, len(r.descriptors))
	for k := range r.descriptors {
		keys = append(keys, k)
	}
	return keys
}

// Model resolves the effective model id: explicit override, then the
// descriptor default, then the hardcoded fallback.
func (d *Descriptor) Model(override string) string {
	if override != "" {
		return override
	}
	if d.DefaultModel != "" {
		return d.DefaultModel
	}
	return DefaultModel
}

// envPattern matches ${VAR:-default} or ${VAR}.
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults expands environment variables with support for
// ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		if len(parts) > 2 {
			return parts[2]
		}
		return ""
	})
}
