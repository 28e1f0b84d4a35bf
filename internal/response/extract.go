// Package response normalizes heterogeneous backend responses into a single
// canonical text value.
//
// DESIGN: Each format gets an ordered fallback chain of gjson paths. A
// recognized format never errors; when no path yields text the whole payload
// is stringified as a degraded-but-usable result. The caller always gets a
// string.
package response

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/inboxpilot/ai-gateway/internal/providers"
)

// Extraction is the normalized result of a backend response.
type Extraction struct {
	Text string
	// Degraded is set when no known path matched and Text is the raw
	// payload. The dispatcher logs this as a warning.
	Degraded bool
}

// Usage carries token accounting parsed from a backend response, when the
// backend reports any. Zero values mean "not reported".
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Extract pulls canonical text out of a backend response body.
func Extract(body []byte, format providers.Format, family providers.Family) Extraction {
	var paths []string
	switch format {
	case providers.FormatOllama:
		paths = []string{"response", "message.content"}
	case providers.FormatBedrock:
		paths = bedrockPaths(family)
		if paths == nil {
			return degraded(body)
		}
	default:
		// OpenAI-compatible, including custom providers.
		paths = []string{
			"choices.0.message.content",
			"choices.0.text",
			"response",
			"text",
			"content",
		}
	}

	for _, path := range paths {
		if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
			return Extraction{Text: v.String()}
		}
	}
	return degraded(body)
}

func bedrockPaths(family providers.Family) []string {
	switch family {
	case providers.FamilyAnthropic:
		return []string{"content.0.text", "completion"}
	case providers.FamilyAmazon:
		return []string{"results.0.outputText"}
	case providers.FamilyAI21:
		return []string{"completions.0.data.text"}
	case providers.FamilyCohere:
		return []string{"generations.0.text"}
	default:
		return nil
	}
}

func degraded(body []byte) Extraction {
	return Extraction{Text: strings.TrimSpace(string(body)), Degraded: true}
}

// ExtractUsage parses token usage out of a backend response. Ollama reports
// prompt_eval_count/eval_count (with some versions returning the OpenAI
// shape instead); Bedrock Anthropic models report usage.input_tokens.
func ExtractUsage(body []byte, format providers.Format) Usage {
	switch format {
	case providers.FormatOllama:
		in := gjson.GetBytes(body, "prompt_eval_count").Int()
		out := gjson.GetBytes(body, "eval_count").Int()
		if in > 0 || out > 0 {
			return Usage{InputTokens: int(in), OutputTokens: int(out)}
		}
		return openAIUsage(body)
	case providers.FormatBedrock:
		in := gjson.GetBytes(body, "usage.input_tokens").Int()
		out := gjson.GetBytes(body, "usage.output_tokens").Int()
		if in > 0 || out > 0 {
			return Usage{InputTokens: int(in), OutputTokens: int(out)}
		}
		// Titan shape
		return Usage{
			InputTokens:  int(gjson.GetBytes(body, "inputTextTokenCount").Int()),
			OutputTokens: int(gjson.GetBytes(body, "results.0.tokenCount").Int()),
		}
	default:
		return openAIUsage(body)
	}
}

func openAIUsage(body []byte) Usage {
	return Usage{
		InputTokens:  int(gjson.GetBytes(body, "usage.prompt_tokens").Int()),
		OutputTokens: int(gjson.GetBytes(body, "usage.completion_tokens").Int()),
	}
}
