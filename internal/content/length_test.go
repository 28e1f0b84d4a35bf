package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeEmailLength(t *testing.T) {
	t.Run("estimates_four_chars_per_token", func(t *testing.T) {
		a := AnalyzeEmailLength(strings.Repeat("x", 4000), 0)
		assert.Equal(t, 1000, a.EstimatedTokens)
	})

	t.Run("rounds_token_estimate_up", func(t *testing.T) {
		a := AnalyzeEmailLength("abcde", 0)
		assert.Equal(t, 2, a.EstimatedTokens)
	})

	t.Run("warning_threshold", func(t *testing.T) {
		assert.False(t, AnalyzeEmailLength(strings.Repeat("x", 15000), 0).ExceedsWarningThreshold)
		assert.True(t, AnalyzeEmailLength(strings.Repeat("x", 15001), 0).ExceedsWarningThreshold)
	})

	t.Run("truncation_counts_prompt_overhead", func(t *testing.T) {
		content := strings.Repeat("x", 30000)
		assert.False(t, AnalyzeEmailLength(content, 1000).RequiresTruncation)
		assert.True(t, AnalyzeEmailLength(content, 3000).RequiresTruncation)
	})
}

func TestTokenCounter(t *testing.T) {
	// Works with or without the BPE files available: the counter falls back
	// to the 4-chars-per-token heuristic when the encoding can't be loaded.
	var tc TokenCounter
	assert.Zero(t, tc.Count(""))
	assert.Greater(t, tc.Count("the quick brown fox jumps over the lazy dog"), 0)
}
