package content

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// warningLength is the content size above which the UI shows a
	// "long email" hint.
	warningLength = 15000

	// promptBudget is the combined content+prompt size that forces
	// truncation before dispatch.
	promptBudget = 32000
)

// LengthAnalysis summarizes whether content fits the prompt budget.
type LengthAnalysis struct {
	EstimatedTokens         int  `json:"estimatedTokens"`
	ExceedsWarningThreshold bool `json:"exceedsWarningThreshold"`
	RequiresTruncation      bool `json:"requiresTruncation"`
}

// AnalyzeEmailLength sizes content against the prompt budget. The token
// estimate is the classic 4-chars-per-token heuristic; use TokenCounter for
// an exact count when the cost matters.
func AnalyzeEmailLength(c string, additionalPromptLength int) LengthAnalysis {
	return LengthAnalysis{
		EstimatedTokens:         (len(c) + 3) / 4,
		ExceedsWarningThreshold: len(c) > warningLength,
		RequiresTruncation:      len(c)+additionalPromptLength > promptBudget,
	}
}

// PromptBudget returns the maximum combined content+prompt length.
func PromptBudget() int { return promptBudget }

// TokenCounter counts tokens with the cl100k_base BPE. The encoding is
// loaded lazily on first use; if it cannot be loaded (offline environments),
// Count falls back to the 4-chars-per-token heuristic.
type TokenCounter struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

// Count returns the number of tokens in text.
func (tc *TokenCounter) Count(text string) int {
	tc.once.Do(func() {
		if enc, err := tiktoken.GetEncoding("cl100k_base"); err == nil {
			tc.enc = enc
		}
	})
	if tc.enc == nil {
		return (len(text) + 3) / 4
	}
	return len(tc.enc.Encode(text, nil, nil))
}
