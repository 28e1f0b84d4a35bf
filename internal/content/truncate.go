package content

import "strings"

// TruncationMarker is inserted where the middle of an over-budget email was
// removed. Its wording is part of the prompt contract: downstream prompts
// tell the model to expect it.
const TruncationMarker = "\n\n[... EMAIL CONTENT TRUNCATED FOR PROCESSING ...]\n\n"

const (
	maxPreserveStart = 2000
	maxPreserveEnd   = 1000
)

// breakPatterns is a priority list, not a position list: an earlier pattern
// found anywhere in the allowed zone beats a later pattern closer to the
// ideal boundary.
var breakPatterns = []string{"\n\n", "\n", ". ", "! ", "? "}

// TruncationResult describes what a truncation call did. Callers thread it
// through to the UI; it is never consulted for control flow.
type TruncationResult struct {
	Content           string `json:"content"`
	WasTruncated      bool   `json:"wasTruncated"`
	OriginalLength    int    `json:"originalLength"`
	TruncatedLength   int    `json:"truncatedLength"`
	PreservedStart    int    `json:"preservedStart"`
	PreservedEnd      int    `json:"preservedEnd"`
	CharactersRemoved int    `json:"charactersRemoved"`
}

// TruncateEmailContent cuts content down to maxLength characters while
// keeping the head and tail of the message, which carry most of an email's
// signal (greeting/subject matter up top, signature and latest reply at the
// bottom). The cut edges snap to paragraph, line, or sentence boundaries
// when one exists near the ideal cut point.
//
// When maxLength is too small to fit both preserved regions plus the marker,
// the function degrades to a plain head truncation with PreservedEnd=0.
func TruncateEmailContent(c string, maxLength int) TruncationResult {
	if len(c) <= maxLength {
		return TruncationResult{
			Content:         c,
			OriginalLength:  len(c),
			TruncatedLength: len(c),
			PreservedStart:  len(c),
		}
	}

	preserveStart := maxPreserveStart
	if limit := maxLength * 6 / 10; limit < preserveStart {
		preserveStart = limit
	}
	preserveEnd := maxPreserveEnd
	if limit := maxLength * 3 / 10; limit < preserveEnd {
		preserveEnd = limit
	}

	available := maxLength - preserveStart - preserveEnd - len(TruncationMarker)
	if available < 0 {
		// Degenerate budget: marker plus preserved regions don't fit.
		cut := maxLength - len(TruncationMarker)
		if cut < 0 {
			cut = 0
		}
		head := c[:cut]
		out := head + TruncationMarker
		return TruncationResult{
			Content:           out,
			WasTruncated:      true,
			OriginalLength:    len(c),
			TruncatedLength:   len(out),
			PreservedStart:    len(head),
			PreservedEnd:      0,
			CharactersRemoved: len(c) - len(head),
		}
	}

	head := c[:preserveStart]
	if cut, ok := findHeadBreak(head); ok {
		head = head[:cut]
	}

	tail := c[len(c)-preserveEnd:]
	if start, ok := findTailBreak(tail); ok {
		tail = tail[start:]
	}

	out := head + TruncationMarker + tail
	return TruncationResult{
		Content:           out,
		WasTruncated:      true,
		OriginalLength:    len(c),
		TruncatedLength:   len(out),
		PreservedStart:    len(head),
		PreservedEnd:      len(tail),
		CharactersRemoved: len(c) - len(head) - len(tail),
	}
}

// findHeadBreak looks for the last break point in the final 20% of the head
// window. Patterns are tried in priority order; the first pattern that has a
// match in the zone wins and scanning stops.
func findHeadBreak(window string) (int, bool) {
	threshold := len(window) * 8 / 10
	for _, p := range breakPatterns {
		if idx := strings.LastIndex(window, p); idx > threshold {
			return idx + len(p), true
		}
	}
	return 0, false
}

// findTailBreak looks for the first break point in the leading 20% of the
// tail window, so the preserved tail starts on a fresh line or sentence.
func findTailBreak(window string) (int, bool) {
	threshold := len(window) * 2 / 10
	for _, p := range breakPatterns {
		if idx := strings.Index(window, p); idx >= 0 && idx < threshold {
			return idx + len(p), true
		}
	}
	return 0, false
}
