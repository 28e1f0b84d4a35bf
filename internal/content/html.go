// Package content prepares outbound email content for LLM prompts.
//
// DESIGN: Everything here is a pure function over strings. HTML-heavy email
// bodies are analyzed for tag density, optionally rewritten to plain text,
// and truncated to fit the prompt budget. Results are returned by value;
// the package keeps no state between calls.
//
// FILES:
//   - html.go:     HTML detection, density analysis, HTML→text conversion
//   - truncate.go: budget-bounded truncation with smart break points
//   - length.go:   token estimation and length thresholds
//   - mime.go:     body extraction from raw RFC 822 messages
package content

import (
	"fmt"
	"regexp"
	"strings"
)

// HTMLAnalysis describes how HTML-heavy a piece of content is and whether
// converting it to plain text is worthwhile.
type HTMLAnalysis struct {
	ContainsHTML        bool    `json:"containsHtml"`
	Density             float64 `json:"htmlDensity"` // 0-100, share of bytes spent on tags
	SignificantTags     int     `json:"significantHtmlCount"`
	RecommendConversion bool    `json:"recommendConversion"`
	EstimatedSavings    int     `json:"estimatedSavings"`
	SavingsPercent      float64 `json:"savingsPercentage"`
}

// ConversionInfo records the outcome of an HTML→text rewrite for diagnostics.
type ConversionInfo struct {
	Converted      bool    `json:"converted"`
	OriginalLength int     `json:"originalLength"`
	TextLength     int     `json:"textLength"`
	Savings        int     `json:"savings"`
	SavingsPercent float64 `json:"savingsPercentage"`
}

var (
	// tagPattern matches anything tag-shaped: an angle bracket followed by an
	// optional slash and a letter. Matches both real HTML and stray markup.
	tagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

	// significantTagPatterns identify structural HTML that signals a "real"
	// HTML email rather than a plain-text message with an angle bracket in it.
	significantTagPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<div[\s>]`),
		regexp.MustCompile(`(?i)<table[\s>]`),
		regexp.MustCompile(`(?i)<t[rdh][\s>]`),
		regexp.MustCompile(`(?i)<[uo]l[\s>]`),
		regexp.MustCompile(`(?i)<li[\s>]`),
		regexp.MustCompile(`(?i)<h[1-6][\s>]`),
		regexp.MustCompile(`(?i)<(?:b|strong|i|em)[\s>]`),
		regexp.MustCompile(`(?i)<img[\s>]`),
		regexp.MustCompile(`(?i)\sstyle\s*=`),
		regexp.MustCompile(`(?i)\sclass\s*=`),
	}
)

// AnalyzeHTML measures the HTML density of content and recommends whether an
// HTML→text conversion would pay off. Savings are estimated by actually
// running the converter, so the estimate is exact.
func AnalyzeHTML(text string) HTMLAnalysis {
	analysis := HTMLAnalysis{}
	if text == "" {
		return analysis
	}

	tags := tagPattern.FindAllString(text, -1)
	if len(tags) == 0 {
		return analysis
	}
	analysis.ContainsHTML = true

	tagBytes := 0
	for _, t := range tags {
		tagBytes += len(t)
	}
	analysis.Density = 100 * float64(tagBytes) / float64(len(text))

	for _, p := range significantTagPatterns {
		analysis.SignificantTags += len(p.FindAllStringIndex(text, -1))
	}

	converted := ConvertHTMLToText(text)
	analysis.EstimatedSavings = len(text) - len(converted)
	if analysis.EstimatedSavings < 0 {
		analysis.EstimatedSavings = 0
	}
	analysis.SavingsPercent = 100 * float64(analysis.EstimatedSavings) / float64(len(text))

	analysis.RecommendConversion = analysis.Density > 15 ||
		analysis.SignificantTags > 10 ||
		(analysis.SavingsPercent > 20 && analysis.EstimatedSavings > 500)

	return analysis
}

// Rewrite steps for ConvertHTMLToText. Order matters: structure first,
// inline markup second, stripping and entities last.
var (
	blockClosePattern = regexp.MustCompile(`(?i)</(?:div|p|h[1-6]|section|article|header|footer|main)>`)
	blockOpenPattern  = regexp.MustCompile(`(?i)<(?:div|p|h[1-6]|section|article|header|footer|main)(?:\s[^>]*)?>`)
	brPattern         = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrPattern         = regexp.MustCompile(`(?i)<hr\s*/?>`)
	liOpenPattern     = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>`)
	liClosePattern    = regexp.MustCompile(`(?i)</li>`)
	listClosePattern  = regexp.MustCompile(`(?i)</[uo]l>`)
	listOpenPattern   = regexp.MustCompile(`(?i)<[uo]l(?:\s[^>]*)?>`)
	rowClosePattern   = regexp.MustCompile(`(?i)</tr>`)
	cellClosePattern  = regexp.MustCompile(`(?i)</t[dh]>`)
	tablePattern      = regexp.MustCompile(`(?i)</?(?:table|thead|tbody|tfoot|tr|td|th)(?:\s[^>]*)?>`)
	boldPattern       = regexp.MustCompile(`(?is)<(?:b|strong)(?:\s[^>]*)?>(.*?)</(?:b|strong)>`)
	italicPattern     = regexp.MustCompile(`(?is)<(?:i|em)(?:\s[^>]*)?>(.*?)</(?:i|em)>`)
	anchorPattern     = regexp.MustCompile(`(?is)<a\s[^>]*href\s*=\s*["']?([^"'>\s]+)["']?[^>]*>(.*?)</a>`)
	anyTagPattern     = regexp.MustCompile(`<[^>]+>`)
	multiNewline      = regexp.MustCompile(`\n{3,}`)
	multiSpace        = regexp.MustCompile(`[ \t]{2,}`)
)

// entityReplacer decodes the fixed entity table. &lt;/&gt; are decoded after
// tag stripping, so the output can legitimately contain literal angle brackets.
var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&apos;", "'",
	"&nbsp;", " ",
	"&copy;", "©",
	"&reg;", "®",
	"&trade;", "™",
	"&mdash;", "—",
	"&ndash;", "–",
	"&hellip;", "…",
	"&amp;", "&",
)

// ConvertHTMLToText rewrites an HTML email body as readable plain text.
// Block structure becomes blank lines, lists become bullets, tables become
// pipe-separated rows, links keep their href. Content with no tag-shaped
// token is returned unchanged.
func ConvertHTMLToText(html string) string {
	if !tagPattern.MatchString(html) {
		return html
	}

	text := html

	// 1. Block elements delimit paragraphs.
	text = blockClosePattern.ReplaceAllString(text, "\n\n")
	text = blockOpenPattern.ReplaceAllString(text, "")

	// 2. Explicit breaks and rules.
	text = brPattern.ReplaceAllString(text, "\n")
	text = hrPattern.ReplaceAllString(text, "\n---\n")

	// 3. Lists.
	text = liOpenPattern.ReplaceAllString(text, "• ")
	text = liClosePattern.ReplaceAllString(text, "\n")
	text = listClosePattern.ReplaceAllString(text, "\n")
	text = listOpenPattern.ReplaceAllString(text, "")

	// 4. Tables: rows to lines, cells to pipe-separated fields.
	text = rowClosePattern.ReplaceAllString(text, "\n")
	text = cellClosePattern.ReplaceAllString(text, " | ")
	text = tablePattern.ReplaceAllString(text, "")

	// 5. Inline emphasis to markdown.
	text = boldPattern.ReplaceAllString(text, "**$1**")
	text = italicPattern.ReplaceAllString(text, "*$1*")

	// 6. Anchors keep their target.
	text = anchorPattern.ReplaceAllString(text, "$2 ($1)")

	// 7. Everything else goes.
	text = anyTagPattern.ReplaceAllString(text, "")

	// 8. Entities.
	text = entityReplacer.Replace(text)

	// 9. Whitespace cleanup.
	text = multiNewline.ReplaceAllString(text, "\n\n")
	text = multiSpace.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = multiNewline.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")

	return strings.TrimSpace(text)
}

// ConvertIfRecommended runs the converter only when analysis says it pays off.
// Returns the (possibly unchanged) content and a diagnostic record.
func ConvertIfRecommended(text string) (string, ConversionInfo) {
	info := ConversionInfo{OriginalLength: len(text), TextLength: len(text)}

	analysis := AnalyzeHTML(text)
	if !analysis.RecommendConversion {
		return text, info
	}

	converted := ConvertHTMLToText(text)
	info.Converted = true
	info.TextLength = len(converted)
	info.Savings = len(text) - len(converted)
	if len(text) > 0 {
		info.SavingsPercent = 100 * float64(info.Savings) / float64(len(text))
	}
	return converted, info
}

// String implements a compact human-readable form for log lines.
func (c ConversionInfo) String() string {
	if !c.Converted {
		return "no conversion"
	}
	return fmt.Sprintf("converted %d→%d chars (%.1f%% saved)", c.OriginalLength, c.TextLength, c.SavingsPercent)
}
